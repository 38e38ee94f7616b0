package server

import (
	"errors"
	"net/http"
	"strconv"

	"aitodo/internal/holiday"
)

func (s *Server) handleHolidays(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	var year int
	switch {
	case q.Get("year") != "":
		y, err := strconv.Atoi(q.Get("year"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "无效的year参数")
			return
		}
		year = y
	case q.Get("month") != "":
		y, err := holiday.YearFromMonth(q.Get("month"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "无效的month参数")
			return
		}
		year = y
	default:
		writeError(w, http.StatusBadRequest, "缺少year或month参数")
		return
	}

	res, err := s.app.Holidays().Lookup(r.Context(), year)
	if err != nil {
		var notFound *holiday.NotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, notFound.Error())
			return
		}
		s.audit(r, "holidays.lookup", "fail", "year", year, "reason", err.Error())
		writeError(w, http.StatusInternalServerError, "获取节假日数据失败")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"year":    res.Year,
		"data":    res.Days,
		"source":  res.Source,
	})
}
