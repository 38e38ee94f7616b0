package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"aitodo/internal/app"
	"aitodo/pkg/domain"
)

const maxImageBytes = 10 << 20

type parseTextRequest struct {
	Text           string `json:"text"`
	ConversationID string `json:"conversation_id"`
}

func (s *Server) handleParseText(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req parseTextRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "无效的请求数据")
		return
	}
	res, err := s.app.ParseText(r.Context(), user, req.Text, req.ConversationID)
	if err != nil {
		if errors.Is(err, app.ErrTextRequired) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.audit(r, "parse.text", "fail", "user_id", user.ID, "reason", err.Error())
		writeError(w, http.StatusInternalServerError, app.ErrParseFailed.Error())
		return
	}
	s.audit(r, "parse.text", "success", "user_id", user.ID, "conversation_id", res.ConversationID)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"conversation_id": res.ConversationID,
		"extracted":       res.Extracted,
		"questions":       emptyIfNilStrings(res.Questions),
	})
}

func (s *Server) handleParseImage(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, "无效的上传数据")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "请上传图片文件")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "读取图片失败")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	res, err := s.app.ParseImage(r.Context(), user, data, contentType, r.FormValue("conversation_id"))
	if err != nil {
		if errors.Is(err, app.ErrNotImage) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.audit(r, "parse.image", "fail", "user_id", user.ID, "reason", err.Error())
		writeError(w, http.StatusInternalServerError, app.ErrParseFailed.Error())
		return
	}
	s.audit(r, "parse.image", "success", "user_id", user.ID, "conversation_id", res.ConversationID)
	payload := map[string]any{
		"success":         true,
		"conversation_id": res.ConversationID,
		"extracted":       res.Extracted,
		"questions":       emptyIfNilStrings(res.Questions),
	}
	if res.ImageID != "" {
		payload["image_id"] = res.ImageID
		payload["image_url"] = res.ImageURL
	}
	writeJSON(w, http.StatusOK, payload)
}

func emptyIfNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
