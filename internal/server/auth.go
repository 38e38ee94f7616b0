package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"aitodo/internal/app"
	"aitodo/pkg/domain"
)

type authRequest struct {
	Phone  string `json:"phone"`
	Action string `json:"action"`
	Code   string `json:"code"`
}

type codeResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	DebugCode string `json:"debug_code,omitempty"`
}

type verifyResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    domain.User `json:"user"`
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req authRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "无效的请求数据")
		return
	}
	switch strings.TrimSpace(req.Action) {
	case "login":
		s.handleLogin(w, r, req)
	case "verify":
		s.handleVerify(w, r, req)
	case "logout":
		s.handleLogout(w, r)
	default:
		s.audit(r, "auth.request", "fail", "reason", "unknown_action")
		writeError(w, http.StatusBadRequest, app.ErrInvalidAction.Error())
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, req authRequest) {
	if !s.allowRate(w, r, s.loginLimiter, "请求过于频繁，请稍后再试") {
		s.audit(r, "auth.login", "rate_limited")
		return
	}
	code, err := s.app.RequestCode(r.Context(), req.Phone)
	if err != nil {
		if errors.Is(err, app.ErrInvalidPhone) {
			s.audit(r, "auth.login", "fail", "reason", "invalid_phone")
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.audit(r, "auth.login", "fail", "reason", err.Error())
		writeError(w, http.StatusInternalServerError, "发送验证码失败")
		return
	}
	s.audit(r, "auth.login", "success")
	resp := codeResponse{Success: true, Message: "验证码已发送"}
	if s.app.DebugAuthCode() {
		resp.DebugCode = code
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request, req authRequest) {
	if !s.allowRate(w, r, s.verifyLimiter, "请求过于频繁，请稍后再试") {
		s.audit(r, "auth.verify", "rate_limited")
		return
	}
	user, token, err := s.app.VerifyCode(req.Phone, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidPhone):
			s.audit(r, "auth.verify", "fail", "reason", "invalid_phone")
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrCodeMismatch):
			s.audit(r, "auth.verify", "fail", "reason", "code_mismatch")
			writeError(w, http.StatusUnauthorized, err.Error())
		default:
			s.audit(r, "auth.verify", "fail", "reason", err.Error())
			writeError(w, http.StatusInternalServerError, "登录失败，请重试")
		}
		return
	}
	s.audit(r, "auth.verify", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, verifyResponse{Success: true, Token: token, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		s.audit(r, "auth.logout", "fail", "reason", "missing_token")
		writeError(w, http.StatusUnauthorized, "登录已过期")
		return
	}
	if err := s.app.Logout(token); err != nil {
		s.audit(r, "auth.logout", "fail", "reason", err.Error())
		writeError(w, http.StatusInternalServerError, "退出登录失败")
		return
	}
	s.audit(r, "auth.logout", "success")
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "已退出登录"})
}
