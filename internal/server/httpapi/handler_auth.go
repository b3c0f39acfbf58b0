package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/datacleaner/internal/common"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfa_code"`
}

type mfaCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// handleRegister creates the account and starts MFA enrollment in one step.
// The account stays pending until the client confirms the code via
// verify-mfa or complete-registration.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	user, err := s.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	enrollment, err := s.auth.EnrollMFA(r.Context(), user.ID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	resp := map[string]any{
		"success":    true,
		"user_id":    user.ID,
		"mfa_secret": enrollment.Secret,
		"mfa_uri":    enrollment.URI,
		"message":    "Please set up MFA to complete registration",
	}
	if qr, err := mfaQRDataURL(enrollment.URI); err == nil {
		resp["mfa_qr_url"] = qr
	} else {
		s.logger.Warn(r.Context(), "could not render MFA QR code", "error", err)
	}
	respondJSON(w, http.StatusCreated, resp)
}

// handleVerifyMFA confirms a pending enrollment during initial setup, before
// the client holds a session. The code is checked against the secret stored
// server-side for the account, never one supplied by the client.
func (s *Server) handleVerifyMFA(w http.ResponseWriter, r *http.Request) {
	var req mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Code == "" {
		respondError(w, http.StatusBadRequest, "Email and code are required")
		return
	}

	if err := s.auth.VerifyMFAEnrollmentByEmail(r.Context(), req.Email, req.Code); err != nil {
		// setup-time rejection is a 400, unlike the 401 at login
		if errors.Is(err, common.ErrInvalidMFACode) {
			respondError(w, http.StatusBadRequest, "Invalid MFA code")
			return
		}
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, user, err := s.auth.Login(r.Context(), req.Email, req.Password, req.MFACode)
	if err != nil {
		if errors.Is(err, common.ErrMFARequired) {
			// 200 by contract: the client treats this as a prompt, not a failure
			respondJSON(w, http.StatusOK, map[string]any{
				"success":      false,
				"requires_mfa": true,
				"error":        "MFA code required",
			})
			return
		}
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"user":    userJSON(user),
	})
}

// handleCompleteRegistration finishes the signup flow: it re-checks the
// password, confirms the pending MFA secret if a code is supplied (or drops
// it if the client skipped setup) and issues the first session.
func (s *Server) handleCompleteRegistration(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Missing registration data")
		return
	}

	token, user, err := s.auth.CompleteRegistration(r.Context(), req.Email, req.Password, req.MFACode)
	if err != nil {
		if errors.Is(err, common.ErrMFARequired) {
			respondJSON(w, http.StatusOK, map[string]any{
				"success":      false,
				"requires_mfa": true,
				"error":        "MFA code required",
			})
			return
		}
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"user":    userJSON(user),
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.GetUser(r.Context(), userID(r.Context()))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    userJSON(user),
	})
}

// handleLogout revokes the presented session. It answers success even for
// tokens that are already gone so the client can always clear local state.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if ok && token != "" {
		if err := s.auth.RevokeSession(r.Context(), token); err != nil {
			s.respondServiceError(w, r, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleMFAEnroll starts (or restarts) enrollment for a logged-in account
// that registered without MFA.
func (s *Server) handleMFAEnroll(w http.ResponseWriter, r *http.Request) {
	enrollment, err := s.auth.EnrollMFA(r.Context(), userID(r.Context()))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	resp := map[string]any{
		"success":    true,
		"mfa_secret": enrollment.Secret,
		"mfa_uri":    enrollment.URI,
	}
	if qr, err := mfaQRDataURL(enrollment.URI); err == nil {
		resp["mfa_qr_url"] = qr
	} else {
		s.logger.Warn(r.Context(), "could not render MFA QR code", "error", err)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMFAConfirm(w http.ResponseWriter, r *http.Request) {
	var req mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "MFA code is required")
		return
	}

	if err := s.auth.VerifyMFAEnrollment(r.Context(), userID(r.Context()), req.Code); err != nil {
		if errors.Is(err, common.ErrInvalidMFACode) {
			respondError(w, http.StatusBadRequest, "Invalid MFA code")
			return
		}
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
