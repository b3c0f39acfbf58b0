package httpapi

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/datacleaner/internal/cleanengine"
	"github.com/dmitrijs2005/datacleaner/internal/common"
	"github.com/dmitrijs2005/datacleaner/internal/server/models"
	"github.com/pquerna/otp"
)

// userPayload is the account shape returned by login, verify and
// complete-registration.
type userPayload struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	MFAEnabled bool   `json:"mfa_enabled"`
}

func userJSON(u *models.User) userPayload {
	return userPayload{ID: u.ID, Email: u.Email, Name: u.Name, MFAEnabled: u.MFAEnabled}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"success": false, "error": message})
}

// respondServiceError translates service-layer errors into the HTTP statuses
// and user-facing messages of the API. Unrecognized errors become opaque 500s.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var locked *common.LockedError
	switch {
	case errors.As(err, &locked):
		secs := int64(locked.Remaining / time.Second)
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
		respondJSON(w, http.StatusLocked, map[string]any{
			"success":             false,
			"error":               fmt.Sprintf("Account locked. Try again in %s", locked.Remaining),
			"retry_after_seconds": secs,
		})
	case errors.Is(err, common.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrEmailTaken):
		respondError(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, common.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, common.ErrInvalidMFACode):
		respondError(w, http.StatusUnauthorized, "Invalid MFA code")
	case errors.Is(err, common.ErrMFARequired):
		respondError(w, http.StatusUnauthorized, "MFA code required")
	case errors.Is(err, common.ErrMFANotEnrolled):
		respondError(w, http.StatusBadRequest, "MFA enrollment not started")
	case errors.Is(err, common.ErrMFAAlreadyEnabled):
		respondError(w, http.StatusConflict, "MFA already enabled")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, common.ErrorNotFound):
		respondError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, cleanengine.ErrUnsupportedFormat):
		respondError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, cleanengine.ErrParse):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// mfaQRDataURL renders the otpauth:// provisioning URI as a QR code PNG,
// returned as a data: URL the browser can drop into an <img> tag.
func mfaQRDataURL(uri string) (string, error) {
	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return "", err
	}
	img, err := key.Image(256, 256)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
