// internal/app/features/login/handler.go
package login

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/GeddesWorks/quotes/internal/app/features/shared/jsonresp"
	"github.com/GeddesWorks/quotes/internal/app/system/apperr"
	"github.com/GeddesWorks/quotes/internal/app/system/auth"
	"github.com/GeddesWorks/quotes/internal/app/system/htmlsanitize"
	"github.com/GeddesWorks/quotes/internal/app/system/ratelimit"
)

// Handler serves sign-in. Identity is asserted by the caller and gated
// by a shared passcode; when no passcode hash is configured the
// deployment runs in trust mode and any identity is accepted.
type Handler struct {
	Sessions     *auth.SessionManager
	PasscodeHash string
	Limits       *ratelimit.GuessLimiter
	Log          *zap.Logger
}

// NewHandler constructs a login Handler.
func NewHandler(sessions *auth.SessionManager, passcodeHash string, logger *zap.Logger) *Handler {
	return &Handler{Sessions: sessions, PasscodeHash: passcodeHash, Log: logger}
}

type loginRequest struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Passcode string `json:"passcode"`
}

// HandleLogin starts a session for the asserted identity.
// POST /login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}

	userID := strings.TrimSpace(req.UserID)
	name := htmlsanitize.Plain(req.Name)
	if userID == "" {
		jsonresp.WriteError(w, h.Log, apperr.Validation("user_id is required"))
		return
	}
	if name == "" {
		jsonresp.WriteError(w, h.Log, apperr.Validation("name is required"))
		return
	}

	if h.PasscodeHash != "" {
		if h.Limits != nil && !h.Limits.AllowKey(userID) {
			jsonresp.WriteError(w, h.Log, apperr.Forbidden("too many attempts for this user, wait before retrying"))
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(h.PasscodeHash), []byte(req.Passcode)); err != nil {
			jsonresp.WriteError(w, h.Log, apperr.Forbidden("invalid passcode"))
			return
		}
		if h.Limits != nil {
			h.Limits.ResetKey(userID)
		}
	}

	user := auth.SessionUser{ID: userID, Name: name}
	if err := h.Sessions.SignIn(w, r, user); err != nil {
		h.Log.Error("sign-in failed", zap.Error(err))
		jsonresp.WriteError(w, h.Log, apperr.New(apperr.KindTransient, "could not start session"))
		return
	}
	jsonresp.Write(w, http.StatusOK, user)
}
