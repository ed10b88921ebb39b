// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/GeddesWorks/quotes/internal/app/features/shared/jsonresp"
	"github.com/GeddesWorks/quotes/internal/app/system/auth"
)

// Handler serves sign-out.
type Handler struct {
	Sessions *auth.SessionManager
	Log      *zap.Logger
}

// NewHandler constructs a logout Handler.
func NewHandler(sessions *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{Sessions: sessions, Log: logger}
}

// HandleLogout clears the caller's session. Always succeeds; signing
// out an anonymous caller is a no-op.
// POST /logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.SignOut(w, r); err != nil {
		h.Log.Warn("sign-out failed", zap.Error(err))
	}
	jsonresp.Write(w, http.StatusOK, map[string]string{"status": "signed out"})
}
