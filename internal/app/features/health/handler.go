// internal/app/features/health/handler.go
package health

import (
	"context"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/GeddesWorks/quotes/internal/app/features/shared/jsonresp"
	"github.com/GeddesWorks/quotes/internal/app/system/timeouts"
)

// Handler serves the liveness and readiness endpoints.
type Handler struct {
	Mongo *mongo.Client
	Log   *zap.Logger
}

// NewHandler constructs a health Handler. Mongo may be nil in tests.
func NewHandler(client *mongo.Client, logger *zap.Logger) *Handler {
	return &Handler{Mongo: client, Log: logger}
}

type healthResponse struct {
	Status  string `json:"status"`
	Mongo   string `json:"mongo"`
	Checked string `json:"checked"`
}

// ServeHealth reports process liveness and store reachability.
// GET /health
func (h *Handler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Mongo:   "ok",
		Checked: time.Now().UTC().Format(time.RFC3339),
	}

	if h.Mongo != nil {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
		defer cancel()
		if err := h.Mongo.Ping(ctx, readpref.Primary()); err != nil {
			h.Log.Warn("mongo ping failed", zap.Error(err))
			resp.Status = "degraded"
			resp.Mongo = "unreachable"
			jsonresp.Write(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	jsonresp.Write(w, http.StatusOK, resp)
}
