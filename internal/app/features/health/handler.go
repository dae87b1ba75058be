package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/timeouts"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// RedisPinger is the part of a Redis client the health check uses.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// CacheClock reports when the category cache was last filled.
type CacheClock interface {
	FetchedAt() time.Time
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client     *mongo.Client
	Redis      RedisPinger // nil when Redis is not configured
	Categories CacheClock
	Log        *zap.Logger
}

// NewHandler constructs a health Handler. rdb and categories may be nil.
func NewHandler(client *mongo.Client, rdb RedisPinger, categories CacheClock, logger *zap.Logger) *Handler {
	return &Handler{
		Client:     client,
		Redis:      rdb,
		Categories: categories,
		Log:        logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status       string     `json:"status"`
	Database     string     `json:"database"`
	Queue        string     `json:"queue,omitempty"`
	CategoriesAt *time.Time `json:"categories_fetched_at,omitempty"`
	Message      string     `json:"message,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "queue":"connected" }
//
// When only Redis is down the status is "degraded" (still 200): roster
// changes work, notifications are delayed.
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if h.Redis != nil {
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			h.Log.Warn("health-check: redis ping failed", zap.Error(err))
			resp.Status = "degraded"
			resp.Queue = "disconnected"
			resp.Error = err.Error()
		} else {
			resp.Queue = "connected"
		}
	}

	if h.Categories != nil {
		if at := h.Categories.FetchedAt(); !at.IsZero() {
			resp.CategoriesAt = &at
		}
	}

	_ = json.NewEncoder(w).Encode(resp)
}
