package handlers

import (
	"net/http"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// HealthHandler reports the state of the API's backing services. Redis is
// optional: installs without background email delivery run with a nil
// client and only the database is checked.
type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewHealthHandler(db *gorm.DB, redis *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	services := make(map[string]string)
	status := "healthy"

	mark := func(name string, healthy bool) {
		if healthy {
			services[name] = "healthy"
			return
		}
		services[name] = "unhealthy"
		status = "unhealthy"
	}

	mark("database", h.pingDB())

	if h.redis != nil {
		mark("redis", h.redis.Ping(r.Context()).Err() == nil)
	}

	code := http.StatusOK
	if status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{Status: status, Services: services})
}

// Ready is the readiness probe: without the database no request can be
// served, so readiness tracks it alone.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.pingDB() {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *HealthHandler) pingDB() bool {
	sqlDB, err := h.db.DB()
	return err == nil && sqlDB.Ping() == nil
}
