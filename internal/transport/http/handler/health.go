package handler

import (
	"context"
	"net/http"
)

// Pinger is the minimal connectivity check the health endpoint requires.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports process and database liveness.
type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler { return &HealthHandler{db: db} }

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	dbStatus := "up"
	if err := h.db.Ping(r.Context()); err != nil {
		dbStatus = "down"
	}
	writeData(w, "", map[string]interface{}{"database": dbStatus})
}
