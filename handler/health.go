package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

type HealthHandler struct {
	check func(context.Context) error
	log   *otelzap.SugaredLogger
}

// NewHealthHandler reports readiness using check, typically a database
// status check.
func NewHealthHandler(check func(context.Context) error, log *otelzap.SugaredLogger) *HealthHandler {
	return &HealthHandler{
		check: check,
		log:   log,
	}
}

func (hh HealthHandler) Health(rw http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	if err := hh.check(ctx); err != nil {
		hh.log.Ctx(ctx).Warnw("Health", "status", "db not ready", "error", err.Error())
		respond(ctx, rw, http.StatusServiceUnavailable, map[string]string{"status": "db not ready"})
		return
	}

	respond(ctx, rw, http.StatusOK, map[string]string{"status": "ok"})
}
