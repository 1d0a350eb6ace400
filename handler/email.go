package handler

import (
	"errors"
	"net/http"

	"github.com/phbpx/haojia/mail"
	"github.com/phbpx/haojia/metrics"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

type EmailHandler struct {
	relay *mail.Relay
	log   *otelzap.SugaredLogger
}

func NewEmailHandler(relay *mail.Relay, log *otelzap.SugaredLogger) *EmailHandler {
	return &EmailHandler{
		relay: relay,
		log:   log,
	}
}

type emailRequest struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send relays one notification email. Every verb is routed here so that the
// method check comes before anything else.
func (eh EmailHandler) Send(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		metrics.Emails.WithLabelValues("method_not_allowed").Inc()
		respondErr(ctx, rw, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req emailRequest
	if err := decode(r, &req); err != nil {
		eh.log.Ctx(ctx).Warnw("Send", "status", "decoding request", "error", err.Error())
		metrics.Emails.WithLabelValues("invalid").Inc()
		respondErr(ctx, rw, http.StatusBadRequest, "Missing required fields")
		return
	}

	if err := eh.relay.Send(ctx, req.Subject, req.HTML); err != nil {
		switch {
		case errors.Is(err, mail.ErrMissingFields):
			metrics.Emails.WithLabelValues("invalid").Inc()
			respondErr(ctx, rw, http.StatusBadRequest, "Missing required fields")
		case errors.Is(err, mail.ErrNotConfigured):
			eh.log.Ctx(ctx).Errorw("Send", "status", "relay not configured")
			metrics.Emails.WithLabelValues("not_configured").Inc()
			respondErr(ctx, rw, http.StatusInternalServerError, "Server configuration error")
		default:
			eh.log.Ctx(ctx).Errorw("Send", "error", err.Error())
			metrics.Emails.WithLabelValues("failed").Inc()
			respondErr(ctx, rw, http.StatusInternalServerError, "Failed to send email")
		}
		return
	}

	metrics.Emails.WithLabelValues("sent").Inc()
	respond(ctx, rw, http.StatusOK, map[string]bool{"success": true})
}
