package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/phbpx/haojia"
	"github.com/phbpx/haojia/dashboard"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

// AdminHandler serves the records viewer. Both routes sit behind a session
// guard, so no store is touched for anonymous requests.
type AdminHandler struct {
	viewer *dashboard.Viewer
	loc    *time.Location
	log    *otelzap.SugaredLogger
}

func NewAdminHandler(viewer *dashboard.Viewer, loc *time.Location, log *otelzap.SugaredLogger) *AdminHandler {
	return &AdminHandler{
		viewer: viewer,
		loc:    loc,
		log:    log,
	}
}

func (adh AdminHandler) Dashboard(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	s, ok := sessionFrom(ctx)
	if !ok {
		http.Redirect(rw, r, "/login", http.StatusFound)
		return
	}

	page := dashboard.Page{
		View:     adh.viewer.Load(ctx, s),
		Tab:      r.URL.Query().Get("tab"),
		Operator: s.Email,
		Location: adh.loc,
	}

	var b bytes.Buffer
	if err := dashboard.Render(&b, page); err != nil {
		adh.log.Ctx(ctx).Errorw("Dashboard", "status", "rendering", "error", err.Error())
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.Header().Set("Cache-Control", "no-store")
	rw.WriteHeader(http.StatusOK)
	rw.Write(b.Bytes())
}

func (adh AdminHandler) Records(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	s, ok := sessionFrom(ctx)
	if !ok {
		respondErr(ctx, rw, http.StatusUnauthorized, "unauthorized")
		return
	}

	view := adh.viewer.Load(ctx, s)
	if view.Applications == nil {
		view.Applications = []haojia.PartnerApplication{}
	}
	if view.Consultations == nil {
		view.Consultations = []haojia.Consultation{}
	}

	respond(ctx, rw, http.StatusOK, view)
}
