// Package dashboard loads and renders the lead records shown to signed in
// operators.
package dashboard

import (
	"context"
	"time"

	"github.com/phbpx/haojia"
	"github.com/phbpx/haojia/auth"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"golang.org/x/sync/errgroup"
)

// FetchFailedAlert is shown when either collection could not be read.
const FetchFailedAlert = "获取数据失败，请检查权限或网络"

// Records are both collections, newest first.
type Records struct {
	Applications  []haojia.PartnerApplication `json:"applications"`
	Consultations []haojia.Consultation       `json:"consultations"`
}

// View is what an operator sees after a load. On a failed load Records holds
// the last successful load of the same session, if any.
type View struct {
	Records
	Alert string `json:"alert,omitempty"`
}

// Snapshots keeps the last successful load of each session.
type Snapshots interface {
	Save(ctx context.Context, sessionID string, r Records, ttl time.Duration) error
	Load(ctx context.Context, sessionID string) (Records, bool, error)
}

type Viewer struct {
	apps      haojia.PartnerApplicationService
	cons      haojia.ConsultationService
	snapshots Snapshots
	log       *otelzap.SugaredLogger
}

func NewViewer(apps haojia.PartnerApplicationService, cons haojia.ConsultationService, snapshots Snapshots, log *otelzap.SugaredLogger) *Viewer {
	return &Viewer{
		apps:      apps,
		cons:      cons,
		snapshots: snapshots,
		log:       log,
	}
}

// Load fetches both collections for s. Calling it again simply replaces the
// view.
func (v *Viewer) Load(ctx context.Context, s auth.Session) View {
	records, err := v.fetch(ctx)
	if err != nil {
		v.log.Ctx(ctx).Errorw("dashboard", "status", "fetching records", "session", s.ID, "error", err)
		return View{Records: v.lastGood(ctx, s), Alert: FetchFailedAlert}
	}

	if err := v.snapshots.Save(ctx, s.ID, records, time.Until(s.ExpiresAt)); err != nil {
		v.log.Ctx(ctx).Warnw("dashboard", "status", "saving snapshot", "session", s.ID, "error", err)
	}

	return View{Records: records}
}

func (v *Viewer) fetch(ctx context.Context) (Records, error) {
	var r Records

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		apps, err := v.apps.QueryAll(ctx)
		r.Applications = apps
		return err
	})
	g.Go(func() error {
		cons, err := v.cons.QueryAll(ctx)
		r.Consultations = cons
		return err
	})

	if err := g.Wait(); err != nil {
		return Records{}, err
	}
	return r, nil
}

func (v *Viewer) lastGood(ctx context.Context, s auth.Session) Records {
	r, ok, err := v.snapshots.Load(ctx, s.ID)
	if err != nil {
		v.log.Ctx(ctx).Warnw("dashboard", "status", "loading snapshot", "session", s.ID, "error", err)
		return Records{}
	}
	if !ok {
		return Records{}
	}
	return r
}
