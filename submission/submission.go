// Package submission runs a lead form through validation, a single insert and
// an optional side effect that cannot change the reported outcome.
package submission

import (
	"context"

	"github.com/phbpx/haojia"
	"github.com/phbpx/haojia/metrics"
	"github.com/phbpx/haojia/notify"
	"github.com/phbpx/haojia/validate"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

// State is the outcome shown to the person who submitted the form.
type State string

const (
	StateSuccess State = "success"
	StateInvalid State = "invalid"
	StateError   State = "error"
)

// FailureMessage is the only detail given when a record could not be stored.
const FailureMessage = "提交失败，请稍后重试或直接联系客服。"

type Result[R any] struct {
	State       State
	Record      R
	FieldErrors validate.Errors
}

// Flow submits forms of type F as records of type R.
type Flow[F, R any] struct {
	Name     string
	Validate func(F) (R, validate.Errors)
	Insert   func(context.Context, R) (R, error)

	// AfterInsert, when set, runs once the record is stored. Its error is
	// logged and counted only.
	AfterInsert func(context.Context, R) error

	Log *otelzap.SugaredLogger
}

// Submit validates form, stores it and runs AfterInsert. Invalid forms never
// reach the store.
func (f Flow[F, R]) Submit(ctx context.Context, form F) Result[R] {
	rec, errs := f.Validate(form)
	if len(errs) > 0 {
		metrics.Submissions.WithLabelValues(f.Name, string(StateInvalid)).Inc()
		return Result[R]{State: StateInvalid, FieldErrors: errs}
	}

	stored, err := f.Insert(ctx, rec)
	if err != nil {
		f.Log.Ctx(ctx).Errorw("submit", "form", f.Name, "status", "insert failed", "error", err)
		metrics.Submissions.WithLabelValues(f.Name, string(StateError)).Inc()
		return Result[R]{State: StateError}
	}
	metrics.Submissions.WithLabelValues(f.Name, string(StateSuccess)).Inc()

	if f.AfterInsert != nil {
		// The record is stored; a client hanging up must not cancel the follow-up.
		if err := f.AfterInsert(context.WithoutCancel(ctx), stored); err != nil {
			f.Log.Ctx(ctx).Warnw("submit", "form", f.Name, "status", "notification failed", "error", err)
			metrics.Notifications.WithLabelValues(f.Name, "failed").Inc()
		} else {
			metrics.Notifications.WithLabelValues(f.Name, "sent").Inc()
		}
	}

	return Result[R]{State: StateSuccess, Record: stored}
}

// Partner is the partner recruitment flow. Each stored application is
// announced through notifier.
func Partner(store haojia.PartnerApplicationService, notifier *notify.Partner, log *otelzap.SugaredLogger) Flow[validate.PartnerForm, haojia.PartnerApplication] {
	return Flow[validate.PartnerForm, haojia.PartnerApplication]{
		Name:        haojia.PartnerApplicationsCollection,
		Validate:    validate.Partner,
		Insert:      store.Create,
		AfterInsert: notifier.Notify,
		Log:         log,
	}
}

// Consultation is the service consultation flow.
func Consultation(store haojia.ConsultationService, log *otelzap.SugaredLogger) Flow[validate.ConsultationForm, haojia.Consultation] {
	return Flow[validate.ConsultationForm, haojia.Consultation]{
		Name:     haojia.ConsultationsCollection,
		Validate: validate.Consultation,
		Insert:   store.Create,
		Log:      log,
	}
}
