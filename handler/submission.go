package handler

import (
	"net/http"

	"github.com/phbpx/haojia"
	"github.com/phbpx/haojia/submission"
	"github.com/phbpx/haojia/validate"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

type (
	PartnerFlow      = submission.Flow[validate.PartnerForm, haojia.PartnerApplication]
	ConsultationFlow = submission.Flow[validate.ConsultationForm, haojia.Consultation]
)

type SubmissionHandler struct {
	partner      PartnerFlow
	consultation ConsultationFlow
	log          *otelzap.SugaredLogger
}

func NewSubmissionHandler(partner PartnerFlow, consultation ConsultationFlow, log *otelzap.SugaredLogger) *SubmissionHandler {
	return &SubmissionHandler{
		partner:      partner,
		consultation: consultation,
		log:          log,
	}
}

func (sh SubmissionHandler) CreatePartnerApplication(rw http.ResponseWriter, r *http.Request) {
	submitJSON(rw, r, sh.partner, sh.log)
}

func (sh SubmissionHandler) CreateConsultation(rw http.ResponseWriter, r *http.Request) {
	submitJSON(rw, r, sh.consultation, sh.log)
}

func submitJSON[F, R any](rw http.ResponseWriter, r *http.Request, flow submission.Flow[F, R], log *otelzap.SugaredLogger) {
	ctx := r.Context()

	var form F
	if err := decode(r, &form); err != nil {
		log.Ctx(ctx).Warnw("Create", "form", flow.Name, "status", "decoding request", "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, "invalid request body")
		return
	}

	res := flow.Submit(ctx, form)
	switch res.State {
	case submission.StateInvalid:
		respond(ctx, rw, http.StatusBadRequest, map[string]interface{}{
			"error":  "validation failed",
			"fields": res.FieldErrors,
		})
	case submission.StateError:
		respondErr(ctx, rw, http.StatusInternalServerError, submission.FailureMessage)
	default:
		respond(ctx, rw, http.StatusCreated, res.Record)
	}
}

// =============================================================================
// HTML forms

type partnerPage struct {
	Form     validate.PartnerForm
	Errors   validate.Errors
	State    submission.State
	Brackets []string
}

type contactPage struct {
	Form   validate.ConsultationForm
	Errors validate.Errors
	State  submission.State
}

func (sh SubmissionHandler) PartnerPage(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := partnerPage{Brackets: haojia.InvestmentBrackets}
	if err := render(ctx, rw, http.StatusOK, "partner.html", page); err != nil {
		sh.log.Ctx(ctx).Errorw("PartnerPage", "error", err.Error())
	}
}

func (sh SubmissionHandler) SubmitPartnerPage(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		sh.log.Ctx(ctx).Warnw("SubmitPartnerPage", "status", "parsing form", "error", err.Error())
	}

	form := validate.PartnerForm{
		Name:       r.PostFormValue("name"),
		Phone:      r.PostFormValue("phone"),
		Region:     r.PostFormValue("region"),
		Experience: r.PostFormValue("experience"),
		Investment: r.PostFormValue("investment"),
		Message:    r.PostFormValue("message"),
	}

	res := sh.partner.Submit(ctx, form)

	page := partnerPage{
		Form:     form,
		Errors:   res.FieldErrors,
		State:    res.State,
		Brackets: haojia.InvestmentBrackets,
	}
	if res.State == submission.StateSuccess {
		page.Form = validate.PartnerForm{}
	}

	if err := render(ctx, rw, formStatus(res.State), "partner.html", page); err != nil {
		sh.log.Ctx(ctx).Errorw("SubmitPartnerPage", "error", err.Error())
	}
}

// ContactPage renders the consultation form. ?service= preselects the service
// type when it names a known one.
func (sh SubmissionHandler) ContactPage(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var page contactPage
	switch s := haojia.ServiceType(r.URL.Query().Get("service")); s {
	case haojia.ServiceFurniture, haojia.ServiceWindow:
		page.Form.ServiceType = string(s)
	}

	if err := render(ctx, rw, http.StatusOK, "contact.html", page); err != nil {
		sh.log.Ctx(ctx).Errorw("ContactPage", "error", err.Error())
	}
}

func (sh SubmissionHandler) SubmitContactPage(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		sh.log.Ctx(ctx).Warnw("SubmitContactPage", "status", "parsing form", "error", err.Error())
	}

	form := validate.ConsultationForm{
		Name:         r.PostFormValue("name"),
		Phone:        r.PostFormValue("phone"),
		ServiceType:  r.PostFormValue("service_type"),
		Address:      r.PostFormValue("address"),
		Requirements: r.PostFormValue("requirements"),
	}

	res := sh.consultation.Submit(ctx, form)

	page := contactPage{
		Form:   form,
		Errors: res.FieldErrors,
		State:  res.State,
	}
	if res.State == submission.StateSuccess {
		page.Form = validate.ConsultationForm{}
	}

	if err := render(ctx, rw, formStatus(res.State), "contact.html", page); err != nil {
		sh.log.Ctx(ctx).Errorw("SubmitContactPage", "error", err.Error())
	}
}

func formStatus(s submission.State) int {
	switch s {
	case submission.StateInvalid:
		return http.StatusUnprocessableEntity
	case submission.StateError:
		return http.StatusInternalServerError
	}
	return http.StatusOK
}
