// Package handler exposes the lead-capture service over HTTP.
package handler

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phbpx/haojia/auth"
	"github.com/phbpx/haojia/dashboard"
	"github.com/phbpx/haojia/mail"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riandyrn/otelchi"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

//go:embed templates
var templates embed.FS

var pages = template.Must(template.ParseFS(templates, "templates/*.html"))

// Config carries everything the router needs. All fields except
// SecureCookie are required.
type Config struct {
	ServiceName  string
	Log          *otelzap.SugaredLogger
	Ready        func(context.Context) error
	Auth         *auth.Authenticator
	Viewer       *dashboard.Viewer
	Relay        *mail.Relay
	Partner      PartnerFlow
	Consultation ConsultationFlow
	Location     *time.Location
	SecureCookie bool
}

func NewRouter(cfg Config) http.Handler {
	health := NewHealthHandler(cfg.Ready, cfg.Log)
	email := NewEmailHandler(cfg.Relay, cfg.Log)
	submissions := NewSubmissionHandler(cfg.Partner, cfg.Consultation, cfg.Log)
	sessions := NewAuthHandler(cfg.Auth, cfg.SecureCookie, cfg.Log)
	admin := NewAdminHandler(cfg.Viewer, cfg.Location, cfg.Log)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(otelchi.Middleware(cfg.ServiceName, otelchi.WithChiRoutes(r)))

	r.Get("/health", health.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/partner", submissions.PartnerPage)
	r.Post("/partner", submissions.SubmitPartnerPage)
	r.Get("/contact", submissions.ContactPage)
	r.Post("/contact", submissions.SubmitContactPage)

	r.Get("/login", sessions.LoginPage)
	r.Post("/login", sessions.Login)

	r.Route("/admin", func(r chi.Router) {
		r.Use(sessions.RequirePage)
		r.Get("/", admin.Dashboard)
		r.Post("/logout", sessions.Logout)
	})

	r.Route("/api", func(r chi.Router) {
		r.HandleFunc("/email", email.Send)

		r.Post("/partner-applications", submissions.CreatePartnerApplication)
		r.Post("/consultations", submissions.CreateConsultation)

		r.Post("/auth/login", sessions.APILogin)
		r.Post("/auth/logout", sessions.APILogout)

		r.With(sessions.RequireAPI).Get("/admin/records", admin.Records)
	})

	return r
}
