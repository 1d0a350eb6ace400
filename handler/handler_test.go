package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/phbpx/haojia"
	"github.com/phbpx/haojia/auth"
	"github.com/phbpx/haojia/dashboard"
	"github.com/phbpx/haojia/mail"
	"github.com/phbpx/haojia/notify"
	"github.com/phbpx/haojia/submission"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap/zaptest"
)

const (
	operatorEmail    = "admin@haojia.example"
	operatorPassword = "correct horse"
)

type appStore struct {
	mu      sync.Mutex
	apps    []haojia.PartnerApplication
	err     error
	creates int
	queries int
}

func (s *appStore) Create(_ context.Context, app haojia.PartnerApplication) (haojia.PartnerApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creates++
	if s.err != nil {
		return haojia.PartnerApplication{}, s.err
	}
	app.ID = uuid.NewString()
	app.Status = haojia.ApplicationPending
	app.CreatedAt = time.Now().UTC()
	s.apps = append([]haojia.PartnerApplication{app}, s.apps...)
	return app, nil
}

func (s *appStore) QueryAll(context.Context) ([]haojia.PartnerApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries++
	if s.err != nil {
		return nil, s.err
	}
	return append([]haojia.PartnerApplication(nil), s.apps...), nil
}

type consultationStore struct {
	mu      sync.Mutex
	cons    []haojia.Consultation
	err     error
	creates int
	queries int
}

func (s *consultationStore) Create(_ context.Context, c haojia.Consultation) (haojia.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creates++
	if s.err != nil {
		return haojia.Consultation{}, s.err
	}
	c.ID = uuid.NewString()
	c.Status = haojia.ConsultationNew
	c.CreatedAt = time.Now().UTC()
	s.cons = append([]haojia.Consultation{c}, s.cons...)
	return c, nil
}

func (s *consultationStore) QueryAll(context.Context) ([]haojia.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries++
	if s.err != nil {
		return nil, s.err
	}
	return append([]haojia.Consultation(nil), s.cons...), nil
}

type operatorStore map[string]haojia.Operator

func (s operatorStore) Create(_ context.Context, op haojia.Operator) error {
	s[op.Email] = op
	return nil
}

func (s operatorStore) QueryByEmail(_ context.Context, email string) (haojia.Operator, error) {
	op, ok := s[email]
	if !ok {
		return haojia.Operator{}, haojia.ErrOperatorNotFound
	}
	return op, nil
}

type transport struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (t *transport) Send(_ context.Context, _, _ string, msg mail.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.err != nil {
		return t.err
	}
	t.sent = append(t.sent, msg)
	return nil
}

func (t *transport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

type env struct {
	handler   http.Handler
	apps      *appStore
	cons      *consultationStore
	transport *transport
	readyErr  error
}

func newEnv(t *testing.T, mailCfg mail.Config) *env {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	log := otelzap.New(zaptest.NewLogger(t)).Sugar()

	hash, err := auth.HashPassword(operatorPassword)
	require.NoError(t, err)
	ops := operatorStore{operatorEmail: {ID: uuid.NewString(), Email: operatorEmail, PasswordHash: hash}}

	e := &env{
		apps:      &appStore{},
		cons:      &consultationStore{},
		transport: &transport{},
	}

	relay := mail.NewRelay(mailCfg, e.transport, log)
	authn := auth.New(auth.Config{Secret: "test-secret", TTL: time.Hour, Issuer: "haojia"}, ops, auth.NewRedisRevoker(rdb))
	viewer := dashboard.NewViewer(e.apps, e.cons, dashboard.NewRedisSnapshots(rdb), log)

	e.handler = NewRouter(Config{
		ServiceName:  "haojia-test",
		Log:          log,
		Ready:        func(context.Context) error { return e.readyErr },
		Auth:         authn,
		Viewer:       viewer,
		Relay:        relay,
		Partner:      submission.Partner(e.apps, notify.NewPartner(relay, time.UTC), log),
		Consultation: submission.Consultation(e.cons, log),
		Location:     time.UTC,
	})

	return e
}

var configured = mail.Config{User: "bot@qq.com", Password: "auth-code", Recipient: "sales@haojia.example"}

func (e *env) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

// signIn returns the session cookie of a fresh form sign-in.
func (e *env) signIn(t *testing.T) *http.Cookie {
	t.Helper()

	rec := e.do(formRequest("/login", url.Values{"email": {operatorEmail}, "password": {operatorPassword}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func httptestGet(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func newRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}
