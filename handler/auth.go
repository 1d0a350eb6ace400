package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/phbpx/haojia/auth"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

// SessionCookie carries the session token for browser pages.
const SessionCookie = "haojia_session"

type ctxKey int

const sessionKey ctxKey = 1

// sessionFrom returns the session stored by one of the guards.
func sessionFrom(ctx context.Context) (auth.Session, bool) {
	s, ok := ctx.Value(sessionKey).(auth.Session)
	return s, ok
}

// token returns the bearer token, falling back to the session cookie.
func token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if t, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(t)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

type AuthHandler struct {
	auth         *auth.Authenticator
	secureCookie bool
	log          *otelzap.SugaredLogger
}

func NewAuthHandler(a *auth.Authenticator, secureCookie bool, log *otelzap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		auth:         a,
		secureCookie: secureCookie,
		log:          log,
	}
}

// RequirePage sends visitors without a session to the sign-in page.
func (ah AuthHandler) RequirePage(next http.Handler) http.Handler {
	return ah.require(next, func(rw http.ResponseWriter, r *http.Request) {
		http.Redirect(rw, r, "/login", http.StatusFound)
	})
}

// RequireAPI rejects requests without a session with 401.
func (ah AuthHandler) RequireAPI(next http.Handler) http.Handler {
	return ah.require(next, func(rw http.ResponseWriter, r *http.Request) {
		respondErr(r.Context(), rw, http.StatusUnauthorized, "unauthorized")
	})
}

func (ah AuthHandler) require(next http.Handler, deny http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		s, err := ah.auth.Session(ctx, token(r))
		if err != nil {
			if !errors.Is(err, auth.ErrNoSession) {
				ah.log.Ctx(ctx).Errorw("require", "status", "checking session", "error", err.Error())
			}
			deny(rw, r)
			return
		}

		next.ServeHTTP(rw, r.WithContext(context.WithValue(ctx, sessionKey, s)))
	})
}

type loginPage struct {
	Email string
	Error string
}

func (ah AuthHandler) LoginPage(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, err := ah.auth.Session(ctx, token(r)); err == nil {
		http.Redirect(rw, r, "/admin", http.StatusSeeOther)
		return
	}

	if err := render(ctx, rw, http.StatusOK, "login.html", loginPage{}); err != nil {
		ah.log.Ctx(ctx).Errorw("LoginPage", "error", err.Error())
	}
}

func (ah AuthHandler) Login(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		ah.log.Ctx(ctx).Warnw("Login", "status", "parsing form", "error", err.Error())
	}
	email := strings.TrimSpace(r.PostFormValue("email"))

	tok, s, err := ah.auth.SignIn(ctx, email, r.PostFormValue("password"))
	if err != nil {
		page := loginPage{Email: email, Error: "邮箱或密码错误"}
		status := http.StatusUnauthorized
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			ah.log.Ctx(ctx).Errorw("Login", "error", err.Error())
			page.Error = "登录失败，请稍后重试"
			status = http.StatusInternalServerError
		}
		if err := render(ctx, rw, status, "login.html", page); err != nil {
			ah.log.Ctx(ctx).Errorw("Login", "error", err.Error())
		}
		return
	}

	ah.log.Ctx(ctx).Infow("Login", "status", "signed in", "id", s.OperatorID)
	http.SetCookie(rw, ah.cookie(tok, s.ExpiresAt))
	http.Redirect(rw, r, "/admin", http.StatusSeeOther)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (ah AuthHandler) APILogin(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decode(r, &req); err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, "invalid request body")
		return
	}

	tok, s, err := ah.auth.SignIn(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondErr(ctx, rw, http.StatusUnauthorized, err.Error())
			return
		}
		ah.log.Ctx(ctx).Errorw("APILogin", "error", err.Error())
		respondErr(ctx, rw, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	respond(ctx, rw, http.StatusOK, loginResponse{Token: tok, ExpiresAt: s.ExpiresAt})
}

// Logout ends the session and always lands on the sign-in page.
func (ah AuthHandler) Logout(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := ah.auth.SignOut(ctx, token(r)); err != nil {
		ah.log.Ctx(ctx).Errorw("Logout", "error", err.Error())
	}

	http.SetCookie(rw, ah.cookie("", time.Unix(0, 0)))
	http.Redirect(rw, r, "/login", http.StatusSeeOther)
}

func (ah AuthHandler) APILogout(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := ah.auth.SignOut(ctx, token(r)); err != nil {
		ah.log.Ctx(ctx).Errorw("APILogout", "error", err.Error())
		respondErr(ctx, rw, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	respond(ctx, rw, http.StatusNoContent, nil)
}

func (ah AuthHandler) cookie(value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   ah.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		c.MaxAge = -1
	}
	return c
}
