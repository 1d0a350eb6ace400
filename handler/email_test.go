package handler

import (
	"net/http"
	"testing"

	"github.com/phbpx/haojia/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailSend(t *testing.T) {
	tests := []struct {
		name    string
		cfg     mail.Config
		sendErr error
		method  string
		body    string
		status  int
		want    map[string]interface{}
		sent    int
	}{
		{
			name:   "sent",
			cfg:    configured,
			method: http.MethodPost,
			body:   `{"subject":"【新申请】","html":"<p>hi</p>"}`,
			status: http.StatusOK,
			want:   map[string]interface{}{"success": true},
			sent:   1,
		},
		{
			name:   "get is rejected before anything else",
			method: http.MethodGet,
			status: http.StatusMethodNotAllowed,
			want:   map[string]interface{}{"error": "Method not allowed"},
		},
		{
			name:   "put with a valid body",
			cfg:    configured,
			method: http.MethodPut,
			body:   `{"subject":"s","html":"<p>x</p>"}`,
			status: http.StatusMethodNotAllowed,
			want:   map[string]interface{}{"error": "Method not allowed"},
		},
		{
			name:   "missing html",
			cfg:    configured,
			method: http.MethodPost,
			body:   `{"subject":"s"}`,
			status: http.StatusBadRequest,
			want:   map[string]interface{}{"error": "Missing required fields"},
		},
		{
			name:   "undecodable body",
			cfg:    configured,
			method: http.MethodPost,
			body:   `{"subject":`,
			status: http.StatusBadRequest,
			want:   map[string]interface{}{"error": "Missing required fields"},
		},
		{
			name:   "missing fields win over missing credentials",
			method: http.MethodPost,
			body:   `{}`,
			status: http.StatusBadRequest,
			want:   map[string]interface{}{"error": "Missing required fields"},
		},
		{
			name:   "missing credentials",
			cfg:    mail.Config{User: "bot@qq.com"},
			method: http.MethodPost,
			body:   `{"subject":"s","html":"<p>x</p>"}`,
			status: http.StatusInternalServerError,
			want:   map[string]interface{}{"error": "Server configuration error"},
		},
		{
			name:    "transport failure",
			cfg:     configured,
			sendErr: assert.AnError,
			method:  http.MethodPost,
			body:    `{"subject":"s","html":"<p>x</p>"}`,
			status:  http.StatusInternalServerError,
			want:    map[string]interface{}{"error": "Failed to send email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, tt.cfg)
			e.transport.err = tt.sendErr

			rec := e.do(jsonRequest(tt.method, "/api/email", tt.body))

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.want, decodeBody(t, rec))
			assert.Equal(t, tt.sent, e.transport.count())
		})
	}
}

func TestEmailSendMessage(t *testing.T) {
	e := newEnv(t, configured)

	rec := e.do(jsonRequest(http.MethodPost, "/api/email", `{"subject":"测试","html":"<b>正文</b>"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, e.transport.sent, 1)
	msg := e.transport.sent[0]
	assert.Equal(t, "测试", msg.Subject)
	assert.Equal(t, "<b>正文</b>", msg.HTML)
	assert.Equal(t, "sales@haojia.example", msg.To)
	assert.Equal(t, "bot@qq.com", msg.From.Address)
	assert.Equal(t, mail.DefaultFromName, msg.From.Name)
}
