package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type fakeTransport struct {
	calls    int
	user     string
	password string
	msg      Message
	err      error
}

func (f *fakeTransport) Send(_ context.Context, user, password string, msg Message) error {
	f.calls++
	f.user, f.password, f.msg = user, password, msg
	return f.err
}

func TestRelaySend(t *testing.T) {
	log := otelzap.New(zaptest.NewLogger(t)).Sugar()

	t.Run("delivers to recipient", func(t *testing.T) {
		tr := &fakeTransport{}
		r := NewRelay(Config{User: "bot@qq.com", Password: "secret", Recipient: "ops@qq.com"}, tr, log)

		require.NoError(t, r.Send(context.Background(), "新申请", "<p>hi</p>"))
		assert.Equal(t, 1, tr.calls)
		assert.Equal(t, "bot@qq.com", tr.user)
		assert.Equal(t, "secret", tr.password)
		assert.Equal(t, "ops@qq.com", tr.msg.To)
		assert.Equal(t, DefaultFromName, tr.msg.From.Name)
		assert.Equal(t, "bot@qq.com", tr.msg.From.Address)
		assert.Equal(t, "新申请", tr.msg.Subject)
		assert.Equal(t, "<p>hi</p>", tr.msg.HTML)
	})

	t.Run("recipient falls back to account", func(t *testing.T) {
		tr := &fakeTransport{}
		r := NewRelay(Config{User: "bot@qq.com", Password: "secret"}, tr, log)

		require.NoError(t, r.Send(context.Background(), "s", "h"))
		assert.Equal(t, "bot@qq.com", tr.msg.To)
	})

	t.Run("missing fields", func(t *testing.T) {
		tr := &fakeTransport{}
		r := NewRelay(Config{User: "bot@qq.com", Password: "secret"}, tr, log)

		assert.ErrorIs(t, r.Send(context.Background(), "s", ""), ErrMissingFields)
		assert.ErrorIs(t, r.Send(context.Background(), "", "h"), ErrMissingFields)
		assert.Zero(t, tr.calls)
	})

	t.Run("missing credentials", func(t *testing.T) {
		tr := &fakeTransport{}
		for _, cfg := range []Config{{User: "bot@qq.com"}, {Password: "secret"}, {}} {
			r := NewRelay(cfg, tr, log)
			assert.ErrorIs(t, r.Send(context.Background(), "s", "h"), ErrNotConfigured)
		}
		assert.Zero(t, tr.calls)
	})

	t.Run("transport failure", func(t *testing.T) {
		tr := &fakeTransport{err: assert.AnError}
		r := NewRelay(Config{User: "bot@qq.com", Password: "secret"}, tr, log)

		err := r.Send(context.Background(), "s", "h")
		assert.ErrorIs(t, err, ErrSendFailed)
		assert.Equal(t, 1, tr.calls)
	})
}

func TestRecipients(t *testing.T) {
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, recipients(" a@x.com, ,b@x.com"))
	assert.Nil(t, recipients(""))
}

func TestRelayLogsCarryTraceID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := otelzap.New(zap.New(core), otelzap.WithTraceIDField(true)).Sugar()

	ctx, span := sdktrace.NewTracerProvider().Tracer("mail").Start(context.Background(), "send")
	defer span.End()

	tr := &fakeTransport{err: assert.AnError}
	r := NewRelay(Config{User: "bot@qq.com", Password: "secret"}, tr, log)
	require.ErrorIs(t, r.Send(ctx, "s", "<p>x</p>"), ErrSendFailed)

	entries := logs.FilterMessage("relay").All()
	require.Len(t, entries, 1)
	assert.Equal(t, span.SpanContext().TraceID().String(), entries[0].ContextMap()["trace_id"])
}
