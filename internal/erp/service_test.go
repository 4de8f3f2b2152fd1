package erp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zapcore"

	"github.com/tallyforge/erpd/internal/audit"
	"github.com/tallyforge/erpd/internal/config"
	"github.com/tallyforge/erpd/internal/frappe"
	"github.com/tallyforge/erpd/internal/logging"
	"github.com/tallyforge/erpd/internal/result"
)

// fakeSession satisfies the Session capability with settable state so the
// gate's branches can be driven one by one, including the inconsistent
// states a real manager never produces.
type fakeSession struct {
	authenticated bool
	cfg           *config.ERPConfig
	client        *frappe.Client
}

func (f *fakeSession) IsAuthenticated() bool     { return f.authenticated }
func (f *fakeSession) Config() *config.ERPConfig { return f.cfg }
func (f *fakeSession) Client() *frappe.Client    { return f.client }

// memoryRecorder captures audit events for assertions.
type memoryRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (m *memoryRecorder) Record(_ context.Context, event audit.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *memoryRecorder) all() []audit.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audit.Event(nil), m.events...)
}

// newBackendClient builds a frappe client pointed at a test backend.
func newBackendClient(t *testing.T, handler http.Handler) *frappe.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := frappe.New(frappe.Config{
		BaseURL:   srv.URL,
		APIKey:    "key",
		APISecret: "secret",
	})
	require.NoError(t, err)
	return client
}

// newClosableService exposes the backing server so tests can stop it and
// exercise connection-level failures.
func newClosableService(t *testing.T) (*httptest.Server, *Service) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(srv.Close)

	client, err := frappe.New(frappe.Config{
		BaseURL:   srv.URL,
		APIKey:    "key",
		APISecret: "secret",
	})
	require.NoError(t, err)

	svc, err := NewService(&fakeSession{
		authenticated: true,
		cfg:           &config.ERPConfig{BaseURL: srv.URL},
		client:        client,
	}, logging.NewNop(), nil)
	require.NoError(t, err)
	return srv, svc
}

// newTestService wires a Service to an authenticated fake session backed by
// the given test backend.
func newTestService(t *testing.T, handler http.Handler) *Service {
	t.Helper()

	client := newBackendClient(t, handler)
	svc, err := NewService(&fakeSession{
		authenticated: true,
		cfg:           &config.ERPConfig{BaseURL: client.BaseURL()},
		client:        client,
	}, logging.NewNop(), nil)
	require.NoError(t, err)
	return svc
}

func TestNewService(t *testing.T) {
	t.Run("requires_session", func(t *testing.T) {
		_, err := NewService(nil, logging.NewNop(), audit.NopRecorder{})
		assert.Error(t, err)
	})

	t.Run("substitutes_nops", func(t *testing.T) {
		svc, err := NewService(&fakeSession{}, nil, nil)
		require.NoError(t, err)
		assert.NotNil(t, svc.logger)
		assert.NotNil(t, svc.audit)
	})
}

func TestAuthGate(t *testing.T) {
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	})
	client := newBackendClient(t, handler)
	cfg := &config.ERPConfig{BaseURL: client.BaseURL()}

	tests := []struct {
		name    string
		session *fakeSession
		wantMsg string
	}{
		{
			name:    "not_authenticated",
			session: &fakeSession{},
			wantMsg: "Not authenticated. Please call erp.auth.connect first.",
		},
		{
			name:    "authenticated_without_config",
			session: &fakeSession{authenticated: true, client: client},
			wantMsg: "Authentication configuration not found",
		},
		{
			name:    "configured_without_client",
			session: &fakeSession{authenticated: true, cfg: cfg},
			wantMsg: "No authenticated client available",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(tt.session, logging.NewNop(), nil)
			require.NoError(t, err)

			res := svc.AddComment(context.Background(), "Customer", "CUST-0001", "hello")
			require.False(t, res.OK)
			require.NotNil(t, res.Err)
			assert.Equal(t, result.AuthFailed, res.Err.Code)
			assert.Equal(t, tt.wantMsg, res.Err.Message)
			assert.Zero(t, calls, "gate failure must not reach the backend")
		})
	}
}

func TestAuthGateRunsBeforeValidation(t *testing.T) {
	svc, err := NewService(&fakeSession{}, logging.NewNop(), nil)
	require.NoError(t, err)

	// Both the gate and validation would reject this call; the gate wins.
	res := svc.AddComment(context.Background(), "", "", "")
	require.NotNil(t, res.Err)
	assert.Equal(t, result.AuthFailed, res.Err.Code)
}

func TestSafeCallRecoversPanic(t *testing.T) {
	tests := []struct {
		name    string
		panicky func(context.Context, *opContext) (string, *result.ErrorInfo)
		wantMsg string
	}{
		{
			name: "string_panic",
			panicky: func(context.Context, *opContext) (string, *result.ErrorInfo) {
				panic("stage three exploded")
			},
			wantMsg: "stage three exploded",
		},
		{
			name: "error_panic",
			panicky: func(context.Context, *opContext) (string, *result.ErrorInfo) {
				panic(assert.AnError)
			},
			wantMsg: assert.AnError.Error(),
		},
		{
			name: "value_panic",
			panicky: func(context.Context, *opContext) (string, *result.ErrorInfo) {
				panic(42)
			},
			wantMsg: "42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := safeCall(context.Background(), &opContext{}, tt.panicky)
			require.False(t, res.OK)
			require.NotNil(t, res.Err)
			assert.Equal(t, result.FieldError, res.Err.Code)
			assert.Equal(t, tt.wantMsg, res.Err.Message)
		})
	}
}

func TestRunRecordsPanicOutcome(t *testing.T) {
	logger := logging.NewTestLogger()
	recorder := &memoryRecorder{}

	client := newBackendClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	svc, err := NewService(&fakeSession{
		authenticated: true,
		cfg:           &config.ERPConfig{BaseURL: client.BaseURL()},
		client:        client,
	}, logger.Logger, recorder)
	require.NoError(t, err)

	op := opInfo{name: "doc_replace_table", action: "update", resource: "Customer"}
	res := run(context.Background(), svc, op, nil, func(context.Context, *opContext) (string, *result.ErrorInfo) {
		panic("nil map write")
	})

	require.False(t, res.OK)
	assert.Equal(t, result.FieldError, res.Err.Code)
	assert.Equal(t, "nil map write", res.Err.Message)

	logger.AssertLogged(t, zapcore.WarnLevel, "operation failed")

	events := recorder.all()
	require.Len(t, events, 1)
	assert.Equal(t, "doc_replace_table", events[0].Operation)
	assert.False(t, events[0].OK)
	assert.Equal(t, "FIELD_ERROR", events[0].Code)
	assert.Equal(t, "nil map write", events[0].Message)
}

func TestRunTracesOperations(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(provider)
	defer otel.SetTracerProvider(sdktrace.NewTracerProvider())

	// The tracer is captured at construction, so the provider must be
	// installed before the service exists.
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"ok"}`))
	}))

	res := svc.AddComment(context.Background(), "Customer", "CUST-0001", "checking in")
	require.True(t, res.OK)

	res2 := svc.AddComment(context.Background(), "Customer", "CUST-0001", "")
	require.False(t, res2.OK)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "erp.comment_add", spans[0].Name())

	var resource, action string
	for _, attr := range spans[0].Attributes() {
		switch attr.Key {
		case "erp.resource":
			resource = attr.Value.AsString()
		case "erp.action":
			action = attr.Value.AsString()
		}
	}
	assert.Equal(t, "Customer", resource)
	assert.Equal(t, "comment on", action)

	// The failed call carries the domain code and an error status.
	var code string
	for _, attr := range spans[1].Attributes() {
		if attr.Key == "erp.code" {
			code = attr.Value.AsString()
		}
	}
	assert.Equal(t, "FIELD_ERROR", code)
	assert.NotEmpty(t, spans[1].Events(), "failed span should record the error")
}

func TestRunEmitsOneRecordPerInvocation(t *testing.T) {
	logger := logging.NewTestLogger()
	recorder := &memoryRecorder{}

	client := newBackendClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"ok"}`))
	}))
	svc, err := NewService(&fakeSession{
		authenticated: true,
		cfg:           &config.ERPConfig{BaseURL: client.BaseURL()},
		client:        client,
	}, logger.Logger, recorder)
	require.NoError(t, err)

	res := svc.AddComment(context.Background(), "Customer", "CUST-0001", "checking in")
	require.True(t, res.OK)

	logger.AssertLogged(t, zapcore.InfoLevel, "operation completed")
	assert.Len(t, logger.FilterMessage("operation completed").All(), 1)

	events := recorder.all()
	require.Len(t, events, 1)
	assert.Equal(t, "comment_add", events[0].Operation)
	assert.Equal(t, "Customer", events[0].Resource)
	assert.True(t, events[0].OK)
	assert.Empty(t, events[0].Code)

	// A failed invocation also yields exactly one record and one event.
	logger.Reset()
	res2 := svc.AddComment(context.Background(), "Customer", "CUST-0001", "")
	require.False(t, res2.OK)
	assert.Equal(t, result.FieldError, res2.Err.Code)
	assert.Equal(t, "comment is required", res2.Err.Message)

	logger.AssertLogged(t, zapcore.WarnLevel, "operation failed")
	assert.Len(t, logger.FilterMessage("operation failed").All(), 1)

	events = recorder.all()
	require.Len(t, events, 2)
	assert.Equal(t, "FIELD_ERROR", events[1].Code)
	assert.Equal(t, "comment is required", events[1].Message)
}
