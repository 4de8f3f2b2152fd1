package erp

import (
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/tallyforge/erpd/internal/audit"
	"github.com/tallyforge/erpd/internal/config"
	"github.com/tallyforge/erpd/internal/frappe"
	"github.com/tallyforge/erpd/internal/logging"
	"github.com/tallyforge/erpd/internal/result"
)

const instrumentationName = "github.com/tallyforge/erpd/internal/erp"

// Fixed auth gate messages. These are part of the public contract;
// callers and tests match codes, but the texts must not drift either.
const (
	msgNotAuthenticated = "Not authenticated. Please call erp.auth.connect first."
	msgConfigNotFound   = "Authentication configuration not found"
	msgNoClient         = "No authenticated client available"
)

// Session is the capability the operation layer reads on every invocation.
// The pipeline never mutates it; connect and disconnect belong to its
// owner. Accessors may report inconsistent states (authenticated without a
// client) and the gate checks them in a fixed order.
type Session interface {
	IsAuthenticated() bool
	Config() *config.ERPConfig
	Client() *frappe.Client
}

// Service executes validated remote operations against one ERP backend.
// Safe for concurrent use: all per-invocation state lives on the stack.
type Service struct {
	session Session
	logger  *logging.Logger
	audit   audit.Recorder
	tracer  trace.Tracer
}

// NewService wires the operation layer to its collaborators. The audit
// recorder and logger may be nil; nops are substituted.
func NewService(session Session, logger *logging.Logger, recorder audit.Recorder) (*Service, error) {
	if session == nil {
		return nil, errors.New("session capability is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &Service{
		session: session,
		logger:  logger,
		audit:   recorder,
		tracer:  otel.Tracer(instrumentationName),
	}, nil
}

// opContext is the resolved per-invocation execution context. It is built
// by the gate, used by stage three, and never cached across invocations.
type opContext struct {
	client *frappe.Client
	cfg    *config.ERPConfig
}

// checkAuth is the pipeline's first stage. The three failure branches are
// checked in order and all map to AUTH_FAILED with their fixed message.
func (s *Service) checkAuth() (*opContext, *result.ErrorInfo) {
	if !s.session.IsAuthenticated() {
		return nil, result.Errorf(result.AuthFailed, "%s", msgNotAuthenticated)
	}
	cfg := s.session.Config()
	if cfg == nil {
		return nil, result.Errorf(result.AuthFailed, "%s", msgConfigNotFound)
	}
	client := s.session.Client()
	if client == nil {
		return nil, result.Errorf(result.AuthFailed, "%s", msgNoClient)
	}
	return &opContext{client: client, cfg: cfg}, nil
}
