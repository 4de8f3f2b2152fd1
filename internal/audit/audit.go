// Package audit publishes one event per completed remote operation. Events
// carry outcome metadata only — never payload bodies or credentials — and
// publishing is fire-and-forget: a failed publish is logged and the
// operation's result is unaffected.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/tallyforge/erpd/internal/logging"
)

// subjectPrefix namespaces audit subjects; the operation name completes
// the subject, e.g. erp.audit.lead_create.
const subjectPrefix = "erp.audit."

// Event records the outcome of one operation invocation.
type Event struct {
	ID         string    `json:"id"`
	Operation  string    `json:"operation"`
	Resource   string    `json:"resource,omitempty"`
	OK         bool      `json:"ok"`
	Code       string    `json:"code,omitempty"`
	Message    string    `json:"message,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	At         time.Time `json:"at"`
}

// Recorder receives one event per completed operation. Implementations must
// not block the caller on delivery and must not fail the operation.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// NopRecorder discards events. Used when no audit sink is configured.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(context.Context, Event) {}

// Publisher sends events to NATS, one subject per operation name.
type Publisher struct {
	conn   *nats.Conn
	logger *logging.Logger
}

// NewPublisher creates a NATS-backed recorder.
func NewPublisher(conn *nats.Conn, logger *logging.Logger) (*Publisher, error) {
	if conn == nil {
		return nil, errors.New("nats connection is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Publisher{conn: conn, logger: logger}, nil
}

// Record publishes the event. Missing ID and timestamp are filled in here
// so callers only describe the outcome.
func (p *Publisher) Record(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn(ctx, "audit event marshal failed",
			zap.String("operation", event.Operation),
			zap.Error(err),
		)
		return
	}

	if err := p.conn.Publish(subjectPrefix+event.Operation, data); err != nil {
		p.logger.Warn(ctx, "audit publish failed",
			zap.String("operation", event.Operation),
			zap.Error(err),
		)
	}
}
