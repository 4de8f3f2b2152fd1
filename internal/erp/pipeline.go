package erp

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/tallyforge/erpd/internal/audit"
	"github.com/tallyforge/erpd/internal/result"
	"github.com/tallyforge/erpd/internal/validate"
)

// run executes the fixed four-stage pipeline shared by every operation:
// auth gate, ordered validation, transport call, and success extraction or
// error translation (the call closure performs stages three and four and
// returns either the typed payload or an already-translated error).
// Stages are strictly sequential with no retries; the first failure is
// terminal and propagates unchanged. One completion record is logged and
// one audit event emitted per invocation, whatever the outcome.
func run[T any](ctx context.Context, s *Service, op opInfo, checks []validate.Check, call func(context.Context, *opContext) (T, *result.ErrorInfo)) result.Result[T] {
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "erp."+op.name)
	defer span.End()
	span.SetAttributes(
		attribute.String("erp.resource", op.resource),
		attribute.String("erp.action", op.action),
	)

	var res result.Result[T]
	oc, errInfo := s.checkAuth()
	if errInfo == nil {
		errInfo = validate.First(checks...)
	}
	if errInfo != nil {
		res = result.Failure[T](errInfo)
	} else {
		res = safeCall(ctx, oc, call)
	}

	if res.Err != nil {
		span.SetAttributes(attribute.String("erp.code", string(res.Err.Code)))
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Message)
	}

	s.finish(ctx, op, res.OK, res.Err, time.Since(start))
	return res
}

// safeCall runs the transport closure under panic recovery: any panic
// converts to a FIELD_ERROR carrying the panic's message, so callers only
// ever observe the one failure channel.
func safeCall[T any](ctx context.Context, oc *opContext, call func(context.Context, *opContext) (T, *result.ErrorInfo)) (res result.Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = result.Failf[T](result.FieldError, "%s", panicMessage(r))
		}
	}()

	data, errInfo := call(ctx, oc)
	if errInfo != nil {
		return result.Failure[T](errInfo)
	}
	return result.Ok(data)
}

// panicMessage extracts the message text from a recovered panic value.
func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// finish emits the per-invocation completion record and audit event.
func (s *Service) finish(ctx context.Context, op opInfo, ok bool, errInfo *result.ErrorInfo, duration time.Duration) {
	fields := []zap.Field{
		zap.String("operation", op.name),
		zap.String("resource", op.resource),
		zap.Bool("ok", ok),
		zap.Duration("duration", duration),
	}

	event := audit.Event{
		Operation:  op.name,
		Resource:   op.resource,
		OK:         ok,
		DurationMS: duration.Milliseconds(),
	}

	if errInfo != nil {
		fields = append(fields,
			zap.String("code", string(errInfo.Code)),
			zap.String("error", errInfo.Message),
		)
		event.Code = string(errInfo.Code)
		event.Message = errInfo.Message
		s.logger.Warn(ctx, "operation failed", fields...)
	} else {
		s.logger.Info(ctx, "operation completed", fields...)
	}

	s.audit.Record(ctx, event)
}
