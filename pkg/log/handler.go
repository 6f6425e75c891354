package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	scierrors "github.com/YuminosukeSato/seqgrid/pkg/errors"
)

// ErrFmtHandler decorates records carrying an ErrAttr with the error's
// stacktrace and its kind (see ErrorKind).
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler wraps handler with an ErrFmtHandler.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{handler: handler}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var found error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		if err, ok := attr.Value.Any().(error); ok {
			found = err
		}
		return false
	})
	if found != nil {
		if st := extractStacktrace(found); st != "" {
			r.AddAttrs(slog.String(StacktraceAttrKey, st))
		}
		if kind := ErrorKind(found); kind != "" {
			r.AddAttrs(slog.String(ErrorKindAttrKey, kind))
		}
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

// ErrorKind classifies err by the first domain error found in its chain.
// It returns "" for errors outside the domain.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.HasType(err, (*scierrors.PanicError)(nil)):
		return "panic"
	case errors.HasType(err, (*scierrors.NumericalInstabilityError)(nil)):
		return "numerical"
	case errors.HasType(err, (*scierrors.InvalidSelectorError)(nil)):
		return "selector"
	case errors.HasType(err, (*scierrors.AlignmentError)(nil)):
		return "alignment"
	case errors.HasType(err, (*scierrors.RangeError)(nil)):
		return "range"
	case errors.HasType(err, (*scierrors.UnsupportedFormatError)(nil)):
		return "format"
	case errors.HasType(err, (*scierrors.DimensionError)(nil)):
		return "dimension"
	case errors.HasType(err, (*scierrors.ValidationError)(nil)), errors.HasType(err, (*scierrors.ValueError)(nil)):
		return "validation"
	case errors.HasType(err, (*scierrors.TrainingError)(nil)):
		return "training"
	}
	return ""
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
