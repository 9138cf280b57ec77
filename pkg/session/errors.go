package session

import (
	"context"
	"errors"

	apperrors "github.com/matzehuels/loggraph/pkg/errors"
	"github.com/matzehuels/loggraph/pkg/graph"
	"github.com/matzehuels/loggraph/pkg/graph/build"
	gio "github.com/matzehuels/loggraph/pkg/io"
	"github.com/matzehuels/loggraph/pkg/printcell"
)

// ErrNotFound is returned by the registry for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// classify maps library errors to coded errors. Errors that are already
// coded pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var coded *apperrors.Error
	if errors.As(err, &coded) {
		return err
	}

	switch {
	case errors.Is(err, build.ErrParentBeforeChild),
		errors.Is(err, build.ErrLogIndexOrder):
		return apperrors.Wrap(apperrors.ErrCodeOrderViolation, err, "records out of order")
	case errors.Is(err, build.ErrEmptyHash),
		errors.Is(err, build.ErrSelfParent),
		errors.Is(err, build.ErrDuplicateCommit),
		errors.Is(err, gio.ErrMalformedLine):
		return apperrors.Wrap(apperrors.ErrCodeInvalidRecord, err, "invalid record")
	case errors.Is(err, printcell.ErrRowOutOfRange),
		errors.Is(err, graph.ErrRowOutOfRange):
		return apperrors.Wrap(apperrors.ErrCodeRowOutOfRange, err, "row out of range")
	case errors.Is(err, graph.ErrUnknownNode):
		return apperrors.Wrap(apperrors.ErrCodeNodeNotFound, err, "node not found")
	case errors.Is(err, ErrNotFound):
		return apperrors.Wrap(apperrors.ErrCodeSessionNotFound, err, "session not found")
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(apperrors.ErrCodeCanceled, err, "operation canceled")
	}
	return apperrors.Wrap(apperrors.ErrCodeInternal, err, "internal error")
}
