package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexvite/curriculum-vitae/internal/domain"
	"github.com/alexvite/curriculum-vitae/internal/pkg/ctxlog"
)

// ErrorMapping defines how a domain error maps to an HTTP response.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string // if empty, uses the domain error's message
}

// kindMappings is consulted after handler-specific mappings.
var kindMappings = []ErrorMapping{
	{Error: domain.ErrNotFound, Status: http.StatusNotFound},
	{Error: domain.ErrUnauthorized, Status: http.StatusUnauthorized},
	{Error: domain.ErrForbidden, Status: http.StatusForbidden},
	{Error: domain.ErrValidation, Status: http.StatusBadRequest},
	{Error: domain.ErrConflict, Status: http.StatusConflict},
}

// HandleError maps err to an HTTP response. Handler-specific mappings win over
// the domain error kinds; anything unmapped is logged and returned as 500.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings ...ErrorMapping) {
	for _, table := range [][]ErrorMapping{mappings, kindMappings} {
		for _, m := range table {
			if errors.Is(err, m.Error) {
				Error(w, m.Status, clientMessage(err, m.Message))
				return
			}
		}
	}
	ctxlog.FromContext(ctx).Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}

// clientMessage returns the message safe to show to the caller. Wrap prefixes
// added on the way up are dropped in favour of the domain error's own message.
func clientMessage(err error, override string) string {
	if override != "" {
		return override
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
