package service

import (
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/agnivade/levenshtein"

	"github.com/mmynk/tripledger/internal/calculator"
	"github.com/mmynk/tripledger/internal/models"
	"github.com/mmynk/tripledger/internal/storage"
)

var (
	errAuthRequired = errors.New("authentication required")
	errNotMember    = errors.New("you must be a member of this trip")
)

// maxSuggestionDistance bounds how different a roster ID may be from an
// unknown ID and still be suggested.
const maxSuggestionDistance = 3

// connectError maps domain and storage errors onto Connect codes.
// members is the trip roster, used to suggest a likely ID when a member is unknown.
func connectError(err error, members []models.Member) *connect.Error {
	var connectErr *connect.Error
	switch {
	case errors.As(err, &connectErr):
		return connectErr
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, calculator.ErrUnknownMember):
		var calcErr *calculator.Error
		if errors.As(err, &calcErr) {
			if hint := suggestMember(calcErr.MemberID, members); hint != "" {
				return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w (did you mean %q?)", err, hint))
			}
		}
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, calculator.ErrInvalidSplit), errors.Is(err, calculator.ErrDuplicateMember):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, calculator.ErrBalanceInvariant):
		return connect.NewError(connect.CodeInternal, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// suggestMember returns the roster ID closest to id, if any is close enough.
func suggestMember(id string, members []models.Member) string {
	if id == "" {
		return ""
	}
	best, bestDist := "", maxSuggestionDistance+1
	for _, m := range members {
		if d := levenshtein.ComputeDistance(id, m.ID); d < bestDist {
			best, bestDist = m.ID, d
		}
	}
	return best
}

func invalidArgument(format string, args ...any) *connect.Error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

// fail logs err and returns its Connect form.
func fail(logger *slog.Logger, msg string, err error, members []models.Member, attrs ...any) *connect.Error {
	cerr := connectError(err, members)
	attrs = append(attrs, "error", err, "code", cerr.Code())
	if cerr.Code() == connect.CodeInternal {
		logger.Error(msg, attrs...)
	} else {
		logger.Warn(msg, attrs...)
	}
	return cerr
}
