package calculator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/tripledger/internal/models"
)

// Epsilon is the tolerance, in currency units, below which an amount is treated as zero.
const Epsilon = 0.01

var (
	// ErrInvalidSplit is returned for splits that cannot be computed: an empty roster,
	// a negative amount or percentage, or custom percentages that do not sum to 100.
	ErrInvalidSplit = errors.New("invalid split")

	// ErrUnknownMember is returned when a payer or split reference is not on the roster.
	ErrUnknownMember = errors.New("unknown member")

	// ErrDuplicateMember is returned when the roster lists the same member ID twice.
	ErrDuplicateMember = errors.New("duplicate member")

	// ErrBalanceInvariant is returned when net balances do not sum to zero.
	// It points at a defect upstream and is never retryable.
	ErrBalanceInvariant = errors.New("balance invariant violation")
)

const (
	opComputeShares    = "compute shares"
	opAggregate        = "aggregate"
	opApplySettlements = "apply settlements"
	opPlan             = "plan"
)

// Error carries the context of a failed computation.
// It unwraps to one of the sentinel errors above.
type Error struct {
	Op        string
	ExpenseID string
	MemberID  string
	Reason    string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.ExpenseID != "" {
		fmt.Fprintf(&b, " (expense %s)", e.ExpenseID)
	}
	if e.MemberID != "" {
		fmt.Fprintf(&b, " (member %s)", e.MemberID)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// indexMembers builds an ID lookup for the roster, rejecting duplicate IDs.
func indexMembers(op string, members []models.Member) (map[string]models.Member, error) {
	index := make(map[string]models.Member, len(members))
	for _, m := range members {
		if _, exists := index[m.ID]; exists {
			return nil, &Error{Op: op, MemberID: m.ID, Err: ErrDuplicateMember}
		}
		index[m.ID] = m
	}
	return index, nil
}
