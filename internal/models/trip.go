package models

// Member is one person on a trip roster.
type Member struct {
	// ID is the member identifier. For registered users this is the user ID.
	ID string

	// Name is the display name shown next to payments.
	Name string
}

// Trip represents a shared trip: its roster and budget.
type Trip struct {
	// ID is the unique identifier for the trip (UUID format).
	ID string

	// Name is the display name of the trip (e.g., "Lisbon 2026").
	Name string

	// Currency is the ISO currency code all expenses are logged in.
	// No conversion happens anywhere; mixed currencies are not supported.
	Currency string

	// Budget is the planned total spend. Zero means no budget is set.
	Budget float64

	// Members is the trip roster, in the order members were added.
	Members []Member

	// CreatedAt is the Unix timestamp when the trip was created.
	CreatedAt int64
}

// HasMember reports whether id is on the roster.
func (t *Trip) HasMember(id string) bool {
	for _, m := range t.Members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// MemberIDs returns the roster IDs in roster order.
func (t *Trip) MemberIDs() []string {
	ids := make([]string, len(t.Members))
	for i, m := range t.Members {
		ids[i] = m.ID
	}
	return ids
}
