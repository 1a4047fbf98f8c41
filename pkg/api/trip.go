package api

type CreateTripRequest struct {
	Name     string   `json:"name"`
	Currency string   `json:"currency"`
	Budget   float64  `json:"budget,omitempty"`
	Members  []Member `json:"members"`
}

type CreateTripResponse struct {
	Trip Trip `json:"trip"`
}

type GetTripRequest struct {
	TripID string `json:"trip_id"`
}

type GetTripResponse struct {
	Trip Trip `json:"trip"`
}

type ListTripsRequest struct{}

type ListTripsResponse struct {
	Trips []Trip `json:"trips"`
}

type UpdateTripRequest struct {
	TripID   string  `json:"trip_id"`
	Name     string  `json:"name"`
	Currency string  `json:"currency"`
	Budget   float64 `json:"budget,omitempty"`
}

type UpdateTripResponse struct {
	Trip Trip `json:"trip"`
}

// AddMembersRequest appends members to a roster. A member without a name
// takes the display name of the account with the same ID.
type AddMembersRequest struct {
	TripID  string   `json:"trip_id"`
	Members []Member `json:"members"`
}

type AddMembersResponse struct {
	Trip Trip `json:"trip"`
}

type DeleteTripRequest struct {
	TripID string `json:"trip_id"`
}

type DeleteTripResponse struct{}
