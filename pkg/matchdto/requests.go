package matchdto

// DropRequest is the body of POST /api/matches/{id}/moves.
type DropRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// Health is the body of GET /healthz.
type Health struct {
	Status  string `json:"status"`
	Matches int    `json:"matches"`
}
