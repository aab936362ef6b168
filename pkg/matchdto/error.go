package matchdto

// DomainError is the wire form of a rejected request.
type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "match error"
}

// Error codes.
const (
	CodeBusy                = "busy"
	CodeGameOver            = "game_over"
	CodeNotYourTurn         = "not_your_turn"
	CodeNoSelection         = "no_selection"
	CodeIllegalMove         = "illegal_move"
	CodeInvalidSquare       = "invalid_square"
	CodeMatchNotFound       = "match_not_found"
	CodeTooManyMatches      = "too_many_matches"
	CodeAnalysisUnavailable = "analysis_unavailable"
	CodeBadRequest          = "bad_request"
	CodeInternal            = "internal"
)
