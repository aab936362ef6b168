package matchdto

// View is the projection the board renderer consumes.
type View struct {
	MatchID      string     `json:"matchId"`
	FEN          string     `json:"fen"`
	Board        [][]string `json:"board"`
	Selected     string     `json:"selected,omitempty"`
	Destinations []string   `json:"destinations"`
	Status       string     `json:"status"`
	Busy         bool       `json:"busy"`
	Terminal     bool       `json:"terminal"`
	Retryable    bool       `json:"retryable"`
	HumanColor   string     `json:"humanColor"`
	SideToMove   string     `json:"sideToMove"`
	Turn         string     `json:"turn"`
	Phase        string     `json:"phase"`
	InCheck      bool       `json:"inCheck"`
	Outcome      Outcome    `json:"outcome"`
	Moves        []Move     `json:"moves"`
	Pairs        []string   `json:"pairs"`
	Notation     string     `json:"notation"`
	LastMove     *Move      `json:"lastMove,omitempty"`
	Notice       *Notice    `json:"notice,omitempty"`
	Analysis     *Analysis  `json:"analysis,omitempty"`
}

type Outcome struct {
	Kind   string `json:"kind"`
	Winner string `json:"winner,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type Move struct {
	Ply       int    `json:"ply"`
	Side      string `json:"side"`
	SAN       string `json:"san"`
	UCI       string `json:"uci"`
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
	By        string `json:"by"`
}

type Notice struct {
	Kind        string `json:"kind"`
	Text        string `json:"text"`
	Recoverable bool   `json:"recoverable,omitempty"`
}

type Analysis struct {
	White string `json:"whiteSummary"`
	Black string `json:"blackSummary"`
}
