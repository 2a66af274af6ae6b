package entity

type Player struct {
	ID     string `json:"id"`
	GameID string `json:"game_id,omitempty"`
}

// Result is the record kept for a game that reached a terminal status.
type Result struct {
	PlayerID  string `json:"player_id"`
	GameID    string `json:"game_id"`
	Layout    string `json:"layout"`
	Status    Status `json:"status"`
	Remaining int    `json:"remaining"`
	Moves     int    `json:"moves"`
	Elapsed   int    `json:"elapsed"`
}
