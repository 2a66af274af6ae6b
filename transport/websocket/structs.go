package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/marble-board/internal/entity"
	"github.com/rocketscienceinc/marble-board/transport/view"
)

const (
	actionConnect = "connect"
	actionClick   = "game:click"
	actionUndo    = "game:undo"
	actionRedo    = "game:redo"
	actionReset   = "game:reset"
	actionTick    = "game:tick"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RequestPayload struct {
	Player *entity.Player   `json:"player,omitempty"`
	Cell   *entity.Position `json:"cell,omitempty"`
}

type ResponsePayload struct {
	Player *entity.Player `json:"player,omitempty"`
	Game   *view.Game     `json:"game,omitempty"`
	Error  string         `json:"error,omitempty"`
}
