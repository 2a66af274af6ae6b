package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/marble-board/internal/timer"
)

const writeWait = 10 * time.Second

// connection is one client socket. Writes come from the read loop and the timer, so they are serialised.
type connection struct {
	conn  *websocket.Conn
	timer *timer.Timer

	writeMu sync.Mutex

	playerMu sync.RWMutex
	playerID string
}

func (that *connection) send(action string, payload ResponsePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err = that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = that.conn.WriteJSON(Message{Action: action, Payload: body}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *connection) player() string {
	that.playerMu.RLock()
	defer that.playerMu.RUnlock()

	return that.playerID
}

func (that *connection) setPlayer(id string) {
	that.playerMu.Lock()
	defer that.playerMu.Unlock()

	that.playerID = id
}
