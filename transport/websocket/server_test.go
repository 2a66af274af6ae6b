package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/marble-board/internal/apperror"
	"github.com/rocketscienceinc/marble-board/internal/entity"
	"github.com/rocketscienceinc/marble-board/internal/usecase"
)

// memoryPlayers, memoryGames and memoryResults keep JSON copies so callers never share a pointer.
type memoryPlayers struct {
	mu      sync.Mutex
	players map[string][]byte
}

func (that *memoryPlayers) CreateOrUpdate(_ context.Context, player *entity.Player) error {
	return store(&that.mu, that.players, player.ID, player)
}

func (that *memoryPlayers) GetByID(_ context.Context, id string) (*entity.Player, error) {
	var player entity.Player
	return &player, load(&that.mu, that.players, id, &player)
}

type memoryGames struct {
	mu    sync.Mutex
	games map[string][]byte
}

func (that *memoryGames) CreateOrUpdate(_ context.Context, game *entity.Game) error {
	return store(&that.mu, that.games, game.ID, game)
}

func (that *memoryGames) GetByID(_ context.Context, id string) (*entity.Game, error) {
	var game entity.Game
	return &game, load(&that.mu, that.games, id, &game)
}

func (that *memoryGames) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.games, id)

	return nil
}

type memoryResults struct{}

func (memoryResults) Save(context.Context, *entity.Result) error { return nil }

func (memoryResults) Leaderboard(context.Context, int) ([]*entity.Result, error) { return nil, nil }

func store(mu *sync.Mutex, items map[string][]byte, id string, item any) error {
	body, err := json.Marshal(item)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	items[id] = body

	return nil
}

func load(mu *sync.Mutex, items map[string][]byte, id string, item any) error {
	mu.Lock()
	body, ok := items[id]
	mu.Unlock()

	if !ok {
		return apperror.ErrNotFound
	}

	return json.Unmarshal(body, item)
}

// newGameManager wires the real use case to in-memory storage.
func newGameManager(layout *entity.Layout, clk clock.Clock) *usecase.GameManager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return usecase.NewGameManager(
		logger,
		clk,
		&memoryPlayers{players: make(map[string][]byte)},
		&memoryGames{games: make(map[string][]byte)},
		memoryResults{},
		layout,
	)
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

// newTestServer starts the socket server and returns its /ws url.
func newTestServer(t *testing.T, games gameUseCase, clk clock.Clock) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := New(logger, games, clk, time.Second)

	httpServer := httptest.NewServer(server.Handler(ctx))
	t.Cleanup(httpServer.Close)

	return "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *testClient {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &testClient{t: t, conn: conn}
}

func newTestClient(t *testing.T, games gameUseCase, clk clock.Clock) *testClient {
	t.Helper()

	return dial(t, newTestServer(t, games, clk))
}

func (that *testClient) send(action string, payload any) {
	that.t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(that.t, err)

	require.NoError(that.t, that.conn.WriteJSON(Message{Action: action, Payload: body}))
}

func (that *testClient) read() (string, map[string]any) {
	that.t.Helper()

	require.NoError(that.t, that.conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg Message
	require.NoError(that.t, that.conn.ReadJSON(&msg))

	var payload map[string]any
	require.NoError(that.t, json.Unmarshal(msg.Payload, &payload))

	return msg.Action, payload
}

func gameOf(t *testing.T, payload map[string]any) map[string]any {
	t.Helper()

	game, ok := payload["game"].(map[string]any)
	require.True(t, ok, "payload has no game: %v", payload)

	return game
}

func connect(client *testClient, playerID string) map[string]any {
	client.send(actionConnect, RequestPayload{Player: &entity.Player{ID: playerID}})

	action, payload := client.read()
	require.Equal(client.t, actionConnect, action)

	return payload
}

func click(client *testClient, row, col int) (string, map[string]any) {
	client.send(actionClick, RequestPayload{Cell: &entity.Position{Row: row, Col: col}})
	return client.read()
}

func TestServer_Connect(t *testing.T) {
	// Given: a connected client
	clk := clock.NewMock()
	client := newTestClient(t, newGameManager(entity.StandardLayout(), clk), clk)

	// When: the client sends connect
	payload := connect(client, "p1")

	// Then: the player and a fresh game come back
	player, ok := payload["player"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "p1", player["id"])

	game := gameOf(t, payload)
	assert.Equal(t, game["id"], player["game_id"])
	assert.Equal(t, "ongoing", game["status"])
	assert.InDelta(t, 32, game["remaining"], 0)
}

func TestServer_ConnectWithoutPlayer(t *testing.T) {
	clk := clock.NewMock()
	client := newTestClient(t, newGameManager(entity.StandardLayout(), clk), clk)

	client.send(actionConnect, RequestPayload{})
	action, payload := client.read()

	assert.Equal(t, actionConnect, action)
	assert.Equal(t, "Player is required", payload["error"])
}

func TestServer_ActionBeforeConnect(t *testing.T) {
	clk := clock.NewMock()
	client := newTestClient(t, newGameManager(entity.StandardLayout(), clk), clk)

	client.send(actionUndo, nil)
	action, payload := client.read()

	assert.Equal(t, actionUndo, action)
	assert.Equal(t, "Player is required", payload["error"])
}

func TestServer_UnknownAction(t *testing.T) {
	clk := clock.NewMock()
	client := newTestClient(t, newGameManager(entity.StandardLayout(), clk), clk)

	client.send("game:fly", nil)
	action, payload := client.read()

	assert.Equal(t, "game:fly", action)
	assert.Equal(t, "Unknown action", payload["error"])
}

func TestServer_MoveUndoRedo(t *testing.T) {
	// Given: a connected player
	clk := clock.NewMock()
	client := newTestClient(t, newGameManager(entity.StandardLayout(), clk), clk)
	connect(client, "p1")

	// When: the player selects (3,1) and jumps to the centre
	_, payload := click(client, 3, 1)
	game := gameOf(t, payload)
	assert.Equal(t, map[string]any{"row": 3.0, "col": 1.0}, game["selected"])

	_, payload = click(client, 3, 3)

	// Then: one move is recorded
	game = gameOf(t, payload)
	assert.InDelta(t, 1, game["moves"], 0)
	assert.InDelta(t, 31, game["remaining"], 0)
	assert.Equal(t, true, game["canUndo"])

	// When: the move is undone and redone
	client.send(actionUndo, nil)
	_, payload = client.read()
	game = gameOf(t, payload)
	assert.InDelta(t, 0, game["moves"], 0)
	assert.Equal(t, true, game["canRedo"])

	client.send(actionRedo, nil)
	_, payload = client.read()
	game = gameOf(t, payload)
	assert.InDelta(t, 1, game["moves"], 0)
}

func TestServer_InvalidMove(t *testing.T) {
	clk := clock.NewMock()
	client := newTestClient(t, newGameManager(entity.StandardLayout(), clk), clk)
	connect(client, "p1")

	click(client, 0, 2)
	action, payload := click(client, 0, 4)

	assert.Equal(t, actionClick, action)
	assert.Equal(t, "Invalid move", payload["error"])

	game := gameOf(t, payload)
	assert.Nil(t, game["selected"])
	assert.InDelta(t, 0, game["moves"], 0)
}

func TestServer_TimerPushesTicks(t *testing.T) {
	// Given: a player whose first click started the clock
	clk := clock.NewMock()
	client := newTestClient(t, newGameManager(entity.StandardLayout(), clk), clk)
	connect(client, "p1")

	_, payload := click(client, 3, 1)
	require.Equal(t, true, gameOf(t, payload)["started"])

	// When: a second passes
	clk.Add(time.Second)

	// Then: a tick with the new elapsed time is pushed
	action, payload := client.read()
	assert.Equal(t, actionTick, action)
	assert.InDelta(t, 1, gameOf(t, payload)["elapsed"], 0)

	// When: the game is reset the clock stops
	client.send(actionReset, nil)
	action, payload = client.read()
	assert.Equal(t, actionReset, action)

	game := gameOf(t, payload)
	assert.Equal(t, false, game["started"])
	assert.InDelta(t, 0, game["elapsed"], 0)
}

func TestServer_TwoConnectionsShareOneClock(t *testing.T) {
	// Given: one player with the game open on two connections, both pushing ticks
	clk := clock.NewMock()
	url := newTestServer(t, newGameManager(entity.StandardLayout(), clk), clk)

	first := dial(t, url)
	connect(first, "p1")
	_, payload := click(first, 3, 1)
	require.Equal(t, true, gameOf(t, payload)["started"])

	second := dial(t, url)
	payload = connect(second, "p1")
	require.Equal(t, true, gameOf(t, payload)["started"])

	for elapsed := 1; elapsed <= 2; elapsed++ {
		// When: a second passes
		clk.Add(time.Second)

		// Then: both connections show the same elapsed time
		for _, client := range []*testClient{first, second} {
			action, payload := client.read()
			assert.Equal(t, actionTick, action)
			assert.InDelta(t, elapsed, gameOf(t, payload)["elapsed"], 0)
		}
	}
}

func TestServer_ReconnectAsAnotherPlayerMovesTheTimer(t *testing.T) {
	// Given: one connection that started a game as p2 and then as p1
	clk := clock.NewMock()
	client := newTestClient(t, newGameManager(entity.StandardLayout(), clk), clk)

	connect(client, "p2")
	_, payload := click(client, 3, 1)
	p2Game := gameOf(t, payload)["id"]

	connect(client, "p1")
	_, payload = click(client, 3, 1)
	require.NotEqual(t, p2Game, gameOf(t, payload)["id"])

	// When: the connection switches back to p2 and a second passes
	connect(client, "p2")
	clk.Add(time.Second)

	// Then: the tick reports p2's game
	action, payload := client.read()
	assert.Equal(t, actionTick, action)
	assert.Equal(t, p2Game, gameOf(t, payload)["id"])
}

func TestServer_SkipsMessagesOfTheWrongShape(t *testing.T) {
	// Given: a client that sends a message whose action is a number
	clk := clock.NewMock()
	client := newTestClient(t, newGameManager(entity.StandardLayout(), clk), clk)

	require.NoError(t, client.conn.WriteMessage(websocket.TextMessage, []byte(`{"action":5}`)))

	// When: a valid message follows
	payload := connect(client, "p1")

	// Then: the connection is still served
	assert.Equal(t, "ongoing", gameOf(t, payload)["status"])
}

func TestServer_WinStopsTimer(t *testing.T) {
	clk := clock.NewMock()
	layout := &entity.Layout{Name: "tiny", Rows: []string{"oo_"}, Win: entity.Position{Row: 0, Col: 2}}
	client := newTestClient(t, newGameManager(layout, clk), clk)
	connect(client, "p1")

	click(client, 0, 0)
	_, payload := click(client, 0, 2)

	game := gameOf(t, payload)
	assert.Equal(t, "won", game["status"])
	assert.Equal(t, false, game["started"])

	// further clicks report the finished game
	_, payload = click(client, 0, 2)
	assert.Equal(t, "Game is finished", payload["error"])
}
