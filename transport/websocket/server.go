package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/marble-board/internal/entity"
	"github.com/rocketscienceinc/marble-board/internal/timer"
)

const shutdownTimeout = 5 * time.Second

type gameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error)
	GetOrCreateGame(ctx context.Context, playerID string) (*entity.Game, error)
	Click(ctx context.Context, playerID string, pos entity.Position) (*entity.Game, error)
	Undo(ctx context.Context, playerID string) (*entity.Game, error)
	Redo(ctx context.Context, playerID string) (*entity.Game, error)
	Reset(ctx context.Context, playerID string) (*entity.Game, error)
	Tick(ctx context.Context, playerID string) (*entity.Game, bool, error)
}

var ErrUnknownAction = errors.New("unknown action")

type Server struct {
	logger *slog.Logger
	games  gameUseCase

	clock        clock.Clock
	tickInterval time.Duration
	upgrader     websocket.Upgrader

	handlers map[string]func(ctx context.Context, message *Message, conn *connection) error
}

func New(logger *slog.Logger, games gameUseCase, clk clock.Clock, tickInterval time.Duration) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		games:  games,

		clock:        clk,
		tickInterval: tickInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},

		handlers: make(map[string]func(context.Context, *Message, *connection) error),
	}

	server.handlers[actionConnect] = server.handleConnect
	server.handlers[actionClick] = server.handleClick
	server.handlers[actionUndo] = server.handleUndo
	server.handlers[actionRedo] = server.handleRedo
	server.handlers[actionReset] = server.handleReset

	return server
}

// Handler serves the /ws endpoint. Connections live until the client leaves or ctx is done.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Handler(ctx),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeConnection")

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	connCtx, cancel := context.WithCancel(ctx)

	conn := &connection{
		conn:  ws,
		timer: timer.New(that.clock, that.tickInterval),
	}

	defer func() {
		cancel()
		conn.timer.Stop()

		if err = ws.Close(); err != nil {
			log.Debug("failed to close connection", "error", err)
		}
	}()

	go func() {
		<-connCtx.Done()
		_ = ws.Close()
	}()

	log.Info("WebSocket connection established")

	if err = that.handleMessages(connCtx, conn); err != nil {
		log.Info("connection closed", "error", err)
	}
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, conn *connection) error {
	log := that.logger.With("method", "handleMessages")

	for {
		var message Message
		if err := conn.conn.ReadJSON(&message); err != nil {
			var (
				syntaxErr *json.SyntaxError
				typeErr   *json.UnmarshalTypeError
			)
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				log.Warn("failed to unmarshal message", "error", err)
				continue
			}

			return fmt.Errorf("failed to read message: %w", err)
		}

		if err := that.processMessage(ctx, &message, conn); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// processMessage - processes incoming messages from the client.
func (that *Server) processMessage(ctx context.Context, msg *Message, conn *connection) error {
	if handler, ok := that.handlers[msg.Action]; ok {
		return handler(ctx, msg, conn)
	}

	if err := conn.send(msg.Action, ResponsePayload{Error: "Unknown action"}); err != nil {
		return err
	}

	return fmt.Errorf("%w: %s", ErrUnknownAction, msg.Action)
}
