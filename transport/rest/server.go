package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger *slog.Logger
	router *chi.Mux
}

// New builds the router: ping, the layout, the player's game and the leaderboard.
func New(logger *slog.Logger, games gameUseCase) *Server {
	that := &Server{
		logger: logger.With("component", "rest"),
		router: chi.NewRouter(),
	}

	handlers := NewGameHandlers(that.logger, games)
	ping := NewPingHandler()

	that.router.Use(chimw.RequestID)
	that.router.Use(chimw.Recoverer)
	that.router.Use(requestLogger(that.logger))

	that.router.Get("/ping", ping.PingHandler)

	that.router.Route("/api", func(r chi.Router) {
		r.Use(jsonContentType)

		r.Get("/layout", handlers.Layout)
		r.Get("/leaderboard", handlers.Leaderboard)

		r.Route("/game", func(r chi.Router) {
			r.Use(withPlayer(that.logger, games))

			r.Get("/", handlers.Game)
			r.Post("/click", handlers.Click)
			r.Post("/undo", handlers.Undo)
			r.Post("/redo", handlers.Redo)
			r.Post("/reset", handlers.Reset)
		})
	})

	that.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
	})

	return that
}

// Router exposes the handler tree, used by tests.
func (that *Server) Router() http.Handler {
	return that.router
}

// Start serves on port until ctx is cancelled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
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

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Debug("request served",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}
