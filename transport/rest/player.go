package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const (
	playerHeader = "X-Player-ID"
	playerCookie = "player_id"

	playerCookieTTL = 180 * 24 * time.Hour
)

type playerKey struct{}

// withPlayer puts the caller's player id into the request context.
// The id comes from the header, then the cookie; a caller with neither gets a new player and cookie.
func withPlayer(logger *slog.Logger, games gameUseCase) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			playerID := r.Header.Get(playerHeader)

			if playerID == "" {
				if cookie, err := r.Cookie(playerCookie); err == nil {
					playerID = cookie.Value
				}
			}

			if playerID == "" {
				player, err := games.GetOrCreatePlayer(r.Context(), "")
				if err != nil {
					logger.Error("failed to create player", "error", err)
					writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
					return
				}

				playerID = player.ID

				http.SetCookie(w, &http.Cookie{
					Name:     playerCookie,
					Value:    playerID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					Expires:  time.Now().Add(playerCookieTTL),
				})
			}

			ctx := context.WithValue(r.Context(), playerKey{}, playerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func playerFromContext(ctx context.Context) string {
	playerID, _ := ctx.Value(playerKey{}).(string)
	return playerID
}
