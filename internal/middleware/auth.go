package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/AdamBeresnev/lan-tournament/internal/httputil"
	"github.com/google/uuid"
)

type ContextKey string

const TeamIDKey ContextKey = "teamID"

const (
	TeamHeader  = "X-Team-ID"
	AdminHeader = "Authorization"
)

// RequireTeam reads the team a request speaks for. Score submissions are only
// accepted from a team seated in the match.
func RequireTeam(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(TeamHeader)
		if raw == "" {
			httputil.Unauthorized(w, "Missing "+TeamHeader+" header")
			return
		}
		teamID, err := uuid.Parse(raw)
		if err != nil {
			httputil.Unauthorized(w, "Invalid "+TeamHeader+" header")
			return
		}

		ctx := context.WithValue(r.Context(), TeamIDKey, teamID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin guards organizer operations behind a bearer token. An empty token
// leaves them open, which suits a closed LAN.
func RequireAdmin(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			given, ok := strings.CutPrefix(r.Header.Get(AdminHeader), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
				httputil.Unauthorized(w, "Organizer token required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func GetTeamIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	val := ctx.Value(TeamIDKey)
	if val == nil {
		return uuid.Nil, false
	}

	id, ok := val.(uuid.UUID)
	return id, ok
}
