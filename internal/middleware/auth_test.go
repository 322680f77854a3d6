package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRequireTeam(t *testing.T) {
	var seen uuid.UUID
	handler := RequireTeam(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetTeamIDFromContext(r.Context())
	}))

	teamID := uuid.New()
	tests := []struct {
		name   string
		header string
		status int
		want   uuid.UUID
	}{
		{"valid team", teamID.String(), http.StatusOK, teamID},
		{"missing header", "", http.StatusUnauthorized, uuid.Nil},
		{"not a uuid", "team-1", http.StatusUnauthorized, uuid.Nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = uuid.Nil
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set(TeamHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		name   string
		token  string
		header string
		status int
	}{
		{"open without token", "", "", http.StatusOK},
		{"matching token", "s3cret", "Bearer s3cret", http.StatusOK},
		{"wrong token", "s3cret", "Bearer guess", http.StatusUnauthorized},
		{"missing bearer", "s3cret", "s3cret", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set(AdminHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			RequireAdmin(tt.token)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestGetTeamIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := GetTeamIDFromContext(req.Context())
	assert.False(t, ok)
}
