package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"campusvote/internal/domain"
	"campusvote/internal/session"
	"campusvote/pkg/errors"
	"campusvote/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *session.Store, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	sessions := session.NewStore(filepath.Join(t.TempDir(), "session.yaml"), logger.NewNop())
	client := New(ts.URL, 5*time.Second, sessions, logger.NewNop())
	return client, sessions, ts
}

func TestClient_GetDecodesResponse(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/positions/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"name":"President","is_active":true,"candidates":[]}]`))
	}))

	var positions []domain.Position
	err := client.Get(context.Background(), "/positions/", &positions)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "President", positions[0].Name)
}

func TestClient_AttachesCredentialAndRequestID(t *testing.T) {
	var gotAuth, gotRequestID string
	client, sessions, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`{}`))
	}))

	require.NoError(t, sessions.Establish(session.Session{AccessToken: "abc123"}))

	err := client.Get(context.Background(), "/auth/profile/", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc123", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestClient_NoCredentialWhenUnauthenticated(t *testing.T) {
	var gotAuth string
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))

	require.NoError(t, client.Post(context.Background(), "/auth/login/", map[string]string{"student_id": "s"}, nil))
	assert.Empty(t, gotAuth)
}

func TestClient_AuthRejectionPurgesSessionAndFiresHook(t *testing.T) {
	client, sessions, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Given token not valid for any token type"}`))
	}))

	require.NoError(t, sessions.Establish(session.Session{AccessToken: "stale"}))

	purged := false
	client.OnAuthReject(func() { purged = true })

	err := client.Get(context.Background(), "/votes/status/", nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuthentication))
	assert.Contains(t, err.Error(), "Given token not valid")

	_, live := sessions.Current()
	assert.False(t, live)
	assert.True(t, purged)
}

func TestClient_BusinessRejectionMessagePrecedence(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{
			name:    "candidate field wins",
			body:    `{"candidate":["Invalid candidate."],"position":["Invalid position."],"error":"nope"}`,
			message: "Invalid candidate.",
		},
		{
			name:    "position next",
			body:    `{"position":["Invalid position."],"error":"nope"}`,
			message: "Invalid position.",
		},
		{
			name:    "error field last",
			body:    `{"error":"You have already voted for this position."}`,
			message: "You have already voted for this position.",
		},
		{
			name:    "string field form",
			body:    `{"candidate":"Candidate is required."}`,
			message: "Candidate is required.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tt.body))
			}))

			err := client.Post(context.Background(), "/vote/", map[string]int{"candidate": 1, "position": 1}, nil)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeBusiness))

			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}

func TestClient_NotFound(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Position not found"}`))
	}))

	err := client.Get(context.Background(), "/results/99/", nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestClient_ServerErrorIsExternal(t *testing.T) {
	client, sessions, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`boom`))
	}))
	require.NoError(t, sessions.Establish(session.Session{AccessToken: "ok"}))

	err := client.Get(context.Background(), "/analytics/stats/", nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeExternal))

	// A plain server error must not end the session.
	_, live := sessions.Current()
	assert.True(t, live)
}

func TestClient_NetworkFailureIsExternal(t *testing.T) {
	sessions := session.NewStore(filepath.Join(t.TempDir(), "session.yaml"), logger.NewNop())
	client := New("http://127.0.0.1:1", time.Second, sessions, logger.NewNop())

	err := client.Get(context.Background(), "/positions/", nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeExternal))
}
