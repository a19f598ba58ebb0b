package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_SentinelMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthenticated},
		{"forbidden", http.StatusForbidden, ErrForbidden},
		{"not found", http.StatusNotFound, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &APIError{Status: tt.status, Message: "boom"}
			assert.True(t, errors.Is(err, tt.sentinel))
		})
	}

	err := &APIError{Status: http.StatusBadRequest, Message: "boom"}
	assert.False(t, errors.Is(err, ErrUnauthenticated))
	assert.False(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "", ErrorMessage(nil))
	assert.Equal(t, "user already exists",
		ErrorMessage(&APIError{Status: http.StatusConflict, Message: "user already exists"}))
	assert.Equal(t, "plain failure", ErrorMessage(errors.New("plain failure")))

	// Wrapped API errors still surface the server message.
	wrapped := &APIError{Status: http.StatusForbidden, Message: "not authorized"}
	assert.Equal(t, "not authorized", ErrorMessage(errors.Join(errors.New("request failed"), wrapped)))
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":1,"name":"a","email":"a@a.com"}`))
	}))
	defer server.Close()

	api := New(server.URL)
	api.SetToken("tok-123")

	_, err := api.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)

	api.SetToken("")
	_, err = api.Me(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_DecodesErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"not authorized"}`))
	}))
	defer server.Close()

	_, err := New(server.URL).GetTicket(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, "not authorized", ErrorMessage(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
}

func TestClient_FallsBackToStatusText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := New(server.URL).ListTickets(context.Background())
	require.Error(t, err)
	assert.Equal(t, "service unavailable", ErrorMessage(err))
}
