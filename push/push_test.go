package push

import (
	"cms/config"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevalidatorSend(t *testing.T) {
	var got Notification
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	r := &Revalidator{URL: srv.URL, Secret: "s3cret"}
	r.Invalidate("home", "menu/main")

	assert.Equal(t, "Bearer s3cret", auth)
	assert.Equal(t, Notification{Type: NotificationTypeRevalidate, Keys: []string{"home", "menu/main"}}, got)
}

func TestRevalidatorSend_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad secret", http.StatusUnauthorized)
	}))
	defer srv.Close()

	r := &Revalidator{URL: srv.URL}
	err := r.Send(context.Background(), &Notification{Type: NotificationTypeRevalidate, Keys: []string{"home"}})
	assert.EqualError(t, err, "status: 401")
}

func TestNewRevalidator(t *testing.T) {
	old := config.REVALIDATE_URL
	defer func() { config.REVALIDATE_URL = old }()

	config.REVALIDATE_URL = ""
	assert.Nil(t, NewRevalidator())
	// a nil revalidator is a valid no-op
	NewRevalidator().Invalidate("home")

	config.REVALIDATE_URL = "http://frontend/api/revalidate"
	r := NewRevalidator()
	require.NotNil(t, r)
	assert.True(t, r.Async)
}
