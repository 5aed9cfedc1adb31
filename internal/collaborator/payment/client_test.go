package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hayat/internal/agent/ports"
	"hayat/internal/collaborator"
)

func TestPerform(t *testing.T) {
	var gotPath string
	var gotParams map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotParams))
		_, _ = w.Write([]byte(`{"success":true,"reference":"PAY-42"}`))
	}))
	defer srv.Close()

	g := New(srv.URL)
	res, err := g.Perform(context.Background(), ports.CommandPayment, map[string]string{"fine_id": "F-1", "amount": "200"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "PAY-42", res.Reference)
	assert.Equal(t, "/commands/payment", gotPath)
	assert.Equal(t, "F-1", gotParams["fine_id"])
}

func TestPerformDeclined(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"payment required", http.StatusPaymentRequired, `{"reason":"card expired"}`},
		{"success false", http.StatusOK, `{"success":false,"reason":"insufficient funds"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			res, err := New(srv.URL).Perform(context.Background(), ports.CommandPayment, nil)
			require.NoError(t, err)
			assert.False(t, res.Success)
		})
	}
}

func TestPerformFailures(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()
		_, err := New(srv.URL).Perform(context.Background(), ports.CommandRenewal, nil)
		assert.Equal(t, collaborator.CategoryOutage, collaborator.CategoryOf(err))
	})

	t.Run("garbage body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		defer srv.Close()
		_, err := New(srv.URL).Perform(context.Background(), ports.CommandRenewal, nil)
		assert.Equal(t, collaborator.CategoryBadData, collaborator.CategoryOf(err))
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		_, err := New(url).Perform(context.Background(), ports.CommandNotification, nil)
		assert.Equal(t, collaborator.CategoryOutage, collaborator.CategoryOf(err))
	})
}
