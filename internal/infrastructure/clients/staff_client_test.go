package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaffServiceClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/staff/staff-1":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"staffId":"staff-1","name":"Dana","active":true}`))
		case "/api/v1/staff/staff-2":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"staffId":"staff-2","name":"Robin","active":false}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewStaffServiceClient(server.URL)
	ctx := context.Background()

	t.Run("active staff exists", func(t *testing.T) {
		exists, err := client.Exists(ctx, "staff-1")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("inactive staff does not count", func(t *testing.T) {
		exists, err := client.Exists(ctx, "staff-2")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("unknown staff is not an error", func(t *testing.T) {
		exists, err := client.Exists(ctx, "staff-99")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
