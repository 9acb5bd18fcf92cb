package supplier

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zidir/medcom-backend/pkg/config"
)

func TestNew_disabledReturnsPlaceholder(t *testing.T) {
	client, err := New(config.SupplierAPIConfig{Enabled: false}, nil)
	require.NoError(t, err)

	result := client.CheckAvailability(context.Background(), "3400930000001")
	require.NotNil(t, result.Available)
	assert.True(t, result.Placeholder)
	assert.Empty(t, result.Error)
}

func TestPlaceholderClient_producesBothOutcomes(t *testing.T) {
	client := &placeholderClient{rand: rand.New(rand.NewSource(42))}

	seen := map[bool]bool{}
	for i := 0; i < 50; i++ {
		result := client.CheckAvailability(context.Background(), "code")
		require.NotNil(t, result.Available)
		seen[*result.Available] = true
	}
	assert.True(t, seen[true])
	assert.True(t, seen[false])
}

func TestNew_enabledRequiresBaseURL(t *testing.T) {
	_, err := New(config.SupplierAPIConfig{Enabled: true}, nil)
	require.Error(t, err)
}

func TestHTTPClient_available(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/3400930000001/availability", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"available": true}`))
	}))
	defer server.Close()

	client, err := New(config.SupplierAPIConfig{Enabled: true, BaseURL: server.URL, Timeout: time.Second}, nil)
	require.NoError(t, err)

	result := client.CheckAvailability(context.Background(), "3400930000001")
	require.NotNil(t, result.Available)
	assert.True(t, *result.Available)
	assert.False(t, result.Placeholder)
	assert.Empty(t, result.Error)
}

func TestHTTPClient_missingAvailabilityField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()

	client, err := New(config.SupplierAPIConfig{Enabled: true, BaseURL: server.URL, Timeout: time.Second}, nil)
	require.NoError(t, err)

	result := client.CheckAvailability(context.Background(), "code")
	assert.Nil(t, result.Available)
	assert.Empty(t, result.Error)
}

func TestHTTPClient_non2xxDegradesToUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := New(config.SupplierAPIConfig{Enabled: true, BaseURL: server.URL, Timeout: time.Second}, nil)
	require.NoError(t, err)

	result := client.CheckAvailability(context.Background(), "code")
	require.NotNil(t, result.Available)
	assert.False(t, *result.Available)
	assert.Contains(t, result.Error, "unexpected status 502")
}

func TestHTTPClient_transportErrorDegradesToUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client, err := New(config.SupplierAPIConfig{Enabled: true, BaseURL: server.URL, Timeout: time.Second}, nil)
	require.NoError(t, err)

	result := client.CheckAvailability(context.Background(), "code")
	require.NotNil(t, result.Available)
	assert.False(t, *result.Available)
	assert.NotEmpty(t, result.Error)
}

func TestHTTPClient_escapesProductCode(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"available": false}`))
	}))
	defer server.Close()

	client, err := New(config.SupplierAPIConfig{Enabled: true, BaseURL: server.URL, Timeout: time.Second}, nil)
	require.NoError(t, err)

	result := client.CheckAvailability(context.Background(), "code/../etc")
	require.NotNil(t, result.Available)
	assert.Contains(t, gotPath, "code%2F..%2Fetc")
}
