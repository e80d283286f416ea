package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/odizinne/gtacompta-storage/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// staticCreds serves fixed credentials for tests.
type staticCreds struct {
	creds Credentials
}

func (s *staticCreds) Credentials() Credentials { return s.creds }

func newTestClient(baseURL string) *Client {
	return NewClient(&staticCreds{creds: Credentials{
		BaseURL:        baseURL,
		ServerPassword: "secret",
		Username:       "alice",
		UserPassword:   "pw",
	}}, zap.NewNop())
}

func waitLoad(t *testing.T, ch <-chan LoadResult) LoadResult {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for load result")
		return LoadResult{}
	}
}

func waitSave(t *testing.T, ch <-chan SaveResult) SaveResult {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for save result")
		return SaveResult{}
	}
}

func TestClient_LoadSendsProtocolHeaders(t *testing.T) {
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":     []models.Record{{"name": "Acme"}},
			"readonly": false,
			"username": "alice",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	res := waitLoad(t, client.Load(context.Background(), "clients"))

	require.NoError(t, res.Err)
	assert.Equal(t, "clients", res.Collection)
	assert.NotEmpty(t, res.RequestID)
	assert.Equal(t, []models.Record{{"name": "Acme"}}, res.Data)
	assert.Equal(t, "alice", res.Username)

	assert.Equal(t, "secret", gotHeaders.Get(models.HeaderServerPassword))
	assert.Equal(t, "alice", gotHeaders.Get(models.HeaderUsername))
	assert.Equal(t, "pw", gotHeaders.Get(models.HeaderUserPassword))
	assert.Equal(t, models.ProtocolVersion, gotHeaders.Get(models.HeaderProtocolVersion))
}

func TestClient_SaveSuccess(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Data []models.Record `json:"data"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	res := waitSave(t, client.Save(context.Background(), "clients", []models.Record{{"name": "Acme"}}))

	require.NoError(t, res.Err)
	assert.True(t, res.Success)
	assert.Equal(t, "/api/save/clients", gotPath)
	assert.Equal(t, []models.Record{{"name": "Acme"}}, gotBody.Data)
}

func TestClient_SaveServerRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Failed to save data"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	res := waitSave(t, client.Save(context.Background(), "clients", nil))

	assert.False(t, res.Success)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "Failed to save data")
}

func TestClient_LoadTransportError(t *testing.T) {
	// Nothing listens here; the request fails at the transport level.
	client := newTestClient("http://127.0.0.1:1")
	res := waitLoad(t, client.Load(context.Background(), "clients"))

	require.Error(t, res.Err)
	assert.Nil(t, res.Data)
}

func TestClient_LoadHTTPErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "Unauthorized - Invalid user credentials"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	res := waitLoad(t, client.Load(context.Background(), "clients"))

	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "Invalid user credentials")
}

func TestClient_TestPropagatesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"message":  "Connection successful",
			"username": "alice",
			"readonly": false,
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	result, err := client.Test(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Connection successful", result.Message)
	assert.Equal(t, "alice", result.Username)

	// Unlike load/save, test propagates transport failures directly.
	broken := newTestClient("http://127.0.0.1:1")
	_, err = broken.Test(context.Background())
	assert.Error(t, err)
}

func TestClient_RequestIDsAreUnique(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []models.Record{}})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	first := waitLoad(t, client.Load(context.Background(), "clients"))
	second := waitLoad(t, client.Load(context.Background(), "clients"))
	assert.NotEqual(t, first.RequestID, second.RequestID)
}
