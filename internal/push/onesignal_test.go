package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 100))
	assert.Equal(t, "exact", Truncate("exact", 5))

	got := Truncate(strings.Repeat("a", 150), 100)
	assert.Len(t, []rune(got), 100)
	assert.True(t, strings.HasSuffix(got, "..."))

	// Multi-byte text must be cut on rune boundaries.
	got = Truncate(strings.Repeat("é", 150), 100)
	assert.Len(t, []rune(got), 100)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func testClient(url string) *Client {
	return &Client{
		appID:       "app-1",
		apiKey:      "key-1",
		apiURL:      url,
		httpClient:  &http.Client{Timeout: time.Second},
		initialized: true,
	}
}

func TestNotifyPlayers(t *testing.T) {
	var got notificationBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Basic key-1", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "n-1", "recipients": 2})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	long := strings.Repeat("x", 200)
	sent, err := c.NotifyPlayers(context.Background(), []string{"p1", "p2"}, "💬 Aya", long)
	require.NoError(t, err)

	assert.Equal(t, 2, sent)
	assert.Equal(t, "app-1", got.AppID)
	assert.Equal(t, []string{"p1", "p2"}, got.IncludePlayerIDs)
	assert.Equal(t, "💬 Aya", got.Headings["en"])
	assert.Len(t, []rune(got.Contents["en"]), maxAlertLen)
}

func TestNotifyPlayersEmptyListIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty recipient list")
	}))
	defer srv.Close()

	sent, err := testClient(srv.URL).NotifyPlayers(context.Background(), nil, "h", "m")
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestBroadcastAll(t *testing.T) {
	var got notificationBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "n-2", "recipients": 40})
	}))
	defer srv.Close()

	sent, err := testClient(srv.URL).BroadcastAll(context.Background(), "Bonus", "Jouez maintenant")
	require.NoError(t, err)

	assert.Equal(t, 40, sent)
	assert.Equal(t, []string{"Subscribed Users"}, got.IncludedSegments)
	assert.Equal(t, "Bonus", got.Headings["fr"])
	assert.Empty(t, got.IncludePlayerIDs)
}

func TestSendSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":["invalid player ids"]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).NotifyPlayers(context.Background(), []string{"bad"}, "h", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")
	assert.Contains(t, err.Error(), "invalid player ids")
}

func TestSendUnconfigured(t *testing.T) {
	c := &Client{httpClient: http.DefaultClient}
	_, err := c.NotifyPlayers(context.Background(), []string{"p1"}, "h", "m")
	require.Error(t, err)
	assert.False(t, c.Ready())
}
