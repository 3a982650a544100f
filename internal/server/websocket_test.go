package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshaw/domainscope/internal/notify"
	"github.com/rshaw/domainscope/internal/registry"
)

func dialWS(t *testing.T, ctx context.Context, httpURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(httpURL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn) notify.Event {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var ev notify.Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

// A scan that finished before the client connected must still get a
// terminal snapshot and a clean close instead of waiting on events that
// will never come.
func TestWebSocketReplaysFinishedScan(t *testing.T) {
	ts := newTestServer(t)

	id := ts.startScan(t, "example.com")
	ts.orchestrator.Wait()

	srv := httptest.NewServer(ts.srv.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, srv.URL)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"scan_id":"`+id+`"}`)))

	ev := readEvent(t, ctx, conn)
	assert.Equal(t, id, ev.ScanID)
	assert.Equal(t, 100, ev.Progress)
	assert.Equal(t, string(registry.StatusCompleted), ev.Status)
	assert.True(t, ev.Done)

	_, _, err := conn.Read(ctx)
	var closeErr websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.StatusNormalClosure, closeErr.Code)
}

func TestWebSocketUnknownScan(t *testing.T) {
	ts := newTestServer(t)

	srv := httptest.NewServer(ts.srv.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, srv.URL)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"scan_id":"missing"}`)))

	_, _, err := conn.Read(ctx)
	var closeErr websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.StatusPolicyViolation, closeErr.Code)
}
