package debugserver

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"rebcore/internal/cell"
	"rebcore/internal/level"
)

func TestBuildReportsTickDepthAndLabels(t *testing.T) {
	out := cell.Integer(42)
	root := level.New(nil, &out, nil)
	root.Executor = func(l *level.Level) level.Bounce { return level.Out() }
	root.Label = 7

	tr := level.NewTrampoline(root)
	snap := Build(tr, func(id uint32) string {
		if id == 7 {
			return "foo"
		}
		return ""
	})

	require.Equal(t, 1, snap.Depth)
	require.Len(t, snap.Levels, 1)
	require.Equal(t, "foo", snap.Levels[0].Label)
	require.NotEmpty(t, snap.TraceID)
	// OutDump carries the level's current output cell rendered via
	// cell.Dump, for an inspector drilling past the summary fields.
	require.Contains(t, snap.Levels[0].OutDump, "integer")
}

func TestBuildLeavesLabelBlankWithoutSpellingFunc(t *testing.T) {
	var out cell.Cell
	root := level.New(nil, &out, nil)
	root.Label = 3
	tr := level.NewTrampoline(root)

	snap := Build(tr, nil)
	require.Len(t, snap.Levels, 1)
	require.Empty(t, snap.Levels[0].Label)
}

func TestHubBroadcastsSnapshotToConnectedInspector(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 1
	}, time.Second, 5*time.Millisecond)

	err = hub.Broadcast(Snapshot{Tick: 42, Depth: 1})
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(data), `"tick":42`)
}
