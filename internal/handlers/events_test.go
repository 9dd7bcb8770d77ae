package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/sisifo/internal/events"
	"github.com/xelth-com/sisifo/internal/services/reports"
	"github.com/xelth-com/sisifo/internal/storage"
	"github.com/xelth-com/sisifo/internal/websocket"
)

func TestEventsFeed(t *testing.T) {
	ts := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := websocket.NewHub()
	go hub.Run(ctx)

	files, err := storage.NewLocalStore(t.TempDir(), ts.cfg.PublicBaseURL+"/uploads")
	require.NoError(t, err)
	ts.router = NewRouter(ts.cfg, ts.store, files, reports.NewService(ts.store, files, events.Multi{hub}), hub)

	srv := httptest.NewServer(ts.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events/ws?access_token="

	// officers do not get the console feed
	_, resp, err := gws.DefaultDialer.Dial(wsURL+ts.tokens["officer"], nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := gws.DefaultDialer.Dial(wsURL+ts.tokens["operator"], nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	report := ts.createJSON(t, "officer", robberyBody())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev events.Event
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, events.ReportCreated, ev.Type)
	assert.Equal(t, report.ID, ev.ReportID)
	assert.Equal(t, ts.users["officer"].ID, ev.ActorID)
}
