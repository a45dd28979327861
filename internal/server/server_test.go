package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/listsync/internal/config"
	"github.com/zeusync/listsync/internal/core/events/bus"
	"github.com/zeusync/listsync/internal/core/observability/log"
	"github.com/zeusync/listsync/internal/script"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.ListenAddr = "127.0.0.1:0"
	cfg.Collections = testCollections()
	return cfg
}

func startServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s := New(cfg, nil)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return s
}

func dialFeed(t *testing.T, s *Server, collection string) *websocket.Conn {
	t.Helper()
	u := "ws://" + s.Addr().String() + "/ws?collection=" + collection
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func postOps(t *testing.T, s *Server, collection string, req OpsRequest) (int, OpsResponse) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := http.Post("http://"+s.Addr().String()+"/ops?collection="+collection,
		"application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out OpsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestServer_FeedStreamsSnapshotThenChanges(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })
	t.Cleanup(http.DefaultClient.CloseIdleConnections)

	s := startServer(t, testConfig())
	conn := dialFeed(t, s, "players")

	snap := readMessage(t, conn)
	assert.Equal(t, MsgSnapshot, snap.Type)
	assert.Equal(t, "players", snap.Collection)
	assert.Equal(t, []string{"bob", "amy"}, snap.Values)

	status, res := postOps(t, s, "players", OpsRequest{Ops: []script.Op{
		{Op: script.OpAppend, Value: "cid"},
		{Op: script.OpRemoveWhere, Match: "bob"},
	}})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"amy", "cid"}, res.Values)
	digest, err := strconv.ParseUint(res.Digest, 16, 64)
	require.NoError(t, err)
	assert.Equal(t, script.Digest(res.Values), digest)

	first := readMessage(t, conn)
	require.Equal(t, MsgChange, first.Type)
	require.NotNil(t, first.Event)
	assert.Equal(t, "insert", first.Event.Kind)
	assert.Equal(t, 2, first.Event.Index)
	assert.Equal(t, "cid", first.Event.Value)

	second := readMessage(t, conn)
	require.NotNil(t, second.Event)
	assert.Equal(t, "remove", second.Event.Kind)
	assert.Equal(t, 0, second.Event.Index)
	assert.Equal(t, "bob", second.Event.Value)
}

func TestServer_OpsErrors(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })
	t.Cleanup(http.DefaultClient.CloseIdleConnections)

	s := startServer(t, testConfig())

	status, res := postOps(t, s, "players", OpsRequest{Ops: []script.Op{
		{Op: script.OpAppend, Value: "cid"},
		{Op: script.OpReplace, Value: "x"},
	}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, res.Error, script.ErrMissingIndex.Error())
	assert.Equal(t, []string{"bob", "amy", "cid"}, res.Values)

	status, _ = postOps(t, s, "teams", OpsRequest{})
	assert.Equal(t, http.StatusNotFound, status)

	resp, err := http.Post("http://"+s.Addr().String()+"/ops?collection=players",
		"application/json", strings.NewReader(`{"opz": []}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Collections(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })
	t.Cleanup(http.DefaultClient.CloseIdleConnections)

	s := startServer(t, testConfig())
	conn := dialFeed(t, s, "players")
	readMessage(t, conn)

	resp, err := http.Get("http://" + s.Addr().String() + "/collections")
	require.NoError(t, err)
	defer resp.Body.Close()

	var infos []CollectionInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&infos))
	assert.Equal(t, []CollectionInfo{
		{Name: "players", Len: 2, Subscribers: 1},
		{Name: "ranked", Order: config.OrderAsc, Len: 2},
	}, infos)
}

func TestServer_UnknownFeedCollection(t *testing.T) {
	h := NewHub(testCollections(), bus.New(), nil)
	srv := httptest.NewServer(NewHandler(h, NewFeed(h, 4, nil), nil))
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?collection=nope", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_StartStop(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	s := New(testConfig(), nil)
	assert.Nil(t, s.Addr())
	assert.ErrorIs(t, s.Stop(context.Background()), ErrServerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrServerAlreadyRunning)

	conn := dialFeed(t, s, "ranked")
	snap := readMessage(t, conn)
	assert.Equal(t, []string{"a", "c"}, snap.Values)

	require.NoError(t, s.Stop(context.Background()))

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "stop disconnects feed clients")
}

func TestServer_ListenFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Server.ListenAddr = "256.0.0.1:bad"

	err := New(cfg, nil).Start(context.Background())
	assert.ErrorIs(t, err, ErrListenerFailed)
}

func TestFeed_SlowClientIsDropped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := log.NewWithCore(core)

	b := bus.New()
	b.AddObserver(&deliveryLog{logger: logger})
	h := NewHub(testCollections(), b, logger)
	f := NewFeed(h, 1, logger)

	c := newClient(nil, 1)
	_, err := b.Subscribe("players", f.changeHandler(c, "players"))
	require.NoError(t, err)

	require.NoError(t, b.Publish("players", bus.Event{Kind: "insert", Value: "a"}))
	err = b.Publish("players", bus.Event{Kind: "insert", Value: "b"})

	assert.ErrorIs(t, err, ErrSlowClient)
	assert.False(t, c.enqueue([]byte("late")), "dropped client takes nothing more")
	assert.Equal(t, 1, logs.FilterMessage("Event delivery failed").Len())

	queued := <-c.send
	assert.Contains(t, string(queued), `"value":"a"`)
	_, open := <-c.send
	assert.False(t, open)
}

func TestFeed_CloseDisconnectsAndRefusesClients(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	h := NewHub(testCollections(), bus.New(), nil)
	startHub(t, h)
	f := NewFeed(h, 4, nil)
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?collection=players"

	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, MsgSnapshot, readMessage(t, conn).Type)
	require.Equal(t, 1, f.ClientCount())

	f.Close()
	assert.Zero(t, f.ClientCount())
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "close disconnects the client")

	late, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer late.Close()
	_ = late.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = late.ReadMessage()
	assert.Error(t, err, "a closed feed hangs up on new clients")
	assert.Zero(t, f.ClientCount())
}
