package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProxy wires up a minimal /health + WebSocket endpoint that mimics the
// MCP proxy registration handshake and echoes a fixed reply for any command
// named "echo", so Session.Connect/Send can be exercised end to end.
func fakeProxy(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var reg registerFrame
		require.NoError(t, conn.ReadJSON(&reg))
		require.NoError(t, conn.WriteJSON(controlFrame{Type: "register_ack", Status: "ok"}))

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				continue
			}
			if env.Command == "echo" {
				result, _ := json.Marshal(map[string]string{"echoed": "yes"})
				_ = conn.WriteJSON(Reply{CorrelationID: env.CorrelationID, Status: StatusOK, Result: result})
			} else if env.Command == "fail" {
				_ = conn.WriteJSON(Reply{CorrelationID: env.CorrelationID, Status: StatusError, ErrorKind: "boom", Message: "deliberate failure"})
			}
		}
	})
	return httptest.NewServer(mux)
}

func wsURLFor(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestConnect_SendAndReceive(t *testing.T) {
	srv := fakeProxy(t)
	defer srv.Close()

	sess, err := Connect(context.Background(), wsURLFor(srv), "indesign")
	require.NoError(t, err)
	defer sess.Close()
	assert.Equal(t, StateRegistered, sess.State())

	reply, err := sess.Send(context.Background(), Envelope{Command: "echo"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, reply.Status)
}

func TestSend_ApplicationError(t *testing.T) {
	srv := fakeProxy(t)
	defer srv.Close()

	sess, err := Connect(context.Background(), wsURLFor(srv), "indesign")
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.Send(context.Background(), Envelope{Command: "fail"}, time.Second)
	require.Error(t, err)
	appErr, ok := err.(*ApplicationError)
	require.True(t, ok)
	assert.Equal(t, "boom", appErr.ErrorKind)
}

func TestSend_TimeoutOnUnansweredCommand(t *testing.T) {
	srv := fakeProxy(t)
	defer srv.Close()

	sess, err := Connect(context.Background(), wsURLFor(srv), "indesign")
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.Send(context.Background(), Envelope{Command: "never-replied"}, 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClose_FailsOutstandingWaiters(t *testing.T) {
	srv := fakeProxy(t)
	defer srv.Close()

	sess, err := Connect(context.Background(), wsURLFor(srv), "indesign")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, sendErr := sess.Send(context.Background(), Envelope{Command: "never-replied"}, 5*time.Second)
		done <- sendErr
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, sess.Close())

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Send did not return after Close")
	}
}

func TestDeriveHealthURL(t *testing.T) {
	url, err := deriveHealthURL("ws://localhost:8080/ws")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/health", url)

	url, err = deriveHealthURL("wss://proxy.example.com/ws")
	require.NoError(t, err)
	assert.Equal(t, "https://proxy.example.com/health", url)
}
