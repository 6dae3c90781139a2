// pkg/websocket/server_test.go
package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg *ServerConfig, opts ...ServerOption) (*Server, *httptest.Server) {
	t.Helper()

	srv, err := NewServer(cfg, opts...)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestServerEcho(t *testing.T) {
	handler := NewFuncHandler().OnMessageFunc(func(conn *Connection, msg *Message) error {
		return conn.SendAsync(msg)
	})

	_, ts := newTestServer(t, nil, WithServerHandler(handler))

	client, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("ping")))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, data, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)
	assert.Equal(t, "ping", string(data))
}

func TestServerCloseWithCode(t *testing.T) {
	handler := NewFuncHandler().OnMessageFunc(func(conn *Connection, msg *Message) error {
		conn.CloseWithCode(4001, "malformed payload")
		return nil
	})

	_, ts := newTestServer(t, nil, WithServerHandler(handler))

	client, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("{")))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = client.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, 4001), "expected close code 4001, got %v", err)
}

func TestServerPoolLimit(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Pool.MaxConnections = 1

	_, ts := newTestServer(t, cfg)

	first, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	defer first.Close()

	_, _, err = websocket.DefaultDialer.Dial(wsURL(ts), nil)
	assert.Error(t, err, "second connection should be rejected")
}

func TestConnectionSubscribe(t *testing.T) {
	received := make(chan *Message, 1)

	handler := NewFuncHandler().OnConnectFunc(func(conn *Connection) error {
		ch, _ := conn.Subscribe(8)
		go func() {
			for msg := range ch {
				select {
				case received <- msg:
				default:
				}
			}
		}()
		return nil
	})

	_, ts := newTestServer(t, nil, WithServerHandler(handler))

	client, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("hello")))

	select {
	case msg := <-received:
		assert.Equal(t, "hello", msg.String())
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not receive message")
	}
}

func TestSimpleRateLimiter(t *testing.T) {
	limiter := NewSimpleRateLimiter(2, 100*time.Millisecond)

	assert.True(t, limiter.Allow("k"))
	assert.True(t, limiter.Allow("k"))
	assert.False(t, limiter.Allow("k"))

	// 窗口重置后恢复
	time.Sleep(120 * time.Millisecond)
	assert.True(t, limiter.Allow("k"))

	// 不同 key 互不影响
	assert.True(t, limiter.Allow("other"))
}

func TestServerConfigValidate(t *testing.T) {
	cfg := DefaultServerConfig()
	require.NoError(t, cfg.Validate())

	cfg.MaxMessageSize = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
