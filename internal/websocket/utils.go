package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(v)
}

// WriteRaw forwards an already encoded JSON message.
func WriteRaw(conn *websocket.Conn, payload []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func WriteError(conn *websocket.Conn, code, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Code:  code,
		Error: errMsg,
	})
}

// ReadEnvelope reads one message and peeks at its action. The raw bytes
// are kept so the caller can decode the full request. A message that is
// not JSON yields an empty action rather than an error.
// It sets a read deadline.
func ReadEnvelope(conn *websocket.Conn) (RequestEnvelope, error) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return RequestEnvelope{}, err
	}
	var env RequestEnvelope
	_ = json.Unmarshal(raw, &env)
	env.Raw = raw
	return env, nil
}
