// internal/ws/codes.go
package ws

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the server. These provide more
// specific reasons for closure than standard codes.
const (
	BadSubprotocolError websocket.StatusCode = 3000 // Client connected with an unsupported subprotocol.
	ProtocolViolation   websocket.StatusCode = 3001 // Client sent a packet the engine classified as fatal.
)
