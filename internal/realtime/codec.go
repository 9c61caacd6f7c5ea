// Package realtime is a client for the backend's Socket.IO v4 server over the Engine.IO v4
// WebSocket transport. Only what the admin notification feed needs is implemented: a single
// namespace, server-to-client events and the ping/pong heartbeat.
package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Engine.IO packet types.
const (
	eioOpen    = '0'
	eioClose   = '1'
	eioPing    = '2'
	eioPong    = '3'
	eioMessage = '4'
	eioNoop    = '6'
)

// Socket.IO packet types, carried inside Engine.IO message packets.
const (
	sioConnect      = '0'
	sioDisconnect   = '1'
	sioEvent        = '2'
	sioAck          = '3'
	sioConnectError = '4'
)

// Message is a server-emitted event.
type Message struct {
	Event   string          // Event name
	Payload json.RawMessage // First event argument, nil when the event has none
}

// ErrMalformedPacket is returned for packets that do not follow the Socket.IO framing.
var ErrMalformedPacket = errors.New("malformed socket.io packet")

// handshake is the payload of the Engine.IO open packet.
type handshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"` // milliseconds
	PingTimeout  int      `json:"pingTimeout"`  // milliseconds
	MaxPayload   int      `json:"maxPayload"`
}

func (h handshake) interval() time.Duration { return time.Duration(h.PingInterval) * time.Millisecond }
func (h handshake) timeout() time.Duration  { return time.Duration(h.PingTimeout) * time.Millisecond }

// DecodeEvent parses a Socket.IO event packet (without the Engine.IO type byte), e.g.
// `2["new_booking",{"fullName":"Asha"}]`, `2/admin,["ping"]` or `217["ack_me",1]`.
func DecodeEvent(packet string) (Message, error) {
	_, msg, err := decodeEvent(packet)
	return msg, err
}

// decodeEvent also reports the namespace the event was sent on.
func decodeEvent(packet string) (string, Message, error) {
	if packet == "" || packet[0] != sioEvent {
		return "", Message{}, fmt.Errorf("%w: not an event: %q", ErrMalformedPacket, packet)
	}
	ns, rest := splitNamespace(packet[1:])

	// Optional ack id.
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	rest = rest[i:]

	var args []json.RawMessage
	if err := json.Unmarshal([]byte(rest), &args); err != nil {
		return ns, Message{}, fmt.Errorf("%w: %v", ErrMalformedPacket, err)
	}
	if len(args) == 0 {
		return ns, Message{}, fmt.Errorf("%w: event without a name", ErrMalformedPacket)
	}
	var msg Message
	if err := json.Unmarshal(args[0], &msg.Event); err != nil {
		return ns, Message{}, fmt.Errorf("%w: event name is not a string", ErrMalformedPacket)
	}
	if len(args) > 1 {
		msg.Payload = args[1]
	}
	return ns, msg, nil
}

// EncodeEvent frames an event as a complete Engine.IO message, e.g. `42["name",{...}]`.
func EncodeEvent(namespace, event string, payload any) (string, error) {
	args := []any{event}
	if payload != nil {
		args = append(args, payload)
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	return string([]byte{eioMessage, sioEvent}) + namespacePrefix(namespace) + string(b), nil
}

// splitNamespace strips a leading "/ns," from a Socket.IO packet body.
// The default namespace is "/".
func splitNamespace(body string) (string, string) {
	if !strings.HasPrefix(body, "/") {
		return "/", body
	}
	ns, rest, ok := strings.Cut(body, ",")
	if !ok {
		return ns, ""
	}
	return ns, rest
}

func namespacePrefix(ns string) string {
	if ns == "" || ns == "/" {
		return ""
	}
	return ns + ","
}

// connectErrorMessage extracts the reason from a connect_error payload.
func connectErrorMessage(body string) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	if body == "" {
		return "connection refused"
	}
	return body
}
