package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
	// Used when the server omits heartbeat settings from its handshake.
	defaultPingInterval = 25 * time.Second
	defaultPingTimeout  = 20 * time.Second
)

var (
	// ErrConnectRefused is returned by Dial when the server answers the namespace
	// connect with connect_error.
	ErrConnectRefused = errors.New("socket.io connect refused")
	// ErrServerClosed is returned by Receive when the server closes the session.
	ErrServerClosed = errors.New("socket.io session closed by server")
)

// DialOptions configure Dial.
type DialOptions struct {
	Namespace string            // Socket.IO namespace, "/" when empty
	Header    http.Header       // Extra handshake headers
	Auth      map[string]string // Sent as the namespace connect payload
	Dialer    *websocket.Dialer // websocket.DefaultDialer when nil
}

// Socket is one Socket.IO connection. Receive must be called from a single goroutine;
// Close may be called from any goroutine.
type Socket struct {
	ws           *websocket.Conn
	namespace    string
	pingInterval time.Duration
	pingTimeout  time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Endpoint converts a backend base URL (http, https, ws or wss) into the Engine.IO
// WebSocket endpoint.
func Endpoint(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported socket URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("socket URL %q has no host", base)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/socket.io/"
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Dial opens a WebSocket to the backend at base, completes the Engine.IO handshake and
// joins the namespace.
func Dial(ctx context.Context, base string, opts DialOptions) (*Socket, error) {
	endpoint, err := Endpoint(base)
	if err != nil {
		return nil, err
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	ws, resp, err := dialer.DialContext(ctx, endpoint, opts.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial %s: %s: %w", endpoint, resp.Status, err)
		}
		return nil, fmt.Errorf("websocket dial %s: %w", endpoint, err)
	}

	s := &Socket{ws: ws, namespace: opts.Namespace}
	if s.namespace == "" {
		s.namespace = "/"
	}
	// A done ctx unblocks the handshake read by closing the connection.
	stop := context.AfterFunc(ctx, func() { ws.Close() })
	err = s.handshake(ctx, opts.Auth)
	if !stop() {
		return nil, fmt.Errorf("socket.io handshake: %w", ctx.Err())
	}
	if err != nil {
		ws.Close()
		return nil, err
	}
	return s, nil
}

func (s *Socket) handshake(ctx context.Context, auth map[string]string) error {
	deadline := time.Now().Add(handshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	s.ws.SetReadDeadline(deadline)

	// Engine.IO open.
	pkt, err := s.read()
	if err != nil {
		return fmt.Errorf("read open packet: %w", err)
	}
	if pkt == "" || pkt[0] != eioOpen {
		return fmt.Errorf("expected open packet, got %q", pkt)
	}
	var hs handshake
	if err := json.Unmarshal([]byte(pkt[1:]), &hs); err != nil {
		return fmt.Errorf("decode open packet: %w", err)
	}
	s.pingInterval, s.pingTimeout = hs.interval(), hs.timeout()
	if s.pingInterval <= 0 {
		s.pingInterval = defaultPingInterval
	}
	if s.pingTimeout <= 0 {
		s.pingTimeout = defaultPingTimeout
	}

	// Socket.IO namespace connect.
	connect := string([]byte{eioMessage, sioConnect}) + namespacePrefix(s.namespace)
	if len(auth) > 0 {
		b, err := json.Marshal(auth)
		if err != nil {
			return err
		}
		connect += string(b)
	}
	if err := s.write(connect); err != nil {
		return fmt.Errorf("send connect: %w", err)
	}

	for {
		pkt, err := s.read()
		if err != nil {
			return fmt.Errorf("await connect ack: %w", err)
		}
		if pkt == "" {
			continue
		}
		switch pkt[0] {
		case eioPing:
			if err := s.write(string(eioPong)); err != nil {
				return err
			}
			continue
		case eioClose:
			return ErrServerClosed
		case eioMessage:
		default:
			continue
		}
		if len(pkt) < 2 {
			continue
		}
		ns, body := splitNamespace(pkt[2:])
		if ns != s.namespace {
			continue
		}
		switch pkt[1] {
		case sioConnect:
			s.ws.SetReadDeadline(time.Time{})
			return nil
		case sioConnectError:
			return fmt.Errorf("%w: %s", ErrConnectRefused, connectErrorMessage(body))
		}
	}
}

// Receive blocks until the next event on the socket's namespace arrives. Heartbeat pings
// are answered on the way. A missing ping within interval+timeout is an error.
func (s *Socket) Receive() (Message, error) {
	for {
		s.ws.SetReadDeadline(time.Now().Add(s.pingInterval + s.pingTimeout))
		pkt, err := s.read()
		if err != nil {
			return Message{}, err
		}
		if pkt == "" {
			continue
		}

		switch pkt[0] {
		case eioPing:
			if err := s.write(string(eioPong)); err != nil {
				return Message{}, err
			}
			continue
		case eioClose:
			return Message{}, ErrServerClosed
		case eioMessage:
		default:
			// pong, noop and upgrade packets carry nothing for us.
			continue
		}

		body := pkt[1:]
		if body == "" {
			continue
		}
		switch body[0] {
		case sioEvent:
			ns, msg, err := decodeEvent(body)
			if err != nil {
				slog.Warn("dropping malformed socket.io event", "namespace", s.namespace, "error", err)
				continue
			}
			if ns != s.namespace {
				continue
			}
			return msg, nil
		case sioDisconnect:
			if ns, _ := splitNamespace(body[1:]); ns == s.namespace {
				return Message{}, ErrServerClosed
			}
		}
	}
}

// Close leaves the namespace and closes the WebSocket. It is safe to call more than once.
func (s *Socket) Close() error {
	s.closeOnce.Do(func() {
		s.write(string([]byte{eioMessage, sioDisconnect}) + namespacePrefix(s.namespace))
		s.closeErr = s.ws.Close()
	})
	return s.closeErr
}

func (s *Socket) read() (string, error) {
	for {
		typ, data, err := s.ws.ReadMessage()
		if err != nil {
			return "", err
		}
		// Binary frames carry attachments, which no subscribed event uses.
		if typ == websocket.TextMessage {
			return string(data), nil
		}
	}
}

func (s *Socket) write(pkt string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.ws.WriteMessage(websocket.TextMessage, []byte(pkt))
}

// SocketDialer returns a DialFunc that connects to the backend at base.
func SocketDialer(base string, opts DialOptions) DialFunc {
	return func(ctx context.Context) (Conn, error) {
		return Dial(ctx, base, opts)
	}
}
