package typecheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tetherlab/workbench/internal/compiler"
	werrors "github.com/tetherlab/workbench/internal/errors"
)

// DialerConfig holds worker connection configuration.
type DialerConfig struct {
	// WorkerURL is the WebSocket URL, e.g. "ws://localhost:9400/ws/worker".
	WorkerURL string

	// Token is the worker auth token, sent with the open request.
	Token string

	// HandshakeTimeout bounds the dial plus the open exchange.
	HandshakeTimeout time.Duration

	// RequestTimeout is the max wait for a single emit response.
	RequestTimeout time.Duration
}

// DefaultDialerConfig returns sane defaults.
func DefaultDialerConfig() DialerConfig {
	return DialerConfig{
		HandshakeTimeout: 10 * time.Second,
		RequestTimeout:   60 * time.Second,
	}
}

// --- Protocol frames ---

// wsFrame is a raw protocol frame.
type wsFrame struct {
	Type    string          `json:"type"`              // "req", "res"
	ID      string          `json:"id,omitempty"`      // request/response ID
	Method  string          `json:"method,omitempty"`  // request method
	Params  json.RawMessage `json:"params,omitempty"`  // request params
	OK      *bool           `json:"ok,omitempty"`      // response ok
	Payload json.RawMessage `json:"payload,omitempty"` // response payload
	Error   *wsError        `json:"error,omitempty"`   // response error
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// openParams is the "open" request: the compiler context plus the buffer
// snapshots the session covers.
type openParams struct {
	Token     string              `json:"token,omitempty"`
	Options   map[string]any      `json:"compilerOptions"`
	ExtraLibs []compiler.ExtraLib `json:"extraLibs"`
	Buffers   []Buffer            `json:"buffers"`
}

// emitParams is the "emit" request params.
type emitParams struct {
	URI string `json:"uri"`
}

// Dialer opens worker sessions over WebSocket.
type Dialer struct {
	cfg    DialerConfig
	logger zerolog.Logger
}

// NewDialer creates a worker session factory.
func NewDialer(cfg DialerConfig, logger zerolog.Logger) *Dialer {
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	return &Dialer{
		cfg:    cfg,
		logger: logger.With().Str("component", "typecheck").Logger(),
	}
}

// Ping dials the worker and immediately closes the connection. Used by the
// readiness probe; no session is opened.
func (d *Dialer) Ping(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: d.cfg.HandshakeTimeout}

	conn, _, err := dialer.DialContext(ctx, d.cfg.WorkerURL, nil)
	if err != nil {
		return &werrors.TransportError{Service: "worker", Message: "ws dial failed", Err: err}
	}
	_ = conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	return conn.Close()
}

// Open dials the worker and performs the open exchange. The returned session
// is bound to one connection; Close tears it down.
func (d *Dialer) Open(ctx context.Context, env *compiler.Environment, buffers []Buffer) (Session, error) {
	dialer := websocket.Dialer{HandshakeTimeout: d.cfg.HandshakeTimeout}

	conn, _, err := dialer.DialContext(ctx, d.cfg.WorkerURL, nil)
	if err != nil {
		return nil, &werrors.TransportError{Service: "worker", Message: "ws dial failed", Err: err}
	}

	s := &wsSession{
		cfg:     d.cfg,
		conn:    conn,
		logger:  d.logger,
		pending: make(map[string]chan wsFrame),
		stopCh:  make(chan struct{}),
	}

	params := openParams{
		Token:     d.cfg.Token,
		Options:   env.Options(),
		ExtraLibs: env.ExtraLibs(),
		Buffers:   buffers,
	}

	openCtx, cancel := context.WithTimeout(ctx, d.cfg.HandshakeTimeout)
	defer cancel()

	go s.readLoop()

	if _, err := s.request(openCtx, "open", params); err != nil {
		s.Close()
		return nil, fmt.Errorf("opening worker session: %w", err)
	}

	d.logger.Debug().Int("buffers", len(buffers)).Msg("worker session open")
	return s, nil
}

// wsSession is one live worker session over a dedicated connection.
type wsSession struct {
	cfg    DialerConfig
	logger zerolog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]chan wsFrame
	stopCh  chan struct{}
	closed  bool
}

// EmitOutput requests compiled output for one buffer URI.
func (s *wsSession) EmitOutput(ctx context.Context, uri string) (*EmitResult, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	payload, err := s.request(reqCtx, "emit", emitParams{URI: uri})
	if err != nil {
		return nil, err
	}

	var result EmitResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, &werrors.TransportError{Service: "worker", Message: "parsing emit response", Err: err}
	}
	return &result, nil
}

// request sends one frame and waits for its correlated response.
func (s *wsSession) request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s params: %w", method, err)
	}

	reqID := uuid.New().String()
	req := wsFrame{Type: "req", ID: reqID, Method: method, Params: paramsJSON}

	respCh := make(chan wsFrame, 1)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, werrors.NewTransportError("worker", 0, "session closed")
	}
	s.pending[reqID] = respCh
	reqBytes, _ := json.Marshal(req)
	err = s.conn.WriteMessage(websocket.TextMessage, reqBytes)
	s.mu.Unlock()

	if err != nil {
		s.mu.Lock()
		delete(s.pending, reqID)
		s.mu.Unlock()
		return nil, &werrors.TransportError{Service: "worker", Message: "sending " + method, Err: err}
	}

	select {
	case resp := <-respCh:
		if resp.Error != nil {
			return nil, werrors.NewTransportError("worker", 0, resp.Error.Message)
		}
		if resp.OK == nil || !*resp.OK {
			return nil, werrors.NewTransportError("worker", 0, method+" request failed")
		}
		return resp.Payload, nil
	case <-ctx.Done():
		s.mu.Lock()
		delete(s.pending, reqID)
		s.mu.Unlock()
		return nil, ctx.Err()
	}
}

// readLoop reads frames and dispatches responses to waiting requests.
func (s *wsSession) readLoop() {
	defer func() {
		s.mu.Lock()
		for id, ch := range s.pending {
			ch <- wsFrame{
				Type:  "res",
				ID:    id,
				Error: &wsError{Code: "DISCONNECTED", Message: "connection lost"},
			}
			delete(s.pending, id)
		}
		s.mu.Unlock()
	}()

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				s.logger.Warn().Err(err).Msg("worker read error")
			}
			return
		}

		var frame wsFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			s.logger.Warn().Err(err).Msg("worker frame parse error")
			continue
		}

		if frame.Type != "res" {
			continue
		}

		s.mu.Lock()
		ch, ok := s.pending[frame.ID]
		if ok {
			delete(s.pending, frame.ID)
		}
		s.mu.Unlock()
		if ok {
			ch <- frame
		}
	}
}

// Close gracefully shuts down the session connection.
func (s *wsSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.stopCh)
	conn := s.conn
	s.mu.Unlock()

	_ = conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	return conn.Close()
}
