package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"beamsim.klederson.com/internal/beam"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	outboxSize = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1 << 16,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is a client request on the stream. Action selects which of the
// other fields are read.
//
//	recompute       -
//	update_array    handle, patch
//	set_element     handle, index, element
//	settings        settings
//	add_array       array (optional)
//	remove_array    handle
//	load_preset     name
type Message struct {
	Action   string            `json:"action"`
	Handle   beam.Handle       `json:"handle"`
	Index    int               `json:"index"`
	Name     string            `json:"name,omitempty"`
	Patch    *beam.ArrayPatch  `json:"patch,omitempty"`
	Element  *ElementUpdate    `json:"element,omitempty"`
	Settings *SettingsUpdate   `json:"settings,omitempty"`
	Array    *beam.ArrayConfig `json:"array,omitempty"`
}

type frameMessage struct {
	Type    string  `json:"type"`
	Seq     uint64  `json:"seq"`
	Elapsed float64 `json:"elapsed_ms"`
	beam.Frame
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type hub struct {
	srv *Server

	mu       sync.Mutex
	sessions map[string]*session
}

func newHub(srv *Server) *hub {
	return &hub{srv: srv, sessions: make(map[string]*session)}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// kickAll asks every session for a fresh frame.
func (h *hub) kickAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sessions {
		s.kick()
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sessions {
		s.conn.Close()
	}
}

func (h *hub) add(s *session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	n := len(h.sessions)
	h.mu.Unlock()
	if h.srv.metrics != nil {
		h.srv.metrics.Sessions.Set(float64(n))
	}
}

func (h *hub) remove(s *session) {
	h.mu.Lock()
	delete(h.sessions, s.id)
	n := len(h.sessions)
	h.mu.Unlock()
	if h.srv.metrics != nil {
		h.srv.metrics.Sessions.Set(float64(n))
	}
}

func (h *hub) serveWS(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "not a websocket upgrade"})
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.srv.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	s := &session{
		id:     uuid.NewString(),
		srv:    h.srv,
		conn:   conn,
		kicks:  make(chan struct{}, 1),
		outbox: make(chan any, outboxSize),
	}
	s.log = h.srv.log.WithField("session", s.id)
	h.add(s)
	s.log.Info("stream opened")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		s.readLoop()
		cancel()
	}()
	s.kick()
	s.run(ctx)

	h.remove(s)
	conn.Close()
	s.log.Info("stream closed")
}

// session owns one connection. Only run writes to conn.
type session struct {
	id     string
	srv    *Server
	conn   *websocket.Conn
	log    logrus.FieldLogger
	kicks  chan struct{}
	outbox chan any
}

// kick requests a recompute. Pending kicks collapse into one.
func (s *session) kick() {
	select {
	case s.kicks <- struct{}{}:
	default:
	}
}

func (s *session) send(v any) {
	select {
	case s.outbox <- v:
	default:
		s.log.Warn("outbox full, dropping message")
	}
}

type result struct {
	seq     uint64
	frame   beam.Frame
	elapsed time.Duration
	err     error
}

// run debounces kicks, starts one synthesis pass at a time and cancels the
// pass in flight when a newer one is scheduled. Results from superseded
// passes are dropped.
func (s *session) run(ctx context.Context) {
	var (
		seq     uint64
		cancel  context.CancelFunc = func() {}
		timer   <-chan time.Time
		results = make(chan result, 1)
	)
	defer func() { cancel() }()

	for {
		select {
		case <-ctx.Done():
			return

		case <-s.kicks:
			timer = time.After(s.srv.debounce)

		case <-timer:
			timer = nil
			cancel()
			seq++
			var pctx context.Context
			pctx, cancel = context.WithCancel(ctx)
			go func(seq uint64) {
				start := time.Now()
				f, err := s.srv.frame(pctx, s.srv.Grid())
				select {
				case results <- result{seq: seq, frame: f, elapsed: time.Since(start), err: err}:
				case <-pctx.Done():
				}
			}(seq)

		case r := <-results:
			if r.seq != seq {
				continue
			}
			if r.err != nil {
				if !canceled(r.err) {
					s.write(errorMessage{Type: "error", Error: r.err.Error()})
				}
				continue
			}
			s.write(frameMessage{
				Type:    "frame",
				Seq:     r.seq,
				Elapsed: float64(r.elapsed.Microseconds()) / 1000,
				Frame:   r.frame,
			})

		case v := <-s.outbox:
			s.write(v)
		}
	}
}

func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (s *session) write(v any) {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(v); err != nil {
		s.log.WithError(err).Debug("write failed")
		s.conn.Close()
	}
}

func (s *session) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.WithError(err).Warn("stream read failed")
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.send(errorMessage{Type: "error", Error: "invalid JSON: " + err.Error()})
			continue
		}
		if err := s.handle(msg); err != nil {
			s.send(errorMessage{Type: "error", Error: err.Error()})
		}
	}
}

// handle applies one client message. Mutations kick every session through
// the server, so only a plain recompute kicks this one directly.
func (s *session) handle(msg Message) error {
	srv := s.srv
	switch msg.Action {
	case "recompute":
		s.kick()
		return nil
	case "update_array":
		if msg.Patch == nil {
			return fmt.Errorf("update_array: missing patch")
		}
		_, err := srv.patchArray(msg.Handle, *msg.Patch)
		return err
	case "set_element":
		if msg.Element == nil {
			return fmt.Errorf("set_element: missing element")
		}
		_, err := srv.updateElement(msg.Handle, msg.Index, *msg.Element)
		return err
	case "settings":
		if msg.Settings == nil {
			return fmt.Errorf("settings: missing settings")
		}
		_, err := srv.applySettings(*msg.Settings)
		return err
	case "add_array":
		cfg := beam.DefaultArrayConfig()
		cfg.Name = fmt.Sprintf("%s %d", beam.DefaultArrayName, srv.manager.Len()+1)
		if msg.Array != nil {
			cfg = *msg.Array
		}
		_, _, err := srv.addArray(cfg)
		return err
	case "remove_array":
		return srv.removeArray(msg.Handle)
	case "load_preset":
		_, err := srv.loadPreset(msg.Name)
		return err
	default:
		return fmt.Errorf("unknown action %q", msg.Action)
	}
}
