// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package stream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/tagwatch/internal/config"
	"github.com/tomtom215/tagwatch/internal/logging"
	"github.com/tomtom215/tagwatch/internal/metrics"
	"github.com/tomtom215/tagwatch/internal/schedule"
)

var (
	// ErrNoTags is returned by Connect when no tag is selected.
	ErrNoTags = errors.New("no tags selected")

	// ErrNotConnected is returned by operations that need a live session.
	ErrNotConnected = errors.New("not connected")
)

// ResetReason tells the handler why derived state must be cleared.
type ResetReason string

const (
	ResetManual ResetReason = "manual"
	ResetStale  ResetReason = "stale"
	ResetGaveUp ResetReason = "gave_up"
)

// Handler receives the output of the session. Callbacks run on socket
// goroutines and must not block.
type Handler interface {
	OnPosition(msg GISData)
	OnTriggerEvent(msg TriggerEvent)
	OnStateChange(from, to State)
	OnSystemEvent(text string)
	OnReset(reason ResetReason)
}

type stateChange struct{ from, to State }

// Manager owns the control and stream sockets of one RTLS session.
type Manager struct {
	cfg        config.StreamConfig
	controlURL *url.URL
	dialer     *websocket.Dialer
	handler    Handler
	logger     *zerolog.Logger
	now        func() time.Time

	mu        sync.Mutex
	state     State
	pending   []stateChange
	sockets   [2]*socket
	attempts  [2]int
	tagIDs    []string
	zoneID    int
	reqID     string
	streamURL string
	baseCtx   context.Context

	redirect  *schedule.Debouncer
	reconnect [2]*schedule.Debouncer

	gen             atomic.Uint64
	shouldReconnect atomic.Bool
	connected       atomic.Bool
	lastDataSeen    atomic.Int64
}

// NewManager creates a manager for the control socket at controlURL.
func NewManager(cfg config.StreamConfig, controlURL string, h Handler) (*Manager, error) {
	u, err := url.Parse(controlURL)
	if err != nil {
		return nil, fmt.Errorf("parse control url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("control url must use ws or wss, got %q", u.Scheme)
	}
	if h == nil {
		h = nopHandler{}
	}

	m := &Manager{
		cfg:        cfg,
		controlURL: u,
		dialer: &websocket.Dialer{
			HandshakeTimeout:  cfg.HandshakeTimeout,
			EnableCompression: true,
		},
		handler: h,
		logger:  logging.Component("stream"),
		now:     time.Now,
		baseCtx: context.Background(),
	}
	m.redirect = schedule.NewDebouncer(cfg.RedirectDelay, m.redirectNow)
	m.reconnect[kindControl] = schedule.NewDebouncer(cfg.ReconnectDelay, func() { m.reconnectNow(kindControl) })
	m.reconnect[kindStream] = schedule.NewDebouncer(cfg.ReconnectDelay, func() { m.reconnectNow(kindStream) })
	metrics.SetStreamState(StateIdle.String(), StateNames())
	return m, nil
}

// Connect starts a new session for tagIDs in zoneID. Any existing session is
// torn down first and its read loops are awaited. A failed first dial is returned and also retried in the
// background like any other lost socket.
func (m *Manager) Connect(ctx context.Context, tagIDs []string, zoneID int) error {
	if len(tagIDs) == 0 {
		return ErrNoTags
	}

	m.mu.Lock()
	old := m.teardownLocked()
	gen := m.gen.Load()
	m.tagIDs = append([]string(nil), tagIDs...)
	m.zoneID = zoneID
	m.reqID = uuid.NewString()
	m.streamURL = ""
	m.shouldReconnect.Store(true)
	m.unlockAndNotify()
	closeSockets(old)
	m.drain(ctx, old)

	m.logger.Info().
		Strs("tags", tagIDs).
		Int("zone_id", zoneID).
		Str("url", m.controlURL.String()).
		Msg("Connecting to RTLS")

	return m.openControl(ctx, gen)
}

// Disconnect closes both sockets, waits briefly for their read loops, and
// resets the session. Reconnects are disabled before any socket is closed.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.shouldReconnect.Store(false)

	m.mu.Lock()
	socks := m.teardownLocked()
	wasIdle := m.state == StateIdle
	if !wasIdle {
		m.transitionLocked(StateDisconnected)
	}
	m.unlockAndNotify()

	closeSockets(socks)
	m.drain(ctx, socks)

	m.connected.Store(false)
	m.lastDataSeen.Store(0)
	if wasIdle {
		return nil
	}

	m.logger.Info().Msg("Disconnected from RTLS")
	m.handler.OnReset(ResetManual)
	m.handler.OnSystemEvent("Disconnected from RTLS")
	return nil
}

// drain waits for the read loops of socks, bounded by DisconnectDrain.
func (m *Manager) drain(ctx context.Context, socks []*socket) {
	if len(socks) == 0 {
		return
	}
	timer := time.NewTimer(m.cfg.DisconnectDrain)
	defer timer.Stop()
	for _, s := range socks {
		select {
		case <-s.done:
		case <-timer.C:
			m.logger.Warn().Dur("drain", m.cfg.DisconnectDrain).Msg("Read loops did not stop in time")
			return
		case <-ctx.Done():
			return
		}
	}
}

// Serve runs the staleness watchdog until ctx is cancelled, then disconnects.
// Reconnect dials made while Serve runs inherit ctx.
func (m *Manager) Serve(ctx context.Context) error {
	m.mu.Lock()
	m.baseCtx = ctx
	m.mu.Unlock()

	ticker := time.NewTicker(m.cfg.StaleCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), m.cfg.DisconnectDrain)
			_ = m.Disconnect(shutdownCtx)
			cancel()
			return ctx.Err()
		case <-ticker.C:
			m.checkStale()
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (m *Manager) String() string { return "stream-manager" }

// Close stops all timers permanently and drops the session.
func (m *Manager) Close() error {
	err := m.Disconnect(context.Background())
	m.redirect.Stop()
	m.reconnect[kindControl].Stop()
	m.reconnect[kindStream].Stop()
	return err
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsConnected reports whether a socket is open and data is not stale.
func (m *Manager) IsConnected() bool {
	return m.connected.Load()
}

// LastDataSeen returns when the last heartbeat or data message arrived.
func (m *Manager) LastDataSeen() time.Time {
	ms := m.lastDataSeen.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Subscription returns the subscribed tags and zone.
func (m *Manager) Subscription() ([]string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tagIDs...), m.zoneID
}

// Status returns a snapshot for the operator API.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	streamURL := ""
	if s := m.sockets[kindStream]; s != nil {
		streamURL = s.url
	}
	return Status{
		State:        m.state,
		StateName:    m.state.String(),
		Connected:    m.connected.Load(),
		TagIDs:       append([]string(nil), m.tagIDs...),
		ZoneID:       m.zoneID,
		StreamURL:    streamURL,
		LastDataSeen: m.lastDataSeen.Load(),
	}
}

// openControl dials the control socket for session gen and subscribes.
func (m *Manager) openControl(ctx context.Context, gen uint64) error {
	if !m.enter(gen, StateControlConnecting) {
		return nil
	}

	conn, err := m.dial(ctx, m.controlURL.String())
	if err != nil {
		m.socketLost(kindControl, gen, err)
		return fmt.Errorf("dial control socket: %w", err)
	}

	sock := newSocket(kindControl, gen, m.controlURL.String(), conn, m.cfg.WriteTimeout)
	if !m.adopt(sock) {
		sock.close()
		return nil
	}
	if err := sock.writeJSON(m.subscription()); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to send BeginStream on control socket")
		sock.close()
	}
	return nil
}

// openStream dials the redirected stream socket for session gen.
func (m *Manager) openStream(gen uint64, rawURL string) {
	m.mu.Lock()
	if gen != m.gen.Load() || !m.shouldReconnect.Load() || rawURL == "" {
		m.mu.Unlock()
		return
	}
	prev := m.sockets[kindStream]
	m.sockets[kindStream] = nil
	m.transitionLocked(StateStreamConnecting)
	ctx := m.baseCtx
	m.unlockAndNotify()

	if prev != nil {
		prev.close()
	}

	m.logger.Info().Str("url", rawURL).Msg("Opening stream socket")

	conn, err := m.dial(ctx, rawURL)
	if err != nil {
		m.socketLost(kindStream, gen, err)
		return
	}
	sock := newSocket(kindStream, gen, rawURL, conn, m.cfg.WriteTimeout)
	if !m.adopt(sock) {
		sock.close()
		return
	}
	if err := sock.writeJSON(m.subscription()); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to send BeginStream on stream socket")
		sock.close()
	}
}

func (m *Manager) dial(ctx context.Context, rawURL string) (*websocket.Conn, error) {
	conn, resp, err := m.dialer.DialContext(ctx, rawURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", rawURL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}
	return conn, nil
}

// enter moves to state `to` if gen is still the live session.
func (m *Manager) enter(gen uint64, to State) bool {
	m.mu.Lock()
	if gen != m.gen.Load() || !m.shouldReconnect.Load() {
		m.mu.Unlock()
		return false
	}
	m.transitionLocked(to)
	m.unlockAndNotify()
	return true
}

// adopt installs sock as the live socket of its kind and starts its read
// loop. It returns false when the session moved on while sock was dialing.
func (m *Manager) adopt(sock *socket) bool {
	m.mu.Lock()
	if sock.gen != m.gen.Load() || !m.shouldReconnect.Load() {
		m.mu.Unlock()
		return false
	}
	prev := m.sockets[sock.kind]
	m.sockets[sock.kind] = sock
	m.attempts[sock.kind] = 0
	m.connected.Store(true)
	m.lastDataSeen.Store(m.now().UnixMilli())

	switch {
	case sock.kind == kindStream, m.sockets[kindStream] != nil:
		m.transitionLocked(StateStreamOpen)
	default:
		m.transitionLocked(StateControlOpen)
	}
	m.unlockAndNotify()

	if prev != nil {
		prev.close()
	}

	m.logger.Info().Str("socket", sock.kind.String()).Str("url", sock.url).Msg("Socket open")
	go m.readLoop(sock)
	return true
}

func (m *Manager) readLoop(sock *socket) {
	defer close(sock.done)
	for {
		_, data, err := sock.conn.ReadMessage()
		if err != nil {
			m.handleClose(sock, err)
			return
		}
		if sock.gen != m.gen.Load() {
			continue
		}
		m.handleMessage(sock, data)
	}
}

func (m *Manager) handleMessage(sock *socket, data []byte) {
	typ, err := decodeType(data)
	if err != nil {
		m.dropMalformed(sock, err)
		return
	}
	metrics.StreamMessages.WithLabelValues(typ).Inc()

	switch typ {
	case TypeHeartBeat:
		var hb HeartBeat
		if err := json.Unmarshal(data, &hb); err != nil {
			m.dropMalformed(sock, err)
			return
		}
		m.touch()
		reply := HeartBeat{
			Type: TypeHeartBeat,
			TS:   m.now().UnixMilli(),
			Data: HeartBeatData{HeartbeatID: hb.Data.HeartbeatID},
		}
		if err := sock.writeJSON(reply); err != nil {
			m.logger.Warn().Err(err).Str("socket", sock.kind.String()).Msg("Failed to echo heartbeat")
		}

	case TypePortRedirect:
		var msg PortRedirect
		if err := json.Unmarshal(data, &msg); err != nil {
			m.dropMalformed(sock, err)
			return
		}
		if msg.Port <= 0 || msg.Port > 65535 {
			m.dropMalformed(sock, fmt.Errorf("invalid redirect port %d", msg.Port))
			return
		}
		m.touch()
		if sock.kind != kindControl {
			m.logger.Debug().Int("port", msg.Port).Msg("Ignoring PortRedirect on stream socket")
			return
		}
		m.scheduleRedirect(sock.gen, RedirectURL(m.controlURL, msg, m.cfg.DefaultManager))

	case TypeGISData:
		var msg GISData
		if err := json.Unmarshal(data, &msg); err != nil {
			m.dropMalformed(sock, err)
			return
		}
		if msg.ID == "" {
			m.dropMalformed(sock, errors.New("GISData without ID"))
			return
		}
		m.touch()
		m.handler.OnPosition(msg)

	case TypeTriggerEvent:
		var msg TriggerEvent
		if err := json.Unmarshal(data, &msg); err != nil {
			m.dropMalformed(sock, err)
			return
		}
		m.touch()
		m.handler.OnTriggerEvent(msg)

	default:
		m.logger.Debug().Str("type", typ).Str("socket", sock.kind.String()).Msg("Ignoring message")
	}
}

func (m *Manager) dropMalformed(sock *socket, err error) {
	metrics.StreamMalformed.Inc()
	m.logger.Warn().Err(err).Str("socket", sock.kind.String()).Msg("Dropping malformed message")
}

// touch refreshes the last-data-seen clock.
func (m *Manager) touch() {
	m.lastDataSeen.Store(m.now().UnixMilli())
	m.connected.Store(true)
}

func (m *Manager) scheduleRedirect(gen uint64, streamURL string) {
	m.mu.Lock()
	if gen != m.gen.Load() {
		m.mu.Unlock()
		return
	}
	m.streamURL = streamURL
	m.redirect.Trigger()
	m.mu.Unlock()

	m.logger.Info().
		Str("url", streamURL).
		Dur("delay", m.cfg.RedirectDelay).
		Msg("PortRedirect received")
}

func (m *Manager) redirectNow() {
	m.mu.Lock()
	gen, target := m.gen.Load(), m.streamURL
	m.mu.Unlock()
	m.openStream(gen, target)
}

func (m *Manager) reconnectNow(kind socketKind) {
	m.mu.Lock()
	gen, target, ctx := m.gen.Load(), m.streamURL, m.baseCtx
	m.mu.Unlock()

	if kind == kindStream {
		m.openStream(gen, target)
		return
	}
	if err := m.openControl(ctx, gen); err != nil {
		m.logger.Warn().Err(err).Msg("Control reconnect failed")
	}
}

// handleClose runs when a read fails. Only the live socket of the live
// session may schedule a reconnect.
func (m *Manager) handleClose(sock *socket, err error) {
	m.mu.Lock()
	if m.sockets[sock.kind] != sock {
		m.mu.Unlock()
		sock.close()
		return
	}
	m.sockets[sock.kind] = nil
	if m.sockets[kindControl] == nil && m.sockets[kindStream] == nil {
		m.connected.Store(false)
	}
	m.mu.Unlock()
	sock.close()

	if !m.shouldReconnect.Load() {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		m.logger.Info().Str("socket", sock.kind.String()).Msg("Socket closed by server")
	} else {
		m.logger.Warn().Err(err).Str("socket", sock.kind.String()).Msg("Socket lost")
	}
	m.socketLost(sock.kind, sock.gen, err)
}

// socketLost schedules a reconnect of kind or gives up on the session.
func (m *Manager) socketLost(kind socketKind, gen uint64, cause error) {
	m.mu.Lock()
	if gen != m.gen.Load() || !m.shouldReconnect.Load() {
		m.mu.Unlock()
		return
	}

	if m.attempts[kind] >= m.cfg.MaxReconnectAttempts {
		socks := m.teardownLocked()
		m.transitionLocked(StateDisconnected)
		m.unlockAndNotify()
		closeSockets(socks)

		m.connected.Store(false)
		m.logger.Error().
			Str("socket", kind.String()).
			Int("attempts", m.cfg.MaxReconnectAttempts).
			Msg("Giving up on RTLS session")
		m.handler.OnSystemEvent(fmt.Sprintf("%s socket error: %v; gave up after %d reconnect attempts",
			kind, cause, m.cfg.MaxReconnectAttempts))
		m.handler.OnReset(ResetGaveUp)
		return
	}

	m.attempts[kind]++
	attempt := m.attempts[kind]
	m.transitionLocked(StateReconnecting)
	m.reconnect[kind].Trigger()
	m.unlockAndNotify()

	metrics.StreamReconnects.WithLabelValues(kind.String()).Inc()
	m.handler.OnSystemEvent(fmt.Sprintf("%s socket error: %v; reconnecting in %s (attempt %d/%d)",
		kind, cause, m.cfg.ReconnectDelay, attempt, m.cfg.MaxReconnectAttempts))
}

func (m *Manager) checkStale() {
	last := m.lastDataSeen.Load()
	if last == 0 || !m.connected.Load() {
		return
	}
	if m.now().UnixMilli()-last <= m.cfg.StaleAfter.Milliseconds() {
		return
	}
	if !m.connected.CompareAndSwap(true, false) {
		return
	}

	metrics.StreamStale.Inc()
	m.logger.Warn().Dur("stale_after", m.cfg.StaleAfter).Msg("No data from RTLS, marking disconnected")
	m.handler.OnSystemEvent(fmt.Sprintf("No data from RTLS for %s; marked disconnected", m.cfg.StaleAfter))
	m.handler.OnReset(ResetStale)
}

// teardownLocked invalidates the current session and returns its sockets.
func (m *Manager) teardownLocked() []*socket {
	m.gen.Add(1)
	m.redirect.Cancel()
	m.reconnect[kindControl].Cancel()
	m.reconnect[kindStream].Cancel()

	var socks []*socket
	for i, s := range m.sockets {
		if s != nil {
			socks = append(socks, s)
		}
		m.sockets[i] = nil
	}
	m.attempts = [2]int{}
	return socks
}

func (m *Manager) subscription() BeginStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return NewBeginStream(m.reqID, m.tagIDs, m.zoneID)
}

// transitionLocked records a state change to be published by unlockAndNotify.
func (m *Manager) transitionLocked(to State) {
	from := m.state
	if from == to {
		return
	}
	if !CanTransition(from, to) {
		m.logger.Error().Str("from", from.String()).Str("to", to.String()).Msg("Illegal stream state transition")
		return
	}
	m.state = to
	m.pending = append(m.pending, stateChange{from: from, to: to})
}

// unlockAndNotify releases m.mu and then publishes queued state changes.
func (m *Manager) unlockAndNotify() {
	changes := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, c := range changes {
		metrics.SetStreamState(c.to.String(), StateNames())
		m.logger.Debug().Str("from", c.from.String()).Str("to", c.to.String()).Msg("Stream state")
		m.handler.OnStateChange(c.from, c.to)
	}
}

func closeSockets(socks []*socket) {
	for _, s := range socks {
		s.close()
	}
}

type nopHandler struct{}

func (nopHandler) OnPosition(GISData) {}
func (nopHandler) OnTriggerEvent(TriggerEvent) {}
func (nopHandler) OnStateChange(State, State) {}
func (nopHandler) OnSystemEvent(string) {}
func (nopHandler) OnReset(ResetReason) {}
