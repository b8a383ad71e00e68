package wifi

import (
	"log/slog"
	"sync"
	"time"

	"github.com/wachiwi/streamcam/pkg/config"
	"github.com/wachiwi/streamcam/pkg/logger"
)

// State is the connectivity posture of the device. Exactly one value holds
// at any instant; it is owned by the Manager and read by reporters through
// Snapshot.
type State string

const (
	StateIdle         State = "idle"
	StateJoining      State = "joining"
	StateClientJoined State = "client_joined"
	StateHostOnly     State = "host_only"
	StateReconnecting State = "reconnecting"
)

const (
	// ProbeInterval paces join and reconnect probes.
	ProbeInterval = 500 * time.Millisecond
	// InitialJoinProbes bounds the first join attempt after boot.
	InitialJoinProbes = 20
	// ReconnectProbes bounds rejoin attempts after a link drop.
	ReconnectProbes = 10
)

// Snapshot is a point-in-time read of the manager for status reporting.
type Snapshot struct {
	State           State
	ClientReachable bool
	ClientIP        string
	SignalStrength  int
}

// Manager owns the dual-network posture: it joins the configured client
// network, starts the self-hosted access point once the join resolves either
// way, and degrades toward host-only on any client-side failure. The access
// point is never torn down once started.
type Manager struct {
	mu    sync.Mutex
	link  Link
	creds config.NetworkConfig

	state     State
	budget    int
	lastProbe time.Time
	hostUp    bool

	now func() time.Time
}

func NewManager(link Link, creds config.NetworkConfig) *Manager {
	return &Manager{
		link:  link,
		creds: creds,
		state: StateIdle,
		now:   time.Now,
	}
}

// BeginJoin starts the initial join sequence. It is idempotent: calling it
// once the manager has left idle does nothing.
func (m *Manager) BeginJoin() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIdle {
		return
	}
	if err := m.link.StartJoin(m.creds.Client.SSID, m.creds.Client.Passphrase); err != nil {
		slog.Warn("client join could not start, falling back to host-only", "ssid", m.creds.Client.SSID, "error", err)
		m.startHost()
		m.state = StateHostOnly
		return
	}
	m.state = StateJoining
	m.budget = InitialJoinProbes
	m.lastProbe = time.Time{}
	slog.Info("joining client network", "ssid", m.creds.Client.SSID, "probes", m.budget)
}

// Tick advances the state machine by at most one step. It is meant to be
// driven at sub-second cadence; in a probing state it performs at most one
// probe per call and calls arriving faster than the probe interval are
// no-ops.
func (m *Manager) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateJoining:
		m.probe(StateClientJoined, StateHostOnly)
	case StateReconnecting:
		m.probe(StateClientJoined, StateHostOnly)
	case StateClientJoined:
		m.monitor()
	}
}

// probe runs one paced join probe, moving to success on a completed join or
// to fallback once the budget is exhausted. The access point is started when
// the sequence resolves, and only if it is not already up.
func (m *Manager) probe(success, fallback State) {
	now := m.now()
	if !m.lastProbe.IsZero() && now.Sub(m.lastProbe) < ProbeInterval {
		return
	}
	m.lastProbe = now

	if m.link.JoinComplete() {
		m.startHost()
		m.state = success
		slog.Info("client network joined", "ssid", m.creds.Client.SSID)
		return
	}

	m.budget--
	if m.budget <= 0 {
		m.budget = 0
		m.startHost()
		m.state = fallback
		slog.Warn("client join abandoned, host-only fallback", "ssid", m.creds.Client.SSID)
	}
}

// monitor watches link liveness in the joined steady state.
func (m *Manager) monitor() {
	now := m.now()
	if !m.lastProbe.IsZero() && now.Sub(m.lastProbe) < ProbeInterval {
		return
	}
	m.lastProbe = now

	if m.link.LinkUp() {
		return
	}

	slog.Warn("client link lost, reconnecting", "ssid", m.creds.Client.SSID)
	if err := m.link.StartJoin(m.creds.Client.SSID, m.creds.Client.Passphrase); err != nil {
		slog.Warn("rejoin could not start, host-only fallback", "error", err)
		m.state = StateHostOnly
		return
	}
	m.state = StateReconnecting
	m.budget = ReconnectProbes
	m.lastProbe = time.Time{}
}

// startHost brings up the self-hosted network. Its startup is treated as
// infallible: a failure here means the device has no reachable surface at
// all, so the firmware halts.
func (m *Manager) startHost() {
	if m.hostUp {
		return
	}
	if err := m.link.StartAccessPoint(m.creds.AccessPoint.SSID, m.creds.AccessPoint.Passphrase); err != nil {
		logger.Fatal("failed to start access point", "ssid", m.creds.AccessPoint.SSID, "error", err)
	}
	m.hostUp = true
	slog.Info("access point up", "ssid", m.creds.AccessPoint.SSID)
}

// RetryJoin is the external re-trigger out of host-only fallback. Without it
// the manager never re-attempts the client network on its own.
func (m *Manager) RetryJoin() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateHostOnly {
		return
	}
	if err := m.link.StartJoin(m.creds.Client.SSID, m.creds.Client.Passphrase); err != nil {
		slog.Warn("retriggered join could not start", "error", err)
		return
	}
	m.state = StateJoining
	m.budget = InitialJoinProbes
	m.lastProbe = time.Time{}
	slog.Info("retriggered client join", "ssid", m.creds.Client.SSID)
}

// CurrentState returns the state without side effects.
func (m *Manager) CurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsClientReachable reports whether the device is a member of the client
// network right now. Only the joined steady state counts; joining and
// reconnecting do not.
func (m *Manager) IsClientReachable() bool {
	return m.CurrentState() == StateClientJoined
}

// Snapshot captures the manager for display. Link details are only filled
// in while the client network is joined.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		State:           m.state,
		ClientReachable: m.state == StateClientJoined,
	}
	if s.ClientReachable {
		info := m.link.Info()
		s.ClientIP = info.IP
		s.SignalStrength = info.SignalStrength
	}
	return s
}
