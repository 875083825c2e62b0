// session/session.go
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/wfunc/fallarena/logger"
	"github.com/wfunc/fallarena/network"
	"golang.org/x/time/rate"
)

// sendQueueSize holds a full floor rebuild's block changes plus chat.
const sendQueueSize = 1024

var (
	ErrSendQueueFull = errors.New("session send queue full")
	ErrSessionClosed = errors.New("session closed")
)

type outbound struct {
	msgID uint16
	data  []byte
}

// ParticipantID derives a stable id from a player name, the way offline-mode
// servers do, so a returning name keeps its history.
func ParticipantID(name string) string {
	return uuid.NewMD5(uuid.Nil, []byte("OfflinePlayer:"+name)).String()
}

type Session struct {
	ID         string
	Name       string
	Conn       network.Connection
	CreatedAt  time.Time
	lastActive time.Time
	position   mgl64.Vec3
	limiter    *rate.Limiter
	mutex      sync.RWMutex

	outbox    chan outbound
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func NewSession(name string, conn network.Connection, limiter *rate.Limiter) *Session {
	now := time.Now()
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	s := &Session{
		ID:         ParticipantID(name),
		Name:       name,
		Conn:       conn,
		CreatedAt:  now,
		lastActive: now,
		limiter:    limiter,
		outbox:     make(chan outbound, sendQueueSize),
		done:       make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) GetName() string {
	return s.Name
}

func (s *Session) Position() mgl64.Vec3 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.position
}

// SetPosition records a position reported by the client.
func (s *Session) SetPosition(pos mgl64.Vec3) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.position = pos
	s.lastActive = time.Now()
}

// Teleport moves the participant and tells its client.
func (s *Session) Teleport(pos mgl64.Vec3) error {
	s.mutex.Lock()
	s.position = pos
	s.mutex.Unlock()
	return network.SendJSON(s, network.MsgTypeTeleport, network.Vec{X: pos.X(), Y: pos.Y(), Z: pos.Z()})
}

// Allow reports whether another rate limited packet may be processed now.
func (s *Session) Allow() bool {
	return s.limiter.Allow()
}

func (s *Session) Touch() {
	s.mutex.Lock()
	s.lastActive = time.Now()
	s.mutex.Unlock()
}

func (s *Session) LastActive() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastActive
}

// Send queues a message for the session's writer and never blocks. A client
// too slow to drain its queue gets ErrSendQueueFull.
func (s *Session) Send(msgID uint16, data []byte) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.outbox <- outbound{msgID: msgID, data: data}:
		return nil
	default:
		return ErrSendQueueFull
	}
}

func (s *Session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.outbox:
			if err := s.Conn.Send(msg.msgID, msg.data); err != nil {
				logger.Log.Warnf("Write to %s failed, closing: %v", s.Name, err)
				s.Close()
				return
			}
		}
	}
}

// Close stops the writer and closes the connection. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.Conn.Close()
	})
	return s.closeErr
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// Add registers session. It returns false if a session with the same id is
// already connected.
func (m *Manager) Add(session *Session) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.sessions[session.ID]; exists {
		return false
	}
	m.sessions[session.ID] = session
	return true
}

// Remove deletes the session only if it is still the registered one.
func (m *Manager) Remove(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if current, exists := m.sessions[session.ID]; exists && current == session {
		delete(m.sessions, session.ID)
	}
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

// All returns a snapshot of the connected sessions.
func (m *Manager) All() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
