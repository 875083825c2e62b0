package broadcast

import (
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/fallarena/network"
	"github.com/wfunc/fallarena/session"
	"github.com/wfunc/fallarena/world"
)

// MockConnection records sent packets and can be told to fail.
type MockConnection struct {
	mutex  sync.Mutex
	Sent   []*network.Packet
	Err    error
	Closed bool
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, &network.Packet{MsgID: msgID, Data: data})
	return nil
}

func (m *MockConnection) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Closed = true
	return nil
}

func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func (m *MockConnection) sent() []*network.Packet {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]*network.Packet(nil), m.Sent...)
}

func (m *MockConnection) closed() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.Closed
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestSessionBroadcaster_Broadcast(t *testing.T) {
	manager := session.NewManager()
	a, b := &MockConnection{}, &MockConnection{}
	manager.Add(session.NewSession("a", a, nil))
	manager.Add(session.NewSession("b", b, nil))

	bc := NewSessionBroadcaster(manager)
	if err := bc.Broadcast("A fell!"); err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}

	for _, conn := range []*MockConnection{a, b} {
		waitFor(t, func() bool { return len(conn.sent()) == 1 })
		sent := conn.sent()
		if sent[0].MsgID != network.MsgTypeChat {
			t.Fatalf("Expected a chat packet, got %d", sent[0].MsgID)
		}
		var chat network.Chat
		json.Unmarshal(sent[0].Data, &chat)
		if chat.Text != "A fell!" {
			t.Errorf("Expected chat text 'A fell!', got %q", chat.Text)
		}
	}
}

func TestSessionBroadcaster_ContinuesAfterFailure(t *testing.T) {
	manager := session.NewManager()
	broken := &MockConnection{Err: errors.New("closed")}
	ok := &MockConnection{}
	brokenSess := session.NewSession("broken", broken, nil)
	manager.Add(brokenSess)
	manager.Add(session.NewSession("ok", ok, nil))

	bc := NewSessionBroadcaster(manager)
	bc.Broadcast("hi")
	waitFor(t, broken.closed)
	waitFor(t, func() bool { return len(ok.sent()) == 1 })

	// The dead session now refuses sends and the error is reported.
	if err := bc.Broadcast("again"); !errors.Is(err, session.ErrSessionClosed) {
		t.Errorf("Expected the closed session to be reported, got %v", err)
	}
	waitFor(t, func() bool { return len(ok.sent()) == 2 })
}

func TestSessionBroadcaster_BlockChanged(t *testing.T) {
	manager := session.NewManager()
	conn := &MockConnection{}
	manager.Add(session.NewSession("a", conn, nil))

	NewSessionBroadcaster(manager).BlockChanged(world.Pos{1, 10, 2}, world.Air)

	waitFor(t, func() bool { return len(conn.sent()) == 1 })
	sent := conn.sent()
	if sent[0].MsgID != network.MsgTypeBlockChange {
		t.Fatalf("Expected a block change packet, got %d", sent[0].MsgID)
	}
	var change network.BlockChange
	json.Unmarshal(sent[0].Data, &change)
	if change.X != 1 || change.Y != 10 || change.Z != 2 || change.Block != "air" {
		t.Errorf("Unexpected block change %+v", change)
	}
}
