// broadcast/broadcast.go
package broadcast

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wfunc/fallarena/logger"
	"github.com/wfunc/fallarena/network"
	"github.com/wfunc/fallarena/session"
	"github.com/wfunc/fallarena/world"
)

// 广播接口
type Broadcaster interface {
	BroadcastToAll(msgID uint16, data []byte) error
	Broadcast(text string) error
}

// SessionBroadcaster fans messages out to every connected session.
type SessionBroadcaster struct {
	sessionManager *session.Manager
}

func NewSessionBroadcaster(sessionManager *session.Manager) *SessionBroadcaster {
	return &SessionBroadcaster{
		sessionManager: sessionManager,
	}
}

// BroadcastToAll keeps sending after a failed session and returns the joined errors.
func (b *SessionBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	var errs []error
	for _, s := range b.sessionManager.All() {
		if err := s.Send(msgID, data); err != nil {
			errs = append(errs, fmt.Errorf("send to %s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Broadcast sends a chat line to everyone in the shared space.
func (b *SessionBroadcaster) Broadcast(text string) error {
	data, err := json.Marshal(network.Chat{Text: text})
	if err != nil {
		return err
	}
	return b.BroadcastToAll(network.MsgTypeChat, data)
}

// BlockChanged is a world.Listener that mirrors block updates to clients.
func (b *SessionBroadcaster) BlockChanged(pos world.Pos, block world.Block) {
	data, err := json.Marshal(network.BlockChange{
		BlockPos: network.BlockPos{X: pos.X(), Y: pos.Y(), Z: pos.Z()},
		Block:    block.String(),
	})
	if err != nil {
		logger.Log.Warnf("Failed to encode block change at %v: %v", pos, err)
		return
	}
	if err := b.BroadcastToAll(network.MsgTypeBlockChange, data); err != nil {
		logger.Log.Warnf("Block change at %v not delivered: %v", pos, err)
	}
}
