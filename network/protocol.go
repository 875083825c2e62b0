package network

import (
	"encoding/json"
	"fmt"
)

const (
	MsgTypeHeartbeat = 1

	MsgTypeLogin  = 101
	MsgTypeLogout = 102

	MsgTypePosition = 201
	MsgTypeDig      = 202

	MsgTypeChat        = 301
	MsgTypeTeleport    = 302
	MsgTypeBlockChange = 303
	MsgTypeLoginOK     = 304
)

type LoginRequest struct {
	Name string `json:"name"`
}

type LoginOK struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Vec is a position on the wire.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type BlockPos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

type BlockChange struct {
	BlockPos
	Block string `json:"block"`
}

type Chat struct {
	Text string `json:"text"`
}

// Decode unmarshals a packet body into v.
func Decode(p *Packet, v interface{}) error {
	if err := json.Unmarshal(p.Data, v); err != nil {
		return fmt.Errorf("decode message %d: %w", p.MsgID, err)
	}
	return nil
}
