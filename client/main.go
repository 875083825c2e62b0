package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wfunc/fallarena/logger"
	"github.com/wfunc/fallarena/network"
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, v interface{}) error {
	var data []byte
	if v != nil {
		var err error
		if data, err = json.Marshal(v); err != nil {
			return err
		}
	}
	packet, err := network.Encode(msgID, data)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, packet)
}

// parseCommand turns a stdin line into a packet. Supported:
//
//	pos x y z   report a position
//	dig x y z   break a floor block
//	fall        report a position far below the floor
//	quit        log out
func parseCommand(line string, last network.Vec) (uint16, interface{}, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, nil, fmt.Errorf("empty command")
	}
	switch fields[0] {
	case "pos":
		var v network.Vec
		if _, err := fmt.Sscanf(line, "pos %g %g %g", &v.X, &v.Y, &v.Z); err != nil {
			return 0, nil, err
		}
		return network.MsgTypePosition, v, nil
	case "dig":
		var p network.BlockPos
		if _, err := fmt.Sscanf(line, "dig %d %d %d", &p.X, &p.Y, &p.Z); err != nil {
			return 0, nil, err
		}
		return network.MsgTypeDig, p, nil
	case "fall":
		last.Y = 0
		return network.MsgTypePosition, last, nil
	case "quit":
		return network.MsgTypeLogout, nil, nil
	}
	return 0, nil, fmt.Errorf("unknown command %q", fields[0])
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	name := flag.String("name", "bot", "player name")
	flag.Parse()

	logger.Init("info")
	defer logger.Sync()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	logger.Log.Infof("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	if err := send(c, network.MsgTypeLogin, network.LoginRequest{Name: *name}); err != nil {
		logger.Log.Fatalf("Login failed: %v", err)
	}

	done := make(chan struct{})
	positions := make(chan network.Vec, 1)

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				logger.Log.Infof("Read error: %v", err)
				return
			}
			packet, err := network.Parse(message)
			if err != nil {
				logger.Log.Warnf("Received invalid packet of size %d", len(message))
				continue
			}
			switch packet.MsgID {
			case network.MsgTypeChat:
				var chat network.Chat
				if network.Decode(packet, &chat) == nil {
					logger.Log.Infof("[chat] %s", chat.Text)
				}
			case network.MsgTypeTeleport:
				var v network.Vec
				if network.Decode(packet, &v) == nil {
					logger.Log.Infof("Teleported to %.0f %.0f %.0f", v.X, v.Y, v.Z)
					select {
					case positions <- v:
					default:
					}
				}
			case network.MsgTypeBlockChange:
				// Too chatty to log.
			default:
				logger.Log.Infof("<- RECV (ID: %d): %s", packet.MsgID, string(packet.Data))
			}
		}
	}()

	lines := make(chan string)
	go func() {
		reader := bufio.NewScanner(os.Stdin)
		for reader.Scan() {
			lines <- reader.Text()
		}
	}()

	logger.Log.Info("Client started. Commands: pos x y z, dig x y z, fall, quit")

	heartbeat := time.NewTicker(5 * time.Second)
	defer heartbeat.Stop()

	var last network.Vec
	for {
		select {
		case <-done:
			return
		case v := <-positions:
			last = v
			if err := send(c, network.MsgTypePosition, v); err != nil {
				logger.Log.Warnf("Write error: %v", err)
				return
			}
		case <-heartbeat.C:
			if err := send(c, network.MsgTypeHeartbeat, nil); err != nil {
				logger.Log.Warnf("Write error: %v", err)
				return
			}
		case line := <-lines:
			msgID, body, err := parseCommand(line, last)
			if err != nil {
				logger.Log.Warnf("%v", err)
				continue
			}
			if err := send(c, msgID, body); err != nil {
				logger.Log.Warnf("Write error: %v", err)
				return
			}
			if v, ok := body.(network.Vec); ok {
				last = v
			}
		case <-interrupt:
			logger.Log.Info("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				logger.Log.Warnf("Write close error: %v", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		}
	}
}
