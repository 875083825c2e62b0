package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/wfunc/fallarena/config"
	"github.com/wfunc/fallarena/logger"
	"github.com/wfunc/fallarena/monitor"
	"github.com/wfunc/fallarena/network"
	"github.com/wfunc/fallarena/room"
	"github.com/wfunc/fallarena/roster"
	fallarena_rpc "github.com/wfunc/fallarena/rpc"
	"github.com/wfunc/fallarena/services"
	"github.com/wfunc/fallarena/session"
	"github.com/wfunc/fallarena/world"
	"golang.org/x/time/rate"
)

const (
	heartbeatInterval = 15 * time.Second
	maxNameLength     = 16
)

var (
	ErrNotLoggedIn = errors.New("first packet must be a login")
	ErrBadName     = errors.New("player name must be 1-16 characters")
	ErrNameTaken   = errors.New("player name already online")
)

// Arena is what the server needs from the room.
type Arena interface {
	Join(p roster.Participant)
	Leave(id string)
	Dig(p roster.Participant, pos world.Pos)
	Status() room.Status
}

type Options struct {
	Server   config.ServerConfig
	Limits   config.LimitsConfig
	Arena    Arena
	Sessions *session.Manager
	Monitor  *monitor.Monitor
	Stats    *services.StatsService
}

type GameServer struct {
	addr           string
	upgrader       websocket.Upgrader
	router         *chi.Mux
	httpServer     *http.Server
	arena          Arena
	sessionManager *session.Manager
	monitor        *monitor.Monitor
	limits         config.LimitsConfig
	rpcServer      *fallarena_rpc.Server
	shutdownOnce   sync.Once
	shutdownChan   chan struct{}
}

// NewGameServer wires the HTTP routes and, when an RPC address is configured,
// binds the RPC listener. Nothing is served until Start.
func NewGameServer(opts Options) (*GameServer, error) {
	s := &GameServer{
		addr:           opts.Server.HTTPAddress,
		arena:          opts.Arena,
		sessionManager: opts.Sessions,
		monitor:        opts.Monitor,
		limits:         opts.Limits,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 跨域由 cors 中间件处理
			},
		},
	}
	if s.sessionManager == nil {
		s.sessionManager = session.NewManager()
	}

	s.router = s.newRouter(opts.Server.AllowedOrigins)
	s.httpServer = &http.Server{Addr: s.addr, Handler: s.router}

	if opts.Server.RPCAddress != "" && opts.Stats != nil {
		rpcServer, err := fallarena_rpc.NewServer(opts.Server.RPCAddress)
		if err != nil {
			return nil, fmt.Errorf("create rpc server: %w", err)
		}
		if err := rpcServer.Register(fallarena_rpc.NewArenaService(opts.Stats, opts.Arena)); err != nil {
			rpcServer.Stop()
			return nil, fmt.Errorf("register arena service: %w", err)
		}
		s.rpcServer = rpcServer
	}
	return s, nil
}

func (s *GameServer) newRouter(origins []string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/ws", s.handleWebSocket)
	r.Get("/status", s.handleStatus)
	if s.monitor != nil {
		r.Method(http.MethodGet, "/metrics", s.monitor.Handler())
	}
	return r
}

// Router exposes the HTTP handler, mainly for tests.
func (s *GameServer) Router() http.Handler {
	return s.router
}

func (s *GameServer) Start() error {
	if s.rpcServer != nil {
		go s.rpcServer.Start()
	}

	logger.Log.Infof("Game server listening on %s", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *GameServer) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() { close(s.shutdownChan) })
	if s.rpcServer != nil {
		s.rpcServer.Stop()
	}
	for _, sess := range s.sessionManager.All() {
		sess.Close()
	}
	return s.httpServer.Shutdown(ctx)
}

type statusResponse struct {
	room.Status
	Online int    `json:"online"`
	Uptime string `json:"uptime,omitempty"`
}

func (s *GameServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status: s.arena.Status(),
		Online: s.sessionManager.Count(),
	}
	if s.monitor != nil {
		resp.Uptime = s.monitor.Uptime().Truncate(time.Second).String()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Log.Warnf("Failed to write status: %v", err)
	}
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(network.NewWSConnection(conn))
}

func (s *GameServer) handleConnection(conn network.Connection) {
	conn.SetHeartbeat(heartbeatInterval)

	sess, err := s.login(conn)
	if err != nil {
		logger.Log.Infof("Rejected connection from %s: %v", conn.RemoteAddr(), err)
		conn.Close()
		return
	}

	logger.Log.Infof("New connection from %s, player %s (%s)", conn.RemoteAddr(), sess.GetName(), sess.GetID())
	if s.monitor != nil {
		s.monitor.IncOnlinePlayers()
	}
	s.arena.Join(sess)

	defer func() {
		logger.Log.Infof("Connection closed from %s, player %s", conn.RemoteAddr(), sess.GetName())
		s.arena.Leave(sess.GetID())
		s.sessionManager.Remove(sess)
		if s.monitor != nil {
			s.monitor.DecOnlinePlayers()
		}
		sess.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := conn.ReadPacket()
			if err != nil {
				return
			}
			if !s.handlePacket(sess, packet) {
				return
			}
		}
	}
}

// login reads the first packet, which must carry the player's name.
func (s *GameServer) login(conn network.Connection) (*session.Session, error) {
	packet, err := conn.ReadPacket()
	if err != nil {
		return nil, err
	}
	if packet.MsgID != network.MsgTypeLogin {
		return nil, ErrNotLoggedIn
	}
	var req network.LoginRequest
	if err := network.Decode(packet, &req); err != nil {
		return nil, err
	}
	if req.Name == "" || len(req.Name) > maxNameLength {
		return nil, ErrBadName
	}

	sess := session.NewSession(req.Name, conn, s.newLimiter())
	if !s.sessionManager.Add(sess) {
		sess.Close()
		return nil, ErrNameTaken
	}
	if err := network.SendJSON(sess, network.MsgTypeLoginOK, network.LoginOK{ID: sess.GetID(), Name: sess.GetName()}); err != nil {
		s.sessionManager.Remove(sess)
		sess.Close()
		return nil, fmt.Errorf("send login ok: %w", err)
	}
	return sess, nil
}

func (s *GameServer) newLimiter() *rate.Limiter {
	if s.limits.PacketsPerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(s.limits.PacketsPerSecond), s.limits.Burst)
}

// handlePacket returns false when the connection should be closed.
func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) bool {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
	case network.MsgTypeLogout:
		return false
	case network.MsgTypePosition:
		if !sess.Allow() {
			return true
		}
		var v network.Vec
		if err := network.Decode(packet, &v); err != nil {
			logger.Log.Warnf("Bad position from %s: %v", sess.GetName(), err)
			return true
		}
		sess.SetPosition(mgl64.Vec3{v.X, v.Y, v.Z})
	case network.MsgTypeDig:
		if !sess.Allow() {
			return true
		}
		var p network.BlockPos
		if err := network.Decode(packet, &p); err != nil {
			logger.Log.Warnf("Bad dig from %s: %v", sess.GetName(), err)
			return true
		}
		s.arena.Dig(sess, world.Pos{p.X, p.Y, p.Z})
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
	return true
}
