package rpc

import (
	"errors"
	"net"
	"net/rpc"

	"github.com/wfunc/fallarena/logger"
	"github.com/wfunc/fallarena/models"
	"github.com/wfunc/fallarena/room"
	"github.com/wfunc/fallarena/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer creates a new RPC server listening on addr.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      rpc.NewServer(),
	}, nil
}

// Register publishes the exported methods of rcvr.
func (s *Server) Register(rcvr interface{}) error {
	return s.rpc.Register(rcvr)
}

// Addr is the address actually bound, useful when listening on port 0.
func (s *Server) Addr() string {
	return s.address
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// StatusProvider reports the arena's current state.
type StatusProvider interface {
	Status() room.Status
}

// ArenaService is the struct that exposes RPC methods.
type ArenaService struct {
	stats  *services.StatsService
	status StatusProvider
}

func NewArenaService(stats *services.StatsService, status StatusProvider) *ArenaService {
	return &ArenaService{stats: stats, status: status}
}

type StatusArgs struct {
	Room string
}

type StatusReply struct {
	Status room.Status
}

// Status returns the room's phase and rosters.
func (as *ArenaService) Status(args *StatusArgs, reply *StatusReply) error {
	reply.Status = as.status.Status()
	return nil
}

type PlayerStatsArgs struct {
	Name string
}

type PlayerStatsReply struct {
	Stats models.PlayerStats
}

// PlayerStats looks a player up by name.
// It must follow the net/rpc signature: exported method, exported arguments,
// second argument is a pointer, return type is error.
func (as *ArenaService) PlayerStats(args *PlayerStatsArgs, reply *PlayerStatsReply) error {
	stats, err := as.stats.PlayerStats(args.Name)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}

type RecentRoundsArgs struct {
	Limit int
}

type RecentRoundsReply struct {
	Rounds []models.RoundRecord
}

func (as *ArenaService) RecentRounds(args *RecentRoundsArgs, reply *RecentRoundsReply) error {
	rounds, err := as.stats.RecentRounds(args.Limit)
	if err != nil {
		return err
	}
	reply.Rounds = rounds
	return nil
}
