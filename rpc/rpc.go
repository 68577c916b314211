package rpc

import (
	"net"
	"net/rpc"

	"github.com/moonvale/werewolf-server/game"
	"github.com/moonvale/werewolf-server/logger"
	"github.com/moonvale/werewolf-server/models"
	"github.com/moonvale/werewolf-server/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server. Services must be registered with the
// net/rpc package before Start is called.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes operational queries over net/rpc: the live room list
// and per-account win/loss records.
type AdminService struct {
	games    *game.Manager
	accounts *services.AccountService
}

func NewAdminService(games *game.Manager, accounts *services.AccountService) *AdminService {
	return &AdminService{games: games, accounts: accounts}
}

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []game.RoomSummary
}

func (as *AdminService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	reply.Rooms = as.games.Rooms()
	return nil
}

type PlayerStatsArgs struct {
	UserID int64
}

type PlayerStatsReply struct {
	Stats *models.PlayerStats
}

func (as *AdminService) GetPlayerStats(args *PlayerStatsArgs, reply *PlayerStatsReply) error {
	stats, err := as.accounts.Stats(args.UserID)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}
