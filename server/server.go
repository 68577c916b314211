package server

import (
	"net"
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/moonvale/werewolf-server/broadcast"
	"github.com/moonvale/werewolf-server/game"
	"github.com/moonvale/werewolf-server/logger"
	"github.com/moonvale/werewolf-server/monitor"
	"github.com/moonvale/werewolf-server/network"
	werewolf_rpc "github.com/moonvale/werewolf-server/rpc"
	"github.com/moonvale/werewolf-server/services"
	"github.com/moonvale/werewolf-server/session"
)

// GameServer accepts clients over raw TCP and over a websocket endpoint that
// carries the identical framed protocol, and dispatches their packets into
// the game core.
type GameServer struct {
	tcpAddr string
	wsAddr  string
	rpcAddr string

	upgrader websocket.Upgrader
	sessions *session.Manager
	games    *game.Manager
	accounts *services.AccountService
	sender   *broadcast.SessionSender
	mon      *monitor.Monitor
	rpcSrv   *werewolf_rpc.Server

	tcpListener  net.Listener
	wsServer     *http.Server
	shutdownChan chan struct{}
}

func NewGameServer(tcpAddr, wsAddr, rpcAddr string, sessions *session.Manager,
	games *game.Manager, accounts *services.AccountService,
	sender *broadcast.SessionSender, mon *monitor.Monitor) *GameServer {

	s := &GameServer{
		tcpAddr:      tcpAddr,
		wsAddr:       wsAddr,
		rpcAddr:      rpcAddr,
		sessions:     sessions,
		games:        games,
		accounts:     accounts,
		sender:       sender,
		mon:          mon,
		shutdownChan: make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	if rpcAddr != "" {
		rpcServer, err := werewolf_rpc.NewServer(rpcAddr)
		if err != nil {
			logger.Log.Fatalf("Failed to create RPC server: %v", err)
		}
		s.rpcSrv = rpcServer
		rpc.Register(werewolf_rpc.NewAdminService(games, accounts))
	}

	return s
}

// Start brings up the RPC listener and the TCP accept loop, then blocks
// serving the websocket endpoint.
func (s *GameServer) Start() error {
	if s.rpcSrv != nil {
		go s.rpcSrv.Start()
	}

	listener, err := net.Listen("tcp", s.tcpAddr)
	if err != nil {
		return err
	}
	s.tcpListener = listener
	logger.Log.Infof("Game server listening on %s (tcp)", s.tcpAddr)
	go s.acceptLoop(listener)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	s.wsServer = &http.Server{Addr: s.wsAddr, Handler: mux}
	logger.Log.Infof("Game server listening on %s (websocket)", s.wsAddr)
	return s.wsServer.ListenAndServe()
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	if s.tcpListener != nil {
		s.tcpListener.Close()
	}
	if s.wsServer != nil {
		s.wsServer.Close()
	}
	if s.rpcSrv != nil {
		s.rpcSrv.Stop()
	}
}

func (s *GameServer) acceptLoop(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.shutdownChan:
				return
			default:
			}
			logger.Log.Errorf("TCP accept error: %v", err)
			continue
		}
		go s.handleConnection(network.NewTCPConnection(conn))
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
	sess := session.NewSession(uuid.New().String(), conn)
	s.sessions.Add(sess)
	if s.mon != nil {
		s.mon.IncOnlinePlayers()
	}

	logger.Log.Infof("New connection from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())
		s.teardown(sess)
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
			s.handlePacket(sess, packet)
		}
	}
}

// teardown releases everything the connection held: its room seat, its
// session entry, and the socket itself. The session sweep and the read
// loop's deferred cleanup can both get here for the same session; only
// the caller that actually removed the entry runs the cleanup, so the
// online gauge moves exactly once per connection.
func (s *GameServer) teardown(sess *session.Session) {
	if !s.sessions.Remove(sess.GetID()) {
		return
	}
	s.games.Disconnect(sess.GetID())
	sess.Close()
	if s.mon != nil {
		s.mon.DecOnlinePlayers()
	}
}

// SweepSessions pings idle clients and tears down the ones that have gone
// silent past the expiry window. Driven by the scheduler.
func (s *GameServer) SweepSessions(now time.Time) {
	for _, sess := range s.sessions.Sweep(now) {
		logger.Log.Infof("Session %s expired after prolonged silence", sess.GetID())
		s.teardown(sess)
	}
}

// RefreshMetrics updates the room gauges. Driven by the scheduler.
func (s *GameServer) RefreshMetrics(time.Time) {
	if s.mon == nil {
		return
	}
	s.mon.SetActiveRooms(s.games.ActiveRooms())
	s.mon.SetGamesInProgress(s.games.PlayingRooms())
}
