package rpc

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"time"

	"github.com/wfunc/clueserver/game"
	"github.com/wfunc/clueserver/logger"
	"github.com/wfunc/clueserver/models"
	"github.com/wfunc/clueserver/services"
)

const callTimeout = 5 * time.Second

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer listens on addr and registers the game service.
func NewServer(addr string, service *GameService) (*Server, error) {
	server := rpc.NewServer()
	if err := server.Register(service); err != nil {
		return nil, err
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      server,
	}, nil
}

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

// GameService exposes read-only game queries to internal callers.
type GameService struct {
	engine  *game.Engine
	records *services.RecordService
}

func NewGameService(engine *game.Engine, records *services.RecordService) *GameService {
	return &GameService{engine: engine, records: records}
}

type GetStateArgs struct {
	GameID string
}

type GetStateReply struct {
	State *game.State
}

// GetState returns the public state of a game.
func (gs *GameService) GetState(args *GetStateArgs, reply *GetStateReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	st, err := gs.engine.GetState(ctx, args.GameID)
	if err != nil {
		return err
	}
	reply.State = st
	return nil
}

type GetPlayerStatsArgs struct {
	PlayerName string
}

type GetPlayerStatsReply struct {
	Stats *models.PlayerStats
}

func (gs *GameService) GetPlayerStats(args *GetPlayerStatsArgs, reply *GetPlayerStatsReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	stats, err := gs.records.GetPlayerStats(ctx, args.PlayerName)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}
