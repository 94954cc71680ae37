package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/clueserver/api"
	"github.com/wfunc/clueserver/broadcast"
	"github.com/wfunc/clueserver/config"
	"github.com/wfunc/clueserver/game"
	"github.com/wfunc/clueserver/logger"
	"github.com/wfunc/clueserver/monitor"
	"github.com/wfunc/clueserver/network"
	"github.com/wfunc/clueserver/room"
	gameserver_rpc "github.com/wfunc/clueserver/rpc"
	"github.com/wfunc/clueserver/services"
	"github.com/wfunc/clueserver/session"
)

const requestTimeout = 10 * time.Second

type GameServer struct {
	addr           string
	wsPath         string
	heartbeat      time.Duration
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	broadcaster    broadcast.Broadcaster
	records        *services.RecordService
	monitor        *monitor.Monitor
	rpcServer      *gameserver_rpc.Server
	httpServer     *http.Server
	shutdownChan   chan struct{}
	shutdownOnce   sync.Once
}

// NewGameServer wires the transports around an existing room manager. The
// RPC listener is only opened when cfg.RPCAddress is set.
func NewGameServer(cfg config.ServerConfig, rooms *room.Manager, sessions *session.Manager, broadcaster broadcast.Broadcaster, records *services.RecordService, mon *monitor.Monitor) (*GameServer, error) {
	s := &GameServer{
		addr:           cfg.HTTPAddress,
		wsPath:         cfg.WSPath,
		heartbeat:      cfg.Heartbeat,
		roomManager:    rooms,
		sessionManager: sessions,
		broadcaster:    broadcaster,
		records:        records,
		monitor:        mon,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}
	if s.wsPath == "" {
		s.wsPath = "/ws"
	}

	if cfg.RPCAddress != "" {
		rpcServer, err := gameserver_rpc.NewServer(cfg.RPCAddress, gameserver_rpc.NewGameService(rooms.Engine(), records))
		if err != nil {
			return nil, err
		}
		s.rpcServer = rpcServer
	}
	return s, nil
}

// Handler serves the websocket endpoint, /metrics and the REST api.
func (s *GameServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.wsPath, s.handleWebSocket)
	if s.monitor != nil {
		mux.Handle("/metrics", s.monitor.Handler())
	}
	mux.Handle("/", api.NewRouter(s.roomManager, s.records))
	return mux
}

func (s *GameServer) Start() error {
	if s.rpcServer != nil {
		go s.rpcServer.Start()
	}

	s.httpServer = &http.Server{Addr: s.addr, Handler: s.Handler()}
	logger.Log.Infof("Game server listening on %s", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown tells every client, then stops the listeners and the rooms.
func (s *GameServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
		if data, e := json.Marshal(room.Event{Type: room.EventServerShutdown}); e == nil {
			s.broadcaster.BroadcastToAll(network.MsgTypeGameEvent, data)
		}

		if s.httpServer != nil {
			err = s.httpServer.Shutdown(ctx)
		}
		if s.rpcServer != nil {
			s.rpcServer.Stop()
		}
		for _, sess := range s.sessionManager.All() {
			sess.Close()
		}
		s.roomManager.Close()
	})
	return err
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game_id")
	playerID := r.URL.Query().Get("player_id")
	if gameID == "" {
		http.Error(w, "game_id must be supplied", http.StatusBadRequest)
		return
	}
	st, err := s.roomManager.Engine().GetState(r.Context(), gameID)
	if err != nil {
		http.Error(w, err.Error(), api.StatusOf(err))
		return
	}
	if _, ok := st.Player(playerID); playerID != "" && !ok {
		http.Error(w, "unknown player", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(network.NewWSConnection(conn), gameID, playerID)
}

func (s *GameServer) handleConnection(wsConn *network.WSConnection, gameID, playerID string) {
	if s.heartbeat > 0 {
		wsConn.SetHeartbeat(s.heartbeat)
	}
	sess := session.NewSession(uuid.New().String(), wsConn, gameID, playerID)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlineConnections()

	logger.Log.Infow("connection opened", "remote", wsConn.RemoteAddr().String(), "session_id", sess.GetID(), "game_id", gameID, "player_id", playerID)

	defer func() {
		logger.Log.Infow("connection closed", "remote", wsConn.RemoteAddr().String(), "session_id", sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlineConnections()
		wsConn.Close()
	}()

	s.handleGetState(sess, &network.Packet{MsgID: network.MsgTypeGetState})

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
		sess.Send(network.MsgTypeHeartbeat, nil)
	case network.MsgTypeStartGame:
		s.handleStartGame(sess, packet)
	case network.MsgTypeGetState:
		s.handleGetState(sess, packet)
	case network.MsgTypeGameAction:
		s.handleGameAction(sess, packet)
	case network.MsgTypeChat:
		s.handleChat(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		s.replyError(sess, packet.MsgID, game.ErrInvalidAction)
	}
}

func (s *GameServer) reply(sess *session.Session, msgID uint16, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorw("encode reply failed", "session_id", sess.GetID(), "msg_id", msgID, "error", err)
		return
	}
	if err := sess.Send(msgID, data); err != nil {
		logger.Log.Warnw("send reply failed", "session_id", sess.GetID(), "msg_id", msgID, "error", err)
	}
}

func (s *GameServer) replyError(sess *session.Session, request uint16, err error) {
	s.reply(sess, network.MsgTypeError, network.ErrorReply{
		Request: request,
		Reason:  game.ReasonOf(err),
		Message: err.Error(),
	})
}

func (s *GameServer) room(ctx context.Context, sess *session.Session, request uint16) (*room.Room, bool) {
	r, err := s.roomManager.Room(ctx, sess.GameID)
	if err != nil {
		s.replyError(sess, request, err)
		return nil, false
	}
	return r, true
}

func (s *GameServer) handleStartGame(sess *session.Session, packet *network.Packet) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	r, ok := s.room(ctx, sess, packet.MsgID)
	if !ok {
		return
	}
	st, err := r.Start(ctx)
	if err != nil {
		s.replyError(sess, packet.MsgID, err)
		return
	}
	s.reply(sess, network.MsgTypeStartGame, st)
}

// handleGetState answers with the player's view, or the public view for
// spectators.
func (s *GameServer) handleGetState(sess *session.Session, packet *network.Packet) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	engine := s.roomManager.Engine()
	if sess.PlayerID == "" {
		st, err := engine.GetState(ctx, sess.GameID)
		if err != nil {
			s.replyError(sess, packet.MsgID, err)
			return
		}
		s.reply(sess, network.MsgTypeGetState, st)
		return
	}
	ps, err := engine.GetPlayerState(ctx, sess.GameID, sess.PlayerID)
	if err != nil {
		s.replyError(sess, packet.MsgID, err)
		return
	}
	s.reply(sess, network.MsgTypePlayerState, ps)
}

func (s *GameServer) handleGameAction(sess *session.Session, packet *network.Packet) {
	if sess.PlayerID == "" {
		logger.Log.Warnf("Session %s sent game action without a seat", sess.GetID())
		s.replyError(sess, packet.MsgID, game.ErrActionUnavailable)
		return
	}
	action, err := game.ParseAction(packet.Data)
	if err != nil {
		s.replyError(sess, packet.MsgID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	r, ok := s.room(ctx, sess, packet.MsgID)
	if !ok {
		return
	}
	res, err := r.Act(ctx, sess.PlayerID, action)
	if err != nil {
		s.replyError(sess, packet.MsgID, err)
		return
	}
	s.reply(sess, network.MsgTypeGameAction, res)
}

func (s *GameServer) handleChat(sess *session.Session, packet *network.Packet) {
	var req network.ChatRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.replyError(sess, packet.MsgID, game.ErrInvalidAction)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	r, ok := s.room(ctx, sess, packet.MsgID)
	if !ok {
		return
	}
	msg, err := r.Chat(ctx, sess.PlayerID, req.Text)
	if err != nil {
		s.replyError(sess, packet.MsgID, err)
		return
	}
	s.reply(sess, network.MsgTypeChat, msg)
}
