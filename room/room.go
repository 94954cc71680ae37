package room

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wfunc/clueserver/agent"
	"github.com/wfunc/clueserver/game"
	"github.com/wfunc/clueserver/logger"
	"github.com/wfunc/clueserver/monitor"
	"github.com/wfunc/clueserver/state"
)

// ErrRoomClosed is returned for requests made after Close.
var ErrRoomClosed = errors.New("room closed")

const (
	defaultTick       = 100 * time.Millisecond
	defaultAgentDelay = 1500 * time.Millisecond
	defaultShowDelay  = time.Second
	defaultIdleTTL    = 30 * time.Minute
	driverTimeout     = 5 * time.Second
)

type settings struct {
	tick       time.Duration
	agentDelay time.Duration
	showDelay  time.Duration
	idleTTL    time.Duration
	monitor    *monitor.Monitor
	recorder   Recorder
	seed       uint64
}

// Option configures rooms and the manager that owns them.
type Option func(*settings)

func WithMonitor(m *monitor.Monitor) Option {
	return func(s *settings) { s.monitor = m }
}

func WithRecorder(rec Recorder) Option {
	return func(s *settings) { s.recorder = rec }
}

// WithPacing sets the loop tick and how long automated seats wait before
// taking a turn or answering a disclosure.
func WithPacing(tick, agentDelay, showDelay time.Duration) Option {
	return func(s *settings) {
		if tick > 0 {
			s.tick = tick
		}
		s.agentDelay = agentDelay
		s.showDelay = showDelay
	}
}

// WithIdleTTL sets how long a room may sit without actions before Sweep
// drops it.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *settings) { s.idleTTL = ttl }
}

// WithSeed makes agent decisions reproducible.
func WithSeed(seed uint64) Option {
	return func(s *settings) { s.seed = seed }
}

func newSettings(opts []Option) settings {
	s := settings{
		tick:       defaultTick,
		agentDelay: defaultAgentDelay,
		showDelay:  defaultShowDelay,
		idleTTL:    defaultIdleTTL,
		seed:       uint64(time.Now().UnixNano()),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

type request struct {
	ctx   context.Context
	fn    func(ctx context.Context) (any, error)
	reply chan response
}

type response struct {
	value any
	err   error
}

// Room serializes every mutation of one game through its own goroutine and
// drives the automated seats between human actions.
type Room struct {
	ID          string
	CreatedAt   time.Time
	engine      *game.Engine
	broadcaster Broadcaster
	monitor     *monitor.Monitor
	recorder    Recorder
	rng         *rand.Rand

	tick       time.Duration
	agentDelay time.Duration
	showDelay  time.Duration

	// owned by the loop goroutine
	agents   map[string]agent.Player
	armedKey string
	actAt    time.Time

	finished   atomic.Bool
	lastActive atomic.Int64

	requests  chan request
	closeChan chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// NewRoom starts the room loop for an existing game.
func NewRoom(id string, engine *game.Engine, broadcaster Broadcaster, opts ...Option) *Room {
	return newRoom(id, engine, broadcaster, newSettings(opts))
}

func newRoom(id string, engine *game.Engine, broadcaster Broadcaster, s settings) *Room {
	room := &Room{
		ID:          id,
		CreatedAt:   time.Now(),
		engine:      engine,
		broadcaster: broadcaster,
		monitor:     s.monitor,
		recorder:    s.recorder,
		rng:         rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15)),
		tick:        s.tick,
		agentDelay:  s.agentDelay,
		showDelay:   s.showDelay,
		agents:      make(map[string]agent.Player),
		requests:    make(chan request),
		closeChan:   make(chan struct{}),
		done:        make(chan struct{}),
	}
	room.touch()
	go room.loop()
	return room
}

// call runs fn on the room goroutine and waits for its answer.
func call[T any](ctx context.Context, r *Room, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	req := request{
		ctx:   ctx,
		fn:    func(ctx context.Context) (any, error) { return fn(ctx) },
		reply: make(chan response, 1),
	}
	select {
	case r.requests <- req:
	case <-r.done:
		return zero, ErrRoomClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case resp := <-req.reply:
		if resp.err != nil {
			return zero, resp.err
		}
		return resp.value.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// loop is the room main loop. Requests and agent turns share it, so a game
// never sees two writers at once.
func (r *Room) loop() {
	ticker := time.NewTicker(r.tick)
	defer close(r.done)
	defer ticker.Stop()

	r.restoreAgents()
	for {
		select {
		case req := <-r.requests:
			value, err := req.fn(req.ctx)
			req.reply <- response{value: value, err: err}
		case <-ticker.C:
			r.Update()
		case <-r.closeChan:
			return
		}
	}
}

// Close stops the loop. Pending and later requests get ErrRoomClosed.
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.closeChan) })
}

// Done is closed once the loop has exited.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

func (r *Room) closing() bool {
	select {
	case <-r.closeChan:
		return true
	default:
		return false
	}
}

func (r *Room) Finished() bool {
	return r.finished.Load()
}

// LastActive is the time of the last accepted request.
func (r *Room) LastActive() time.Time {
	return time.Unix(0, r.lastActive.Load())
}

func (r *Room) touch() {
	r.lastActive.Store(time.Now().UnixNano())
}

// Join seats a player in a waiting game.
func (r *Room) Join(ctx context.Context, playerID, name string, typ game.PlayerType) (*game.Player, error) {
	return call(ctx, r, func(ctx context.Context) (*game.Player, error) {
		p, err := r.engine.AddPlayer(ctx, r.ID, playerID, name, typ)
		if err != nil {
			return nil, err
		}
		r.touch()
		r.Broadcast(EventPlayerJoined, p)
		return p, nil
	})
}

// Start deals the cards and hands the first turn out.
func (r *Room) Start(ctx context.Context) (*game.State, error) {
	return call(ctx, r, func(ctx context.Context) (*game.State, error) {
		st, err := r.engine.Start(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		r.touch()
		r.seatAgents(ctx, st)
		r.Broadcast(EventGameStarted, st)
		for _, p := range st.Players {
			if p.Type != game.Human {
				continue
			}
			hand, err := r.engine.Hand(ctx, r.ID, p.ID)
			if err != nil {
				logger.Log.Errorw("load hand failed", "game_id", r.ID, "player_id", p.ID, "error", err)
				continue
			}
			r.SendTo(p.ID, EventYourCards, map[string]any{"cards": hand})
		}
		logger.Log.Infow("game started", "game_id", r.ID, "players", len(st.Players), "agents", len(r.agents))
		return st, nil
	})
}

// Act applies an action on behalf of playerID.
func (r *Room) Act(ctx context.Context, playerID string, action game.Action) (*game.Result, error) {
	return call(ctx, r, func(ctx context.Context) (*game.Result, error) {
		if chat, ok := action.(game.Chat); ok {
			msg, err := r.chat(ctx, playerID, chat.Text)
			if err != nil {
				return nil, err
			}
			return &game.Result{Type: game.ActionChat, PlayerID: playerID, Text: msg.Text}, nil
		}
		return r.apply(ctx, playerID, action)
	})
}

// Chat posts a chat message. Chat is allowed in every phase.
func (r *Room) Chat(ctx context.Context, playerID, text string) (*game.ChatMessage, error) {
	return call(ctx, r, func(ctx context.Context) (*game.ChatMessage, error) {
		return r.chat(ctx, playerID, text)
	})
}

func (r *Room) chat(ctx context.Context, playerID, text string) (*game.ChatMessage, error) {
	msg, err := r.engine.AddChat(ctx, r.ID, playerID, text)
	if err != nil {
		return nil, err
	}
	r.touch()
	r.Broadcast(EventChatMessage, msg)
	return msg, nil
}

// State reads the public game state. Reads do not go through the loop.
func (r *Room) State(ctx context.Context) (*game.State, error) {
	return r.engine.GetState(ctx, r.ID)
}

func (r *Room) PlayerState(ctx context.Context, playerID string) (*game.PlayerState, error) {
	return r.engine.GetPlayerState(ctx, r.ID, playerID)
}

func (r *Room) apply(ctx context.Context, playerID string, action game.Action) (*game.Result, error) {
	start := time.Now()
	res, err := r.engine.ProcessAction(ctx, r.ID, playerID, action)
	r.monitor.ObserveActionLatency(time.Since(start))
	if err != nil {
		r.monitor.IncActionsRejected(game.ReasonOf(err))
		return nil, err
	}
	r.monitor.IncActionsProcessed(string(action.Type()))
	r.touch()

	r.observe(playerID, action, res)
	r.publish(ctx, playerID, action, res)
	if res.GameOver {
		r.finish(ctx, res)
	}
	return res, nil
}

// observe tells automated seats what they learned from an action.
func (r *Room) observe(playerID string, action game.Action, res *game.Result) {
	switch action.(type) {
	case game.ShowCard:
		if ag, ok := r.agents[res.SuggestingPlayerID]; ok {
			ag.ObserveShownCard(res.Card, playerID)
		}
	case game.Suggest:
		if res.PendingShowBy != "" {
			return
		}
		if ag, ok := r.agents[playerID]; ok {
			ag.ObserveSuggestionNoShow(res.Suspect, res.Weapon, res.Room)
		}
	}
}

func (r *Room) publish(ctx context.Context, playerID string, action game.Action, res *game.Result) {
	switch action.(type) {
	case game.Move:
		r.Broadcast(EventPlayerMoved, map[string]any{
			"player_id": playerID,
			"dice":      res.Dice,
			"reached":   res.Reached,
			"room":      res.Room,
			"position":  res.Position,
		})
	case game.Suggest:
		r.Broadcast(EventSuggestionMade, map[string]any{
			"player_id":            playerID,
			"suspect":              res.Suspect,
			"weapon":               res.Weapon,
			"room":                 res.Room,
			"pending_show_by":      res.PendingShowBy,
			"moved_suspect_player": res.MovedSuspectPlayer,
		})
		if res.PendingShowBy == "" {
			return
		}
		ps, err := r.engine.GetPlayerState(ctx, r.ID, res.PendingShowBy)
		if err != nil || ps.PendingShowCard == nil {
			logger.Log.Errorw("load pending disclosure failed", "game_id", r.ID, "player_id", res.PendingShowBy, "error", err)
			return
		}
		r.SendTo(res.PendingShowBy, EventShowCardRequest, map[string]any{
			"suggesting_player_id": playerID,
			"suspect":              res.Suspect,
			"weapon":               res.Weapon,
			"room":                 res.Room,
			"matching_cards":       ps.PendingShowCard.MatchingCards,
		})
	case game.ShowCard:
		r.SendTo(res.SuggestingPlayerID, EventCardShown, map[string]any{
			"shown_by": playerID,
			"card":     res.Card,
		})
		r.Broadcast(EventCardShownPublic, map[string]any{
			"shown_by": playerID,
			"shown_to": res.SuggestingPlayerID,
		})
	case game.Accuse:
		r.Broadcast(EventAccusationMade, map[string]any{
			"player_id": playerID,
			"suspect":   res.Suspect,
			"weapon":    res.Weapon,
			"room":      res.Room,
			"correct":   res.Correct,
		})
		if res.GameOver {
			r.Broadcast(EventGameOver, map[string]any{
				"winner":   res.Winner,
				"solution": res.Solution,
			})
			return
		}
		r.broadcastState(ctx)
	case game.EndTurn:
		r.broadcastState(ctx)
	}
}

func (r *Room) broadcastState(ctx context.Context) {
	st, err := r.engine.GetState(ctx, r.ID)
	if err != nil {
		logger.Log.Errorw("load state failed", "game_id", r.ID, "error", err)
		return
	}
	r.Broadcast(EventGameState, st)
}

func (r *Room) finish(ctx context.Context, res *game.Result) {
	r.finished.Store(true)
	r.monitor.IncGamesFinished()
	logger.Log.Infow("game finished", "game_id", r.ID, "winner", res.Winner)
	if r.recorder == nil {
		return
	}
	st, err := r.engine.GetState(ctx, r.ID)
	if err != nil {
		logger.Log.Errorw("load finished game failed", "game_id", r.ID, "error", err)
		return
	}
	if err := r.recorder.RecordGame(ctx, st, res.Solution); err != nil {
		logger.Log.Errorw("record game failed", "game_id", r.ID, "error", err)
	}
}

func (r *Room) seatAgents(ctx context.Context, st *game.State) {
	for _, p := range st.Players {
		ag := agent.New(p.Type, r.rng)
		if ag == nil {
			continue
		}
		hand, err := r.engine.Hand(ctx, r.ID, p.ID)
		if err != nil {
			logger.Log.Errorw("load hand failed", "game_id", r.ID, "player_id", p.ID, "error", err)
		}
		ag.ObserveOwnCards(hand)
		r.agents[p.ID] = ag
	}
}

// restoreAgents reseats automated players when a room is rebuilt for a game
// that is already under way. Their notes start empty.
func (r *Room) restoreAgents() {
	ctx, cancel := context.WithTimeout(context.Background(), driverTimeout)
	defer cancel()

	st, err := r.engine.GetState(ctx, r.ID)
	if err != nil {
		logger.Log.Warnw("restore room failed", "game_id", r.ID, "error", err)
		return
	}
	switch st.Status {
	case state.Playing:
		r.seatAgents(ctx, st)
	case state.Finished:
		r.finished.Store(true)
	}
}

// Update is called by the loop on every tick and plays for the automated
// seat that currently owes an action, once its delay has passed.
func (r *Room) Update() {
	if r.finished.Load() || len(r.agents) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), driverTimeout)
	defer cancel()

	st, err := r.engine.GetState(ctx, r.ID)
	if err != nil {
		logger.Log.Warnw("agent driver load failed", "game_id", r.ID, "error", err)
		return
	}
	if st.Status != state.Playing {
		return
	}

	actor, delay := st.WhoseTurn, r.agentDelay
	if st.PendingShowCard != nil {
		actor, delay = st.PendingShowCard.PlayerID, r.showDelay
	}
	ag, ok := r.agents[actor]
	if !ok {
		r.armedKey = ""
		return
	}

	key := fmt.Sprintf("%d/%s/%t/%t/%d", st.TurnNumber, actor, st.PendingShowCard != nil, st.DiceRolled, len(st.SuggestionsThisTurn))
	now := time.Now()
	if key != r.armedKey {
		r.armedKey = key
		r.actAt = now.Add(delay)
	}
	if now.Before(r.actAt) {
		return
	}
	r.armedKey = ""

	me, err := r.engine.GetPlayerState(ctx, r.ID, actor)
	if err != nil {
		logger.Log.Warnw("agent driver load failed", "game_id", r.ID, "player_id", actor, "error", err)
		return
	}
	if me.PendingShowCard != nil {
		r.agentShowCard(ctx, ag, actor, me.PendingShowCard)
		return
	}
	r.agentTurn(ctx, ag, actor, st, me)
}

func (r *Room) agentShowCard(ctx context.Context, ag agent.Player, playerID string, pending *game.PendingShowCard) {
	matching := pending.MatchingCards
	if len(matching) == 0 {
		logger.Log.Errorw("disclosure without matching cards", "game_id", r.ID, "player_id", playerID)
		return
	}
	card := ag.DecideShowCard(matching, pending.SuggestingPlayerID)
	if _, err := r.apply(ctx, playerID, game.ShowCard{Card: card}); err != nil {
		logger.Log.Warnw("agent show card rejected", "game_id", r.ID, "player_id", playerID, "card", card, "error", err)
		if _, err := r.apply(ctx, playerID, game.ShowCard{Card: matching[0]}); err != nil {
			logger.Log.Errorw("agent show card failed", "game_id", r.ID, "player_id", playerID, "error", err)
		}
	}
}

func (r *Room) agentTurn(ctx context.Context, ag agent.Player, playerID string, st *game.State, me *game.PlayerState) {
	action := ag.DecideAction(st, me)
	if action == nil {
		action = game.EndTurn{}
	}
	_, err := r.apply(ctx, playerID, action)
	if err == nil || action.Type() == game.ActionEndTurn || !game.IsRejection(err) {
		if err != nil {
			logger.Log.Errorw("agent action failed", "game_id", r.ID, "player_id", playerID, "action", action.Type(), "error", err)
		}
		return
	}
	logger.Log.Warnw("agent action rejected, ending turn", "game_id", r.ID, "player_id", playerID, "action", action.Type(), "error", err)
	if _, err := r.apply(ctx, playerID, game.EndTurn{}); err != nil {
		logger.Log.Errorw("agent end turn failed", "game_id", r.ID, "player_id", playerID, "error", err)
	}
}
