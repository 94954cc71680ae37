package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/clueserver/board"
	"github.com/wfunc/clueserver/logger"
	"github.com/wfunc/clueserver/persistence"
	"github.com/wfunc/clueserver/state"
)

// DefaultTTL is how long a game's keys live after their last write.
const DefaultTTL = 24 * time.Hour

// Engine adjudicates games. It keeps no per-game state of its own: every
// call loads the game from the store, and mutating calls write it back.
// Callers must serialise mutations of the same game.
type Engine struct {
	store     persistence.Store
	graph     *board.Graph
	lifecycle *state.Machine
	ttl       time.Duration
	now       func() time.Time
	dice      func() int

	rng   *rand.Rand
	rngMu sync.Mutex
}

type Option func(*Engine)

// WithRand sets the source used for solutions, shuffling and dice.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithDice overrides the die.
func WithDice(roll func() int) Option {
	return func(e *Engine) { e.dice = roll }
}

func WithTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.ttl = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store persistence.Store, graph *board.Graph, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		graph:     graph,
		lifecycle: state.NewLifecycle(),
		ttl:       DefaultTTL,
		now:       time.Now,
		rng:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dice == nil {
		e.dice = func() int { return e.intN(6) + 1 }
	}
	return e
}

// Graph returns the board the engine moves pieces on.
func (e *Engine) Graph() *board.Graph { return e.graph }

func (e *Engine) intN(n int) int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.IntN(n)
}

func (e *Engine) shuffle(cards []string) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	e.rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
}

func (e *Engine) timestamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

func stateKey(gameID string) string    { return "game:" + gameID }
func solutionKey(gameID string) string { return "game:" + gameID + ":solution" }
func logKey(gameID string) string      { return "game:" + gameID + ":log" }
func chatKey(gameID string) string     { return "game:" + gameID + ":chat" }
func cardsKey(gameID, playerID string) string {
	return "game:" + gameID + ":cards:" + playerID
}

func (e *Engine) getJSON(ctx context.Context, key string, v any) error {
	raw, err := e.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, persistence.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (e *Engine) setJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := e.store.Set(ctx, key, raw, e.ttl); err != nil {
		logger.Log.Errorw("storage write failed", "key", key, "error", err)
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (e *Engine) appendJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := e.store.ListAppend(ctx, key, raw, e.ttl); err != nil {
		logger.Log.Errorw("storage append failed", "key", key, "error", err)
		return fmt.Errorf("append %s: %w", key, err)
	}
	return nil
}

func (e *Engine) load(ctx context.Context, gameID string) (*State, error) {
	var st State
	if err := e.getJSON(ctx, stateKey(gameID), &st); err != nil {
		return nil, err
	}
	if st.CurrentRoom == nil {
		st.CurrentRoom = make(map[string]string)
	}
	if st.PlayerPositions == nil {
		st.PlayerPositions = make(map[string]board.Point)
	}
	return &st, nil
}

func (e *Engine) save(ctx context.Context, st *State) error {
	if err := e.setJSON(ctx, stateKey(st.GameID), st); err != nil {
		return err
	}
	return e.refresh(ctx, st)
}

// refresh rewrites the keys that are only written once, the solution and the
// hands, so that they expire together with the state.
func (e *Engine) refresh(ctx context.Context, st *State) error {
	if e.ttl <= 0 {
		return nil
	}
	keys := []string{solutionKey(st.GameID)}
	if st.Status != state.Waiting {
		for _, p := range st.Players {
			keys = append(keys, cardsKey(st.GameID, p.ID))
		}
	}
	for _, key := range keys {
		raw, err := e.store.Get(ctx, key)
		if errors.Is(err, persistence.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load %s: %w", key, err)
		}
		if err := e.store.Set(ctx, key, raw, e.ttl); err != nil {
			logger.Log.Errorw("storage write failed", "key", key, "error", err)
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

func (e *Engine) loadSolution(ctx context.Context, gameID string) (Solution, error) {
	var sol Solution
	err := e.getJSON(ctx, solutionKey(gameID), &sol)
	return sol, err
}

func (e *Engine) loadCards(ctx context.Context, gameID, playerID string) ([]string, error) {
	var cards []string
	err := e.getJSON(ctx, cardsKey(gameID, playerID), &cards)
	if errors.Is(err, ErrNotFound) {
		return []string{}, nil
	}
	return cards, err
}

// loadHand reads the hand of a seat in a started game. Every seat got a hand
// at start, so a missing one means the game data is gone, not an empty hand.
func (e *Engine) loadHand(ctx context.Context, gameID string, p Player) ([]string, error) {
	var cards []string
	err := e.getJSON(ctx, cardsKey(gameID, p.ID), &cards)
	if errors.Is(err, ErrNotFound) {
		logger.Log.Errorw("hand missing", "game_id", gameID, "player_id", p.ID)
		return nil, fmt.Errorf("hand of %s is missing: %w", p.ID, ErrHandMissing)
	}
	return cards, err
}

func (e *Engine) appendLog(ctx context.Context, gameID string, entry LogEntry) error {
	entry.Timestamp = e.timestamp()
	return e.appendJSON(ctx, logKey(gameID), entry)
}

// Create starts a new game in the waiting state with a random solution.
func (e *Engine) Create(ctx context.Context) (*State, error) {
	gameID := uuid.NewString()
	sol := Solution{
		Suspect: Suspects[e.intN(len(Suspects))],
		Weapon:  Weapons[e.intN(len(Weapons))],
		Room:    Rooms[e.intN(len(Rooms))],
	}
	if err := e.setJSON(ctx, solutionKey(gameID), sol); err != nil {
		return nil, err
	}

	st := &State{
		GameID:              gameID,
		Status:              state.Waiting,
		Players:             []Player{},
		CurrentRoom:         map[string]string{},
		PlayerPositions:     map[string]board.Point{},
		SuggestionsThisTurn: []Suggestion{},
	}
	if err := e.save(ctx, st); err != nil {
		return nil, err
	}
	logger.Log.Infow("game created", "game_id", gameID)
	return st, nil
}

// AddPlayer seats a player and gives them the first unclaimed character.
func (e *Engine) AddPlayer(ctx context.Context, gameID, playerID, name string, typ PlayerType) (*Player, error) {
	if typ == "" {
		typ = Human
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown player type %q", ErrInvalidAction, typ)
	}
	if typ == Wanderer {
		return nil, fmt.Errorf("%w: wanderer seats are only added at start", ErrInvalidAction)
	}
	if playerID == "" {
		return nil, fmt.Errorf("%w: empty player id", ErrInvalidAction)
	}

	st, err := e.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if st.Status != state.Waiting {
		return nil, fmt.Errorf("%w: game already started", ErrInvalidPhase)
	}
	if len(st.Players) >= MaxPlayers {
		return nil, ErrCapacity
	}
	if _, exists := st.Player(playerID); exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, playerID)
	}

	player := Player{
		ID:        playerID,
		Name:      name,
		Type:      typ,
		Character: unclaimed(st)[0],
		Active:    true,
	}
	st.Players = append(st.Players, player)
	if err := e.save(ctx, st); err != nil {
		return nil, err
	}
	logger.Log.Infow("player joined", "game_id", gameID, "player_id", playerID, "character", player.Character)
	return &player, nil
}

func unclaimed(st *State) []string {
	var out []string
	for _, s := range Suspects {
		if !slices.ContainsFunc(st.Players, func(p Player) bool { return p.Character == s }) {
			out = append(out, s)
		}
	}
	return out
}

// Start fills empty characters with wanderers, deals the cards and hands the
// first turn to the first seat.
func (e *Engine) Start(ctx context.Context, gameID string) (*State, error) {
	st, err := e.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if st.Status != state.Waiting {
		return nil, fmt.Errorf("%w: game already started", ErrInvalidPhase)
	}
	if len(st.Contenders()) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 players to start", ErrInvalidPhase)
	}
	next, err := e.lifecycle.Transition(st.Status, state.Playing)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPhase, err)
	}
	sol, err := e.loadSolution(ctx, gameID)
	if err != nil {
		return nil, err
	}

	for _, character := range unclaimed(st) {
		st.Players = append(st.Players, Player{
			ID:        uuid.NewString(),
			Name:      character,
			Type:      Wanderer,
			Character: character,
			Active:    true,
		})
	}

	var deck []string
	for _, c := range AllCards() {
		if !sol.Contains(c) {
			deck = append(deck, c)
		}
	}
	e.shuffle(deck)

	var dealers []string
	hands := make(map[string][]string, len(st.Players))
	for _, p := range st.Players {
		hands[p.ID] = []string{}
		if p.Type != Wanderer {
			dealers = append(dealers, p.ID)
		}
	}
	for i, card := range deck {
		pid := dealers[i%len(dealers)]
		hands[pid] = append(hands[pid], card)
	}
	for _, p := range st.Players {
		if err := e.setJSON(ctx, cardsKey(gameID, p.ID), hands[p.ID]); err != nil {
			return nil, err
		}
		st.PlayerPositions[p.ID] = board.StartPositions[p.Character]
	}

	st.Status = next
	st.WhoseTurn = st.Players[0].ID
	st.TurnNumber = 1
	st.DiceRolled = false
	st.LastRoll = 0
	st.SuggestionsThisTurn = []Suggestion{}
	if err := e.save(ctx, st); err != nil {
		return nil, err
	}
	if err := e.appendLog(ctx, gameID, LogEntry{Type: "game_started"}); err != nil {
		return nil, err
	}
	logger.Log.Infow("game started", "game_id", gameID, "players", len(st.Players), "first", st.WhoseTurn)
	return public(st), nil
}

// public strips the private part of a pending disclosure.
func public(st *State) *State {
	if st.PendingShowCard != nil {
		pending := *st.PendingShowCard
		pending.MatchingCards = nil
		st.PendingShowCard = &pending
	}
	return st
}

// GetState returns the public state of a game.
func (e *Engine) GetState(ctx context.Context, gameID string) (*State, error) {
	st, err := e.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return public(st), nil
}

// GetPlayerState returns the state as playerID sees it: their own cards,
// their action menu, and the matching cards if they owe a disclosure.
func (e *Engine) GetPlayerState(ctx context.Context, gameID, playerID string) (*PlayerState, error) {
	st, err := e.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if _, ok := st.Player(playerID); !ok {
		return nil, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	cards, err := e.loadCards(ctx, gameID, playerID)
	if err != nil {
		return nil, err
	}
	actions := AvailableActions(st, playerID)
	if st.PendingShowCard == nil || st.PendingShowCard.PlayerID != playerID {
		st = public(st)
	}
	return &PlayerState{
		State:            *st,
		YourPlayerID:     playerID,
		YourCards:        cards,
		AvailableActions: actions,
	}, nil
}

func (e *Engine) AvailableActions(ctx context.Context, gameID, playerID string) ([]ActionType, error) {
	st, err := e.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return AvailableActions(st, playerID), nil
}

// Hand returns the cards dealt to playerID.
func (e *Engine) Hand(ctx context.Context, gameID, playerID string) ([]string, error) {
	return e.loadCards(ctx, gameID, playerID)
}

// RevealSolution returns the solution of a finished game.
func (e *Engine) RevealSolution(ctx context.Context, gameID string) (*Solution, error) {
	st, err := e.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if st.Status != state.Finished {
		return nil, fmt.Errorf("%w: game is not finished", ErrInvalidPhase)
	}
	sol, err := e.loadSolution(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return &sol, nil
}

func (e *Engine) Log(ctx context.Context, gameID string) ([]LogEntry, error) {
	if _, err := e.load(ctx, gameID); err != nil {
		return nil, err
	}
	raw, err := e.store.ListRange(ctx, logKey(gameID))
	if err != nil {
		return nil, fmt.Errorf("load log: %w", err)
	}
	entries := make([]LogEntry, 0, len(raw))
	for _, r := range raw {
		var entry LogEntry
		if err := json.Unmarshal(r, &entry); err != nil {
			return nil, fmt.Errorf("decode log: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// AddChat appends a message from a seated player. Chat is allowed in every
// phase.
func (e *Engine) AddChat(ctx context.Context, gameID, playerID, text string) (*ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty chat message", ErrInvalidAction)
	}
	st, err := e.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	p, ok := st.Player(playerID)
	if !ok {
		return nil, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	msg := ChatMessage{
		PlayerID:   playerID,
		PlayerName: p.Name,
		Text:       text,
		Timestamp:  e.timestamp(),
	}
	if err := e.appendJSON(ctx, chatKey(gameID), msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (e *Engine) Chat(ctx context.Context, gameID string) ([]ChatMessage, error) {
	if _, err := e.load(ctx, gameID); err != nil {
		return nil, err
	}
	raw, err := e.store.ListRange(ctx, chatKey(gameID))
	if err != nil {
		return nil, fmt.Errorf("load chat: %w", err)
	}
	msgs := make([]ChatMessage, 0, len(raw))
	for _, r := range raw {
		var msg ChatMessage
		if err := json.Unmarshal(r, &msg); err != nil {
			return nil, fmt.Errorf("decode chat: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
