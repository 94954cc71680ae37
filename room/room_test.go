package room

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/clueserver/board"
	"github.com/wfunc/clueserver/game"
	"github.com/wfunc/clueserver/persistence"
	"github.com/wfunc/clueserver/state"
)

var testGraph = board.MustNew()

type sentEvent struct {
	PlayerID string
	Event    Event
}

// MockBroadcaster is a test double for the Broadcaster interface.
type MockBroadcaster struct {
	mutex  sync.Mutex
	events []sentEvent
}

func (m *MockBroadcaster) record(playerID string, data []byte) {
	var ev Event
	_ = json.Unmarshal(data, &ev)
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.events = append(m.events, sentEvent{PlayerID: playerID, Event: ev})
}

func (m *MockBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	m.record("", data)
	return nil
}

func (m *MockBroadcaster) SendToPlayer(roomID, playerID string, msgID uint16, data []byte) error {
	m.record(playerID, data)
	return nil
}

func (m *MockBroadcaster) find(eventType string) []sentEvent {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	var out []sentEvent
	for _, ev := range m.events {
		if ev.Event.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// MockRecorder is a test double for the Recorder interface.
type MockRecorder struct {
	mutex  sync.Mutex
	states []*game.State
}

func (m *MockRecorder) RecordGame(ctx context.Context, st *game.State, sol *game.Solution) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.states = append(m.states, st)
	return nil
}

func (m *MockRecorder) count() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.states)
}

func newTestManager(broadcaster Broadcaster, opts ...Option) *Manager {
	engine := game.NewEngine(persistence.NewMemoryStore(), testGraph)
	return NewRoomManager(engine, broadcaster, opts...)
}

// idle pacing keeps the agent driver from ever firing.
var idle = WithPacing(time.Hour, 0, 0)

func TestRoomManager_CreateAndGetRoom(t *testing.T) {
	manager := newTestManager(&MockBroadcaster{}, idle)
	defer manager.Close()

	room, st, err := manager.CreateGame(context.Background())
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	if room.ID != st.GameID {
		t.Errorf("Expected room ID %s, got %s", st.GameID, room.ID)
	}
	if st.Status != state.Waiting {
		t.Errorf("Expected status waiting, got %s", st.Status)
	}

	retrieved, exists := manager.GetRoom(room.ID)
	if !exists {
		t.Fatal("GetRoom should find the created room")
	}
	if retrieved != room {
		t.Error("GetRoom should return the same room instance")
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 room, got %d", manager.Count())
	}
}

func TestRoomManager_RoomLazy(t *testing.T) {
	manager := newTestManager(&MockBroadcaster{}, idle)
	defer manager.Close()
	ctx := context.Background()

	if _, err := manager.Room(ctx, "missing"); !errors.Is(err, game.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	st, err := manager.Engine().Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	room, err := manager.Room(ctx, st.GameID)
	if err != nil {
		t.Fatalf("Room failed: %v", err)
	}
	again, _ := manager.Room(ctx, st.GameID)
	if again != room {
		t.Error("Room should reuse the live room")
	}
}

func TestRoom_JoinAndStartEvents(t *testing.T) {
	broadcaster := &MockBroadcaster{}
	manager := newTestManager(broadcaster, idle)
	defer manager.Close()
	ctx := context.Background()

	room, _, err := manager.CreateGame(ctx)
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	for _, id := range []string{"p1", "p2"} {
		if _, err := room.Join(ctx, id, "name-"+id, game.Human); err != nil {
			t.Fatalf("Join(%s) failed: %v", id, err)
		}
	}
	if n := len(broadcaster.find(EventPlayerJoined)); n != 2 {
		t.Errorf("Expected 2 player_joined events, got %d", n)
	}

	st, err := room.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if st.Status != state.Playing {
		t.Errorf("Expected status playing, got %s", st.Status)
	}
	if n := len(broadcaster.find(EventGameStarted)); n != 1 {
		t.Errorf("Expected 1 game_started event, got %d", n)
	}
	cards := broadcaster.find(EventYourCards)
	if len(cards) != 2 {
		t.Fatalf("Expected your_cards for 2 humans, got %d", len(cards))
	}
	for _, ev := range cards {
		if ev.PlayerID == "" {
			t.Error("your_cards must be private")
		}
	}

	if _, err := room.Start(ctx); !errors.Is(err, game.ErrInvalidPhase) {
		t.Errorf("Expected ErrInvalidPhase on second start, got %v", err)
	}
}

func TestRoom_OutOfTurn(t *testing.T) {
	manager := newTestManager(&MockBroadcaster{}, idle)
	defer manager.Close()
	ctx := context.Background()

	room, _, _ := manager.CreateGame(ctx)
	room.Join(ctx, "p1", "one", game.Human)
	room.Join(ctx, "p2", "two", game.Human)
	if _, err := room.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := room.Act(ctx, "p2", game.EndTurn{}); !errors.Is(err, game.ErrNotYourTurn) {
		t.Errorf("Expected ErrNotYourTurn, got %v", err)
	}
	res, err := room.Act(ctx, "p1", game.EndTurn{})
	if err != nil {
		t.Fatalf("EndTurn failed: %v", err)
	}
	if res.NextPlayerID != "p2" {
		t.Errorf("Expected next player p2, got %s", res.NextPlayerID)
	}
}

func TestRoom_ConcurrentActionsAreSerialized(t *testing.T) {
	manager := newTestManager(&MockBroadcaster{}, idle)
	defer manager.Close()
	ctx := context.Background()

	room, _, _ := manager.CreateGame(ctx)
	room.Join(ctx, "p1", "one", game.Human)
	room.Join(ctx, "p2", "two", game.Human)
	if _, err := room.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var (
		wg       sync.WaitGroup
		mutex    sync.Mutex
		accepted int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				st, err := room.State(ctx)
				if err != nil {
					t.Errorf("State failed: %v", err)
					return
				}
				if _, err := room.Act(ctx, st.WhoseTurn, game.EndTurn{}); err == nil {
					mutex.Lock()
					accepted++
					mutex.Unlock()
				} else if !errors.Is(err, game.ErrNotYourTurn) {
					t.Errorf("Unexpected error: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	st, _ := room.State(ctx)
	if st.TurnNumber != accepted+1 {
		t.Errorf("Expected turn number %d, got %d", accepted+1, st.TurnNumber)
	}
}

func TestRoom_ChatAnyPhase(t *testing.T) {
	broadcaster := &MockBroadcaster{}
	manager := newTestManager(broadcaster, idle)
	defer manager.Close()
	ctx := context.Background()

	room, _, _ := manager.CreateGame(ctx)
	room.Join(ctx, "p1", "one", game.Human)

	msg, err := room.Chat(ctx, "p1", "  hello  ")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if msg.Text != "hello" {
		t.Errorf("Expected trimmed text, got %q", msg.Text)
	}
	if _, err := room.Act(ctx, "p1", game.Chat{Text: "again"}); err != nil {
		t.Fatalf("Chat action failed: %v", err)
	}
	if n := len(broadcaster.find(EventChatMessage)); n != 2 {
		t.Errorf("Expected 2 chat_message events, got %d", n)
	}
}

func TestRoom_AgentsPlayToFinish(t *testing.T) {
	broadcaster := &MockBroadcaster{}
	recorder := &MockRecorder{}
	manager := newTestManager(broadcaster,
		WithPacing(time.Millisecond, 0, 0),
		WithRecorder(recorder),
		WithSeed(42),
	)
	defer manager.Close()
	ctx := context.Background()

	room, _, _ := manager.CreateGame(ctx)
	room.Join(ctx, "a1", "alpha", game.Agent)
	room.Join(ctx, "a2", "beta", game.Agent)
	room.Join(ctx, "a3", "gamma", game.Agent)
	if _, err := room.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.After(30 * time.Second)
	for !room.Finished() {
		select {
		case <-deadline:
			t.Fatal("agents did not finish the game in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	st, err := room.State(ctx)
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if st.Status != state.Finished {
		t.Errorf("Expected status finished, got %s", st.Status)
	}
	if st.Winner == "" {
		t.Error("Expected a winner")
	}
	if n := len(broadcaster.find(EventGameOver)); n != 1 {
		t.Errorf("Expected 1 game_over event, got %d", n)
	}
	if recorder.count() != 1 {
		t.Errorf("Expected the game to be recorded once, got %d", recorder.count())
	}
}

func TestRoom_Closed(t *testing.T) {
	manager := newTestManager(&MockBroadcaster{}, idle)
	ctx := context.Background()

	room, _, _ := manager.CreateGame(ctx)
	manager.RemoveRoom(room.ID)
	<-room.Done()

	if _, err := room.Join(ctx, "p1", "one", game.Human); !errors.Is(err, ErrRoomClosed) {
		t.Errorf("Expected ErrRoomClosed, got %v", err)
	}
	if manager.Count() != 0 {
		t.Errorf("Expected 0 rooms, got %d", manager.Count())
	}
}

func TestRoomManager_RemoveRoomWaitsForLoop(t *testing.T) {
	manager := newTestManager(&MockBroadcaster{}, idle)
	defer manager.Close()
	ctx := context.Background()

	room, st, _ := manager.CreateGame(ctx)
	room.Join(ctx, "p1", "one", game.Human)
	manager.RemoveRoom(room.ID)

	select {
	case <-room.Done():
	default:
		t.Fatal("RemoveRoom returned before the room loop exited")
	}

	next, err := manager.Room(ctx, st.GameID)
	if err != nil {
		t.Fatalf("Room failed: %v", err)
	}
	if next == room {
		t.Fatal("Expected a fresh room after removal")
	}
	if _, err := next.Join(ctx, "p2", "two", game.Human); err != nil {
		t.Errorf("Expected the fresh room to accept joins, got %v", err)
	}
	got, _ := next.State(ctx)
	if len(got.Players) != 2 {
		t.Errorf("Expected 2 players in the stored game, got %d", len(got.Players))
	}
}

func TestRoomManager_RoomSkipsClosingRoom(t *testing.T) {
	manager := newTestManager(&MockBroadcaster{}, idle)
	defer manager.Close()
	ctx := context.Background()

	room, st, _ := manager.CreateGame(ctx)
	room.Close()

	next, err := manager.Room(ctx, st.GameID)
	if err != nil {
		t.Fatalf("Room failed: %v", err)
	}
	if next == room {
		t.Fatal("Room must not hand out a room that is closing")
	}
	select {
	case <-room.Done():
	default:
		t.Error("Expected the old loop to have exited before its successor started")
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 room, got %d", manager.Count())
	}
}

func TestRoomManager_Sweep(t *testing.T) {
	manager := newTestManager(&MockBroadcaster{}, idle, WithIdleTTL(time.Millisecond))
	defer manager.Close()
	ctx := context.Background()

	manager.CreateGame(ctx)
	manager.CreateGame(ctx)
	time.Sleep(5 * time.Millisecond)

	if n := manager.Sweep(); n != 2 {
		t.Errorf("Expected 2 rooms swept, got %d", n)
	}
	if manager.Count() != 0 {
		t.Errorf("Expected 0 rooms after sweep, got %d", manager.Count())
	}
}
