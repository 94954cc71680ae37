package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"golang.org/x/term"

	"github.com/wfunc/clueserver/api"
	"github.com/wfunc/clueserver/board"
	"github.com/wfunc/clueserver/game"
	"github.com/wfunc/clueserver/network"
	"github.com/wfunc/clueserver/room"
)

var (
	colorEvent  = color.Style{color.FgCyan}
	colorPrompt = color.Style{color.FgMagenta, color.OpBold}
	colorError  = color.Style{color.FgRed, color.OpBold}
	colorCard   = color.Style{color.FgGreen, color.OpBold}
	colorSubtle = color.Style{color.FgGray}
)

const help = `commands:
  start
  move <room>
  suggest <suspect> | <weapon> | <room>
  accuse <suspect> | <weapon> | <room>
  show <card>
  end
  say <text>
  state
  board
  quit`

type client struct {
	http     *resty.Client
	base     string
	gameID   string
	playerID string
	conn     *network.WSConnection
	graph    *board.Graph

	mutex sync.Mutex
	last  *game.PlayerState
}

func main() {
	addr := flag.String("server", "localhost:8080", "server host:port")
	gameID := flag.String("game", "", "game to join; a new game is created when empty")
	name := flag.String("name", "", "player name")
	flag.Parse()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.Disable()
	}
	if *name == "" {
		log.Fatal("-name must be supplied")
	}

	c := &client{
		http:  resty.New().SetTimeout(10 * time.Second),
		base:  "http://" + *addr,
		graph: board.MustNew(),
	}
	ctx := context.Background()

	if *gameID == "" {
		var st game.State
		if err := c.post(ctx, "/games", nil, &st); err != nil {
			log.Fatalf("Create game failed: %v", err)
		}
		*gameID = st.GameID
		fmt.Println(colorPrompt.Sprintf("created game %s", st.GameID))
	}
	c.gameID = *gameID

	var p game.Player
	if err := c.post(ctx, "/games/"+c.gameID+"/join", api.JoinRequest{Name: *name}, &p); err != nil {
		log.Fatalf("Join failed: %v", err)
	}
	c.playerID = p.ID
	fmt.Println(colorPrompt.Sprintf("joined as %s (%s)", p.Character, p.ID))

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws", RawQuery: url.Values{"game_id": {c.gameID}, "player_id": {c.playerID}}.Encode()}
	conn, err := network.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	c.conn = conn

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	done := make(chan struct{})
	lines := make(chan string)

	go c.readLoop(done)
	go func() {
		reader := bufio.NewScanner(os.Stdin)
		for reader.Scan() {
			lines <- strings.TrimSpace(reader.Text())
		}
		close(lines)
	}()
	heartbeat := time.NewTicker(20 * time.Second)
	defer heartbeat.Stop()

	fmt.Println(colorSubtle.Sprint(help))
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			return
		case <-heartbeat.C:
			conn.Send(network.MsgTypeHeartbeat, nil)
		case line, ok := <-lines:
			if !ok || line == "quit" {
				return
			}
			if err := c.command(line); err != nil {
				fmt.Println(colorError.Sprint(err.Error()))
			}
		}
	}
}

func (c *client) post(ctx context.Context, path string, body, out any) error {
	var failure api.ErrorResponse
	req := c.http.R().SetContext(ctx).SetResult(out).SetError(&failure)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Post(c.base + path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("%s: %s", resp.Status(), failure.Error)
	}
	return nil
}

func (c *client) send(msgID uint16, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.conn.Send(msgID, data)
}

func triple(args string) (string, string, string, error) {
	parts := strings.Split(args, "|")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("expected <suspect> | <weapon> | <room>")
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), nil
}

func (c *client) command(line string) error {
	verb, args, _ := strings.Cut(line, " ")
	args = strings.TrimSpace(args)

	var p game.Payload
	switch verb {
	case "":
		return nil
	case "start":
		return c.send(network.MsgTypeStartGame, struct{}{})
	case "state":
		return c.send(network.MsgTypeGetState, struct{}{})
	case "board":
		c.printBoard()
		return nil
	case "say":
		return c.send(network.MsgTypeChat, network.ChatRequest{Text: args})
	case "move":
		p = game.Payload{Type: game.ActionMove, Room: args}
	case "suggest", "accuse":
		s, w, r, err := triple(args)
		if err != nil {
			return err
		}
		p = game.Payload{Type: game.ActionSuggest, Suspect: s, Weapon: w, Room: r}
		if verb == "accuse" {
			p.Type = game.ActionAccuse
		}
	case "show":
		p = game.Payload{Type: game.ActionShowCard, Card: args}
	case "end":
		p = game.Payload{Type: game.ActionEndTurn}
	default:
		fmt.Println(colorSubtle.Sprint(help))
		return nil
	}
	return c.send(network.MsgTypeGameAction, p)
}

// printBoard draws the squares a six can reach from the player's position.
func (c *client) printBoard() {
	c.mutex.Lock()
	last := c.last
	c.mutex.Unlock()
	if last == nil {
		fmt.Println(colorSubtle.Sprint("no state yet, try 'state'"))
		return
	}
	start, ok := -1, false
	if name, in := last.CurrentRoom[c.playerID]; in {
		if r, valid := board.ParseRoom(name); valid {
			start, ok = c.graph.RoomNode(r), true
		}
	} else if pos, placed := last.PlayerPositions[c.playerID]; placed {
		start, ok = c.graph.At(pos.Row, pos.Col)
	}
	if !ok {
		fmt.Print(c.graph.Render(nil))
		return
	}
	fmt.Print(c.graph.Render(c.graph.Reachability(start, 6)))
}

func (c *client) readLoop(done chan<- struct{}) {
	defer close(done)
	for {
		packet, err := c.conn.ReadPacket()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Println("Read error:", err)
			}
			return
		}
		c.handle(packet)
	}
}

func (c *client) handle(packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
	case network.MsgTypePlayerState:
		var ps game.PlayerState
		if err := json.Unmarshal(packet.Data, &ps); err != nil {
			log.Println("Bad player state:", err)
			return
		}
		c.mutex.Lock()
		c.last = &ps
		c.mutex.Unlock()
		fmt.Println(colorPrompt.Sprintf("[%s] turn %d, %s to play, room %q",
			ps.Status, ps.TurnNumber, ps.WhoseTurn, ps.CurrentRoom[c.playerID]))
		fmt.Println(colorCard.Sprintf("your cards: %s", strings.Join(ps.YourCards, ", ")))
		fmt.Println(colorSubtle.Sprintf("available: %v", ps.AvailableActions))
		if ps.PendingShowCard != nil && ps.PendingShowCard.PlayerID == c.playerID {
			fmt.Println(colorCard.Sprintf("show one of: %s", strings.Join(ps.PendingShowCard.MatchingCards, ", ")))
		}
	case network.MsgTypeGameEvent:
		var ev room.Event
		if err := json.Unmarshal(packet.Data, &ev); err != nil {
			log.Println("Bad event:", err)
			return
		}
		data, _ := json.Marshal(ev.Data)
		fmt.Println(colorEvent.Sprintf("* %s %s", ev.Type, data))
		if ev.Type == room.EventGameState || ev.Type == room.EventShowCardRequest || ev.Type == room.EventGameStarted {
			c.send(network.MsgTypeGetState, struct{}{})
		}
	case network.MsgTypeError:
		var reply network.ErrorReply
		json.Unmarshal(packet.Data, &reply)
		fmt.Println(colorError.Sprintf("rejected (%s): %s", reply.Reason, reply.Message))
	default:
		fmt.Println(colorSubtle.Sprintf("<- %d %s", packet.MsgID, packet.Data))
	}
}
