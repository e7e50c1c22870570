// File: cmd/arenatop/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/lguibr/arenaserver/protocol"
)

// State-dependent color band: green while a match runs, yellow while the
// lobby is open, red on a fatal crash. Initializing blends yellow toward
// green since it sits between Registration and Running.
var (
	bandRegistration = mustHexColor("#e6c229")
	bandRunning      = mustHexColor("#2ecc71")
	bandFatal        = mustHexColor("#e63946")
)

func mustHexColor(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic(err)
	}
	return c
}

func stateColor(state string) tcell.Color {
	var c colorful.Color
	switch state {
	case "Running":
		c = bandRunning
	case "FatalError":
		c = bandFatal
	case "Initializing":
		c = bandRegistration.BlendHsv(bandRunning, 0.5)
	default:
		c = bandRegistration
	}
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// arenatop is a read-only admin monitor: it connects as a viewer and
// renders the broadcast stream in a terminal, grounded in
// andersfylling-rayman-slides' TcellRenderer.
func main() {
	addr := flag.String("addr", "localhost:8080", "session server host:port")
	token := flag.String("token", "", "viewer bearer token")
	insecure := flag.Bool("insecure", false, "use ws:// instead of wss://")
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "arenatop: -token is required")
		os.Exit(1)
	}

	scheme := "wss"
	if *insecure {
		scheme = "ws"
	}
	u := url.URL{Scheme: scheme, Host: *addr, Path: "/api/v1/view"}

	header := http.Header{}
	header.Set("Sec-WebSocket-Protocol", "arena.auth.v1, "+*token)

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		fmt.Fprintf(os.Stderr, "arenatop: failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "arenatop: failed to init terminal: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "arenatop: failed to init terminal: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))

	mon := &monitor{screen: screen}

	eventCh := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			eventCh <- ev
		}
	}()

	frameCh := make(chan []byte, 64)
	go func() {
		defer close(frameCh)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			frameCh <- raw
		}
	}()

	mon.draw()
	for {
		select {
		case ev, ok := <-eventCh:
			if !ok {
				return
			}
			switch e := ev.(type) {
			case *tcell.EventKey:
				if e.Key() == tcell.KeyEscape || e.Key() == tcell.KeyCtrlC || e.Rune() == 'q' {
					return
				}
			case *tcell.EventResize:
				screen.Sync()
			}
			mon.draw()
		case raw, ok := <-frameCh:
			if !ok {
				mon.setStatus("disconnected from server")
				mon.draw()
				return
			}
			mon.applyFrame(raw)
			mon.draw()
		case <-time.After(time.Second):
			mon.draw()
		}
	}
}

type monitor struct {
	screen tcell.Screen

	mu          sync.Mutex
	serverState string
	players     map[uuid.UUID]protocol.Profile
	playerOrder []uuid.UUID
	lastEvent   string
	status      string
}

func (m *monitor) setStatus(s string) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

func (m *monitor) applyFrame(raw []byte) {
	var env protocol.InboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastEvent = env.Type

	switch env.Type {
	case "waitingOnPlayers", "gameStartingSoon", "registeredPlayers":
		var resp protocol.RegisteredPlayersResponse
		if json.Unmarshal(raw, &resp) == nil {
			m.players = resp.Players
			m.playerOrder = resp.PlayerOrder
			if m.playerOrder == nil {
				for id := range resp.Players {
					m.playerOrder = append(m.playerOrder, id)
				}
			}
		}
	case "gameStarting":
		m.serverState = "Initializing"
	case "init":
		m.serverState = "Running"
	case "gameEnded":
		m.serverState = "Registration"
	case "serverState":
		var resp protocol.ServerStateResponse
		if json.Unmarshal(raw, &resp) == nil {
			m.serverState = resp.State.String()
		}
	}
}

func (m *monitor) draw() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.screen.Clear()
	m.drawText(0, 0, fmt.Sprintf("arenatop  state=%s  last-event=%s", m.serverState, m.lastEvent), stateColor(m.serverState))
	m.drawText(0, 1, "players:", tcell.ColorWhite)

	row := 2
	for _, id := range m.playerOrder {
		name := m.players[id].Name
		m.drawText(2, row, fmt.Sprintf("%s  %s", id.String(), name), tcell.ColorGreen)
		row++
	}
	if m.status != "" {
		m.drawText(0, row+1, m.status, tcell.ColorRed)
	}

	m.screen.Show()
}

func (m *monitor) drawText(x, y int, text string, color tcell.Color) {
	style := tcell.StyleDefault.Foreground(color).Background(tcell.ColorBlack)
	for i, r := range text {
		m.screen.SetContent(x+i, y, r, nil, style)
	}
}

