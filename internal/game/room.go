package game

import (
	"context"
	"log"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vladimirvolkov/penalty/internal/geom"
	"github.com/vladimirvolkov/penalty/internal/goal"
	"github.com/vladimirvolkov/penalty/internal/ws"
)

const maxQueuedInputs = 256

// Peer is the connection a room plays over.
type Peer interface {
	Info() ws.ClientInfo
	Send(msg ws.Message)
	ReadLoop(ctx context.Context) <-chan ws.Message
	Close()
}

type GameOverPayload struct {
	Tallies Tallies `json:"tallies" msgpack:"tallies"`
}

// Room runs one Session for one websocket client. Inputs are queued by the
// read goroutine and applied at the start of the next tick.
type Room struct {
	peer     Peer
	settings Settings
	session  *Session

	inputMu sync.Mutex
	inputs  []ws.Message

	tick   atomic.Uint64
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRoom(peer Peer, settings Settings, rng *rand.Rand) *Room {
	r := &Room{peer: peer, settings: settings}
	info := peer.Info()
	vp := goal.Viewport{Width: info.Width, Height: info.Height}
	r.session = NewSession(settings, vp, rng, SessionHooks{
		OnOutcome:  r.sendOutcome,
		OnGameOver: r.sendGameOver,
	})
	return r
}

func (r *Room) Session() *Session { return r.session }

func (r *Room) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	info := r.peer.Info()
	r.peer.Send(ws.NewMessage(ws.MsgSessionStart, 0, ws.SessionStartPayload{
		SessionID: info.ID,
		Name:      info.Name,
		Codec:     info.Codec,
		MaxBalls:  r.settings.Session.MaxBalls,
		TickRate:  TickRate,
		Width:     info.Width,
		Height:    info.Height,
	}))
	r.session.Start()

	go r.readLoop(ctx)

	go func() {
		r.gameLoop(ctx)
		close(r.done)
	}()
}

// Done returns a channel that closes when the room's game loop exits.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

func (r *Room) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *Room) readLoop(ctx context.Context) {
	msgs := r.peer.ReadLoop(ctx)
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				log.Printf("%s disconnected", r.peer.Info().ID)
				r.cancel()
				return
			}
			r.enqueue(msg)
		case <-ctx.Done():
			return
		}
	}
}

// enqueue answers pings immediately and queues everything else for the
// game loop.
func (r *Room) enqueue(msg ws.Message) {
	if msg.Type == ws.MsgPing {
		var ping ws.PingPayload
		if err := msg.Decode(&ping); err != nil {
			return
		}
		r.peer.Send(ws.NewMessage(ws.MsgPong, r.tick.Load(), ws.PongPayload{
			ClientTime: ping.ClientTime,
			ServerTime: uint64(time.Now().UnixMilli()),
		}))
		return
	}

	r.inputMu.Lock()
	defer r.inputMu.Unlock()
	if len(r.inputs) >= maxQueuedInputs {
		return
	}
	r.inputs = append(r.inputs, msg)
}

func (r *Room) gameLoop(ctx context.Context) {
	ticker := time.NewTicker(DT)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.step(DT)
		case <-ctx.Done():
			return
		}
	}
}

// step applies queued input, advances the session one frame and sends
// the resulting snapshot.
func (r *Room) step(dt time.Duration) {
	r.inputMu.Lock()
	inputs := r.inputs
	r.inputs = nil
	r.inputMu.Unlock()

	for _, msg := range inputs {
		r.apply(msg)
	}

	r.session.Tick(dt)
	f := r.session.Frame()
	r.tick.Store(f.Tick)
	r.peer.Send(ws.NewMessage(ws.MsgFrame, f.Tick, f))
}

func (r *Room) apply(msg ws.Message) {
	switch msg.Type {
	case ws.MsgPointer:
		var p ws.PointerPayload
		if err := msg.Decode(&p); err != nil {
			return
		}
		phase, ok := ParsePointerPhase(p.Phase)
		if !ok || !finite(p.X, p.Y, p.T) {
			return
		}
		at := time.Duration(p.T * float64(time.Millisecond))
		r.session.Pointer(phase, geom.V(p.X, p.Y), at)

	case ws.MsgResize:
		var p ws.ResizePayload
		if err := msg.Decode(&p); err != nil || !finite(p.Width, p.Height) {
			return
		}
		r.session.Resize(goal.Viewport{
			Width:  geom.Clamp(p.Width, 1, 8192),
			Height: geom.Clamp(p.Height, 1, 8192),
		})

	case ws.MsgReset:
		r.session.Reset()

	case ws.MsgRestart:
		r.session.Restart()
	}
}

func (r *Room) sendOutcome(ev OutcomeEvent) {
	r.peer.Send(ws.NewMessage(ws.MsgOutcome, r.session.Clock().Frame(), ev))
}

func (r *Room) sendGameOver(t Tallies) {
	r.peer.Send(ws.NewMessage(ws.MsgGameOver, r.session.Clock().Frame(), GameOverPayload{Tallies: t}))
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
