package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/vladimirvolkov/penalty/internal/middleware"
)

// ClientInfo is what the client announced in the upgrade query.
type ClientInfo struct {
	ID     string
	Name   string
	IP     string
	Codec  string
	Width  float64
	Height float64
}

type Conn struct {
	ws      *websocket.Conn
	codec   Codec
	info    ClientInfo
	sendCh  chan []byte
	done    chan struct{}
	once    sync.Once
	limiter *middleware.IPRateLimiter
}

func NewConn(ws *websocket.Conn, codec Codec, info ClientInfo, limiter *middleware.IPRateLimiter) *Conn {
	info.Codec = codec.Name()
	return &Conn{
		ws:      ws,
		codec:   codec,
		info:    info,
		sendCh:  make(chan []byte, 64),
		done:    make(chan struct{}),
		limiter: limiter,
	}
}

func (c *Conn) Info() ClientInfo { return c.info }

// Send encodes and queues msg. A full buffer drops the message rather
// than stalling the game loop.
func (c *Conn) Send(msg Message) {
	data, err := c.codec.Encode(msg)
	if err != nil {
		log.Printf("conn %s: encode error: %v", c.info.ID, err)
		return
	}
	select {
	case c.sendCh <- data:
	default:
		log.Printf("conn %s: send buffer full, dropping message 0x%02x", c.info.ID, msg.Type)
	}
}

func (c *Conn) ReadLoop(ctx context.Context) <-chan Message {
	ch := make(chan Message, 64)
	go func() {
		defer close(ch)
		for {
			_, data, err := c.ws.Read(ctx)
			if err != nil {
				log.Printf("conn %s: read error: %v", c.info.ID, err)
				c.Close()
				return
			}
			if c.limiter != nil && !c.limiter.MessageAllowed(c.info.IP) {
				continue
			}
			msg, err := c.codec.Decode(data)
			if err != nil {
				log.Printf("conn %s: decode error: %v", c.info.ID, err)
				continue
			}
			select {
			case ch <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func (c *Conn) WriteLoop(ctx context.Context) {
	typ := c.codec.FrameType()
	for {
		select {
		case data := <-c.sendCh:
			ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.ws.Write(ctx2, typ, data)
			cancel()
			if err != nil {
				log.Printf("conn %s: write error: %v", c.info.ID, err)
				c.Close()
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Conn) Close() {
	c.closeWith(websocket.StatusNormalClosure, "")
}

func (c *Conn) closeWith(code websocket.StatusCode, reason string) {
	c.once.Do(func() {
		close(c.done)
		c.ws.Close(code, reason)
	})
}

func (c *Conn) Done() <-chan struct{} {
	return c.done
}
