// Package transport provides the minimal length-prefixed TCP framing the
// demo binary needs to move internal/network.Message values between nodes.
// It deliberately has no retry, backoff, or peer discovery — just enough
// wire plumbing to drive the worker pool end to end over a real socket.
package transport

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/denny1997/go-prism-node/internal/encode"
	"github.com/denny1997/go-prism-node/internal/network"
)

const maxMessageSize = 16 << 20

// Conn wraps a net.Conn with the node's framing: a 4-byte big-endian length
// prefix followed by a canonical-CBOR-encoded Message.
type Conn struct {
	mu   sync.Mutex
	conn net.Conn
	r    *bufio.Reader
}

// NewConn wraps an already-established connection.
func NewConn(c net.Conn) *Conn {
	return &Conn{conn: c, r: bufio.NewReader(c)}
}

// Send implements network.Peer.
func (c *Conn) Send(msg network.Message) {
	if err := c.write(msg); err != nil {
		c.conn.Close()
	}
}

func (c *Conn) write(msg network.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	payload, err := encode.Canonical(msg)
	if err != nil {
		return fmt.Errorf("transport: encode: %w", err)
	}
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(payload)))
	if _, err := c.conn.Write(length[:]); err != nil {
		return err
	}
	_, err = c.conn.Write(payload)
	return err
}

// Recv blocks until a framed Message arrives or the connection fails.
func (c *Conn) Recv() (network.Message, error) {
	var length [4]byte
	if _, err := io.ReadFull(c.r, length[:]); err != nil {
		return network.Message{}, err
	}
	n := binary.BigEndian.Uint32(length[:])
	if n > maxMessageSize {
		return network.Message{}, fmt.Errorf("transport: message of %d bytes exceeds limit", n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(c.r, payload); err != nil {
		return network.Message{}, err
	}
	var msg network.Message
	if err := encode.Decode(payload, &msg); err != nil {
		return network.Message{}, fmt.Errorf("transport: decode: %w", err)
	}
	return msg, nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// Hub fans inbound messages into a worker pool's channel and tracks the set
// of live peer connections for broadcast.
type Hub struct {
	mu    sync.RWMutex
	peers map[*Conn]struct{}
}

// NewHub constructs an empty peer hub.
func NewHub() *Hub {
	return &Hub{peers: make(map[*Conn]struct{})}
}

// Broadcast implements network.Broadcaster by sending msg to every
// currently connected peer.
func (h *Hub) Broadcast(msg network.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.peers {
		c.Send(msg)
	}
}

// Serve accepts connections on ln forever, reading framed messages off each
// and handing them to pool.Inbound until the connection closes.
func (h *Hub) Serve(ln net.Listener, pool *network.Pool) error {
	for {
		raw, err := ln.Accept()
		if err != nil {
			return err
		}
		c := NewConn(raw)
		h.add(c)
		go h.readLoop(c, pool)
	}
}

// Dial connects out to addr and registers the resulting peer, reading its
// messages into pool.Inbound the same way an accepted connection would.
func (h *Hub) Dial(addr string, pool *network.Pool) (*Conn, error) {
	raw, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	c := NewConn(raw)
	h.add(c)
	go h.readLoop(c, pool)
	return c, nil
}

func (h *Hub) add(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.peers[c] = struct{}{}
}

func (h *Hub) remove(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.peers, c)
}

func (h *Hub) readLoop(c *Conn, pool *network.Pool) {
	defer func() {
		h.remove(c)
		c.Close()
	}()
	for {
		msg, err := c.Recv()
		if err != nil {
			return
		}
		pool.Inbound <- network.Inbound{Msg: msg, From: c}
	}
}

// PeerCount reports how many peers are currently connected.
func (h *Hub) PeerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}
