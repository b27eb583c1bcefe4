// Package hub provides the client used to deliver IoT messages to the
// hub service.
//
// A message on the wire is a header block of key:value lines terminated
// by a blank line, followed immediately by the payload bytes:
//
//	key-1:value-1\n
//	key-2:value-2\n\n
//	<payload>
//
// The total message size is bounded; payload bytes beyond the bound are
// dropped by the client, not by its callers.
package hub

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"github.com/sirupsen/logrus"
)

// DefaultMaxMessageSize bounds the total message (headers + payload)
// unless the configuration overrides it.
const DefaultMaxMessageSize = 256 * 1024

// Error classes reported by the client. Callers propagate these without
// reinterpretation; errors.Is distinguishes them when needed.
var (
	ErrConnect = errors.New("hub connection failed")
	ErrClosed  = errors.New("hub client closed")
	ErrWrite   = errors.New("hub write failed")
)

// Client is the narrow contract the sender consumes: one blocking
// streaming send, a verbosity toggle, and a close.
type Client interface {
	SetVerbose(verbose bool)
	Stream(headers string, payload io.Reader) error
	Close() error
}

// Config holds the connection parameters for a hub client.
type Config struct {
	// Address is the hub endpoint as a multiaddr, e.g.
	// /ip4/127.0.0.1/tcp/10710 or /unix/var/run/iothub.sock.
	Address string

	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration

	// MaxMessageSize bounds the total message in bytes.
	MaxMessageSize int64
}

// NewConfig returns a Config populated with defaults.
func NewConfig() Config {
	return Config{
		Address:        "/ip4/127.0.0.1/tcp/10710",
		DialTimeout:    10 * time.Second,
		MaxMessageSize: DefaultMaxMessageSize,
	}
}

type client struct {
	conn    net.Conn
	maxSize int64
	verbose bool
	closed  bool
}

// Dial connects to the hub endpoint named by cfg.Address.
func Dial(cfg Config) (Client, error) {
	maddr, err := multiaddr.NewMultiaddr(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid address %q: %v", ErrConnect, cfg.Address, err)
	}

	d := manet.Dialer{Dialer: net.Dialer{Timeout: cfg.DialTimeout}}
	conn, err := d.Dial(maddr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnect, cfg.Address, err)
	}

	maxSize := cfg.MaxMessageSize
	if maxSize <= 0 {
		maxSize = DefaultMaxMessageSize
	}

	return &client{conn: conn, maxSize: maxSize}, nil
}

// SetVerbose enables debug logging of stream progress.
func (c *client) SetVerbose(verbose bool) {
	c.verbose = verbose
}

// Stream writes the header block followed by the payload bytes, blocking
// until the payload is exhausted or the message size bound is reached.
// Payload bytes beyond the bound are not sent.
func (c *client) Stream(headers string, payload io.Reader) error {
	if c.closed {
		return ErrClosed
	}

	budget := c.maxSize - int64(len(headers))
	if budget < 0 {
		return fmt.Errorf("%w: header block of %d bytes exceeds message size %d",
			ErrWrite, len(headers), c.maxSize)
	}

	if _, err := io.WriteString(c.conn, headers); err != nil {
		return fmt.Errorf("%w: write headers: %v", ErrWrite, err)
	}

	n, err := io.Copy(c.conn, &io.LimitedReader{R: payload, N: budget})
	if err != nil {
		return fmt.Errorf("%w: write payload after %d bytes: %v", ErrWrite, n, err)
	}

	if c.verbose {
		logrus.Debugf("streamed %d header bytes and %d payload bytes to hub", len(headers), n)
	}
	return nil
}

// Close releases the connection. Safe to call more than once.
func (c *client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
