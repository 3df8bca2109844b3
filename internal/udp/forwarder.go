package udp

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// maxDatagramSize is the largest UDP payload over IPv4.
const maxDatagramSize = 65507

// defaultSendTimeout bounds resolution plus the write of one datagram.
const defaultSendTimeout = 2 * time.Second

// Dialer opens a datagram connection. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Config holds the peer and charset for a Forwarder.
type Config struct {
	// Peer is host:port of the receiving server.
	Peer string

	// Encoding is a WHATWG label such as "koi8-r" or "utf-8". Default: "koi8-r".
	Encoding string

	// Timeout bounds each send. Default: 2s.
	Timeout time.Duration

	// Dialer overrides connection setup. Default: &net.Dialer{}.
	Dialer Dialer
}

// Forwarder sends text payloads as single datagrams to a fixed peer.
//
// Each Send opens a fresh socket, writes once and closes. Nothing is
// retried or buffered.
//
// Thread Safety:
//   - Safe for concurrent use.
type Forwarder struct {
	peer     string
	encoding encoding.Encoding
	charset  string
	timeout  time.Duration
	dialer   Dialer
}

// NewForwarder creates a Forwarder for the configured peer.
//
// Returns:
//   - error: ErrUnknownEncoding if the charset label is not recognised
func NewForwarder(cfg Config) (*Forwarder, error) {
	charset := cfg.Encoding
	if charset == "" {
		charset = "koi8-r"
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrUnknownEncoding, charset, err)
	}

	f := &Forwarder{
		peer:     cfg.Peer,
		encoding: enc,
		charset:  charset,
		timeout:  cfg.Timeout,
		dialer:   cfg.Dialer,
	}
	if f.timeout <= 0 {
		f.timeout = defaultSendTimeout
	}
	if f.dialer == nil {
		f.dialer = &net.Dialer{}
	}

	return f, nil
}

// Peer returns the destination address.
func (f *Forwarder) Peer() string {
	return f.peer
}

// Send encodes text and writes it to the peer as one datagram.
func (f *Forwarder) Send(ctx context.Context, text string) error {
	payload, err := f.Encode(text)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	conn, err := f.dialer.DialContext(ctx, "udp", f.peer)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSendFailed, f.peer, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("%w: %w", ErrSendFailed, err)
		}
	}

	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSendFailed, f.peer, err)
	}

	return nil
}

// Encode converts text to the configured charset.
//
// Runes the charset cannot represent are an error rather than being
// replaced, so the peer never receives a silently altered message.
func (f *Forwarder) Encode(text string) ([]byte, error) {
	payload, err := f.encoding.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w as %s: %w", ErrEncode, f.charset, err)
	}
	if len(payload) > maxDatagramSize {
		return nil, fmt.Errorf("%w: %d bytes, maximum %d", ErrPayloadTooLarge, len(payload), maxDatagramSize)
	}
	return payload, nil
}
