package connection

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/yndnr/ledgerd/internal/server/dispatch"
)

// maxResponse bounds a single response line. DISPLAY_ALL on a large ledger
// is the biggest thing a server sends back.
const maxResponse = 16 << 20

// ErrClosed is returned by Do after Close or after the server hung up.
var ErrClosed = errors.New("connection closed")

// Request is a request envelope. It must carry an "action" key.
type Request map[string]any

// Client is a connection to a ledger server. Requests are serialized; a
// Client is safe for concurrent use.
type Client struct {
	addr    string
	timeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	closed bool
}

// Dial connects to addr. A positive timeout bounds the dial and every
// subsequent round trip.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return &Client{
		addr:    addr,
		timeout: timeout,
		conn:    conn,
		reader:  bufio.NewReaderSize(conn, 64<<10),
	}, nil
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Do sends req and waits for its response. A failed response is not an
// error; the caller inspects Response.OK.
func (c *Client) Do(ctx context.Context, req Request) (dispatch.Response, error) {
	if _, ok := req[dispatch.FieldAction]; !ok {
		return dispatch.Response{}, fmt.Errorf("request has no %q", dispatch.FieldAction)
	}
	line, err := json.Marshal(req)
	if err != nil {
		return dispatch.Response{}, fmt.Errorf("encode request: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return dispatch.Response{}, ErrClosed
	}

	if err := c.conn.SetDeadline(c.deadline(ctx)); err != nil {
		return dispatch.Response{}, err
	}

	// Unblock the read if ctx ends first.
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err := c.conn.Write(append(line, '\n')); err != nil {
		return dispatch.Response{}, c.fail(ctx, fmt.Errorf("send request: %w", err))
	}

	raw, err := c.readLine()
	if err != nil {
		return dispatch.Response{}, c.fail(ctx, err)
	}

	var resp dispatch.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return dispatch.Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

func (c *Client) deadline(ctx context.Context) time.Time {
	var d time.Time
	if c.timeout > 0 {
		d = time.Now().Add(c.timeout)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && (d.IsZero() || ctxDeadline.Before(d)) {
		d = ctxDeadline
	}
	return d
}

func (c *Client) readLine() ([]byte, error) {
	var buf []byte
	for {
		chunk, err := c.reader.ReadSlice('\n')
		buf = append(buf, chunk...)
		switch {
		case err == nil:
			return buf, nil
		case errors.Is(err, bufio.ErrBufferFull):
			if len(buf) > maxResponse {
				return nil, fmt.Errorf("response exceeds %d bytes", maxResponse)
			}
		case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			return nil, ErrClosed
		default:
			return nil, fmt.Errorf("read response: %w", err)
		}
	}
}

// fail closes the connection after a transport error; the stream can no
// longer be trusted to be aligned on a response boundary.
func (c *Client) fail(ctx context.Context, err error) error {
	c.closed = true
	_ = c.conn.Close()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Close closes the connection. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
