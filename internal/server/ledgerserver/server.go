package ledgerserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/ledgerd/internal/core/domain"
	"github.com/yndnr/ledgerd/internal/server/config"
	"github.com/yndnr/ledgerd/internal/server/dispatch"
	"github.com/yndnr/ledgerd/internal/telemetry/logger"
)

const (
	defaultReadTimeout   = 30 * time.Second
	defaultWriteTimeout  = 10 * time.Second
	defaultIdleTimeout   = 5 * time.Minute
	defaultMaxFrameBytes = 64 << 10

	discardTimeout = 100 * time.Millisecond
	discardLimit   = 1 << 20
)

// Handler processes one request frame.
type Handler interface {
	HandleFrame(ctx context.Context, frame []byte) dispatch.Response
}

// Observer receives connection lifecycle events.
type Observer interface {
	ConnOpened()
	ConnClosed()
	IncRateLimited()
}

type nopObserver struct{}

func (nopObserver) ConnOpened()     {}
func (nopObserver) ConnClosed()     {}
func (nopObserver) IncRateLimited() {}

// Option configures a Server.
type Option func(*Server)

// WithObserver sets the connection observer.
func WithObserver(o Observer) Option {
	return func(s *Server) {
		if o != nil {
			s.observer = o
		}
	}
}

// Server accepts ledger protocol connections.
type Server struct {
	cfg      config.LedgerConfig
	handler  Handler
	observer Observer
	limiter  *ipLimiter
	logger   *slog.Logger

	ln        net.Listener
	running   atomic.Bool
	stop      chan struct{}
	closeOnce sync.Once
	closeErr  error
	wg        sync.WaitGroup

	mu    sync.Mutex
	conns map[*conn]struct{}
}

// New creates a server. Zero timeouts and frame sizes fall back to defaults.
func New(cfg config.LedgerConfig, handler Handler, log *slog.Logger, opts ...Option) *Server {
	if log == nil {
		log = slog.Default()
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.MaxFrameBytes <= 0 {
		cfg.MaxFrameBytes = defaultMaxFrameBytes
	}

	s := &Server{
		cfg:      cfg,
		handler:  handler,
		observer: nopObserver{},
		limiter:  newIPLimiter(cfg.RateLimit, cfg.RateBurst),
		logger:   log,
		stop:     make(chan struct{}),
		conns:    make(map[*conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the listen address and serves connections in the background.
// The accept loop stops on Shutdown or when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("ledgerserver: listen %s: %w", s.cfg.Addr, err)
	}
	s.serve(ctx, ln)
	return nil
}

func (s *Server) serve(ctx context.Context, ln net.Listener) {
	s.ln = ln
	s.running.Store(true)
	s.logger.Info("ledger server listening", "addr", ln.Addr().String())

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil {
			s.logger.Error("accept loop stopped", "error", err)
		}
	}()
	go func() {
		defer s.wg.Done()
		s.limiter.sweepLoop(ctx, s.stop)
	}()
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting, lets in-flight requests finish and closes idle
// connections. It returns ctx.Err() if draining outlasts ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.ln == nil {
		return nil
	}
	s.stopAccepting()

	// Wake connections blocked waiting for their next frame.
	s.mu.Lock()
	for c := range s.conns {
		_ = c.netConn.SetReadDeadline(time.Now())
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("ledger server stopped")
	case <-ctx.Done():
		s.mu.Lock()
		for c := range s.conns {
			_ = c.netConn.Close()
		}
		s.mu.Unlock()
		return ctx.Err()
	}
	return s.closeErr
}

func (s *Server) stopAccepting() {
	s.closeOnce.Do(func() {
		s.running.Store(false)
		close(s.stop)
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.closeErr = err
		}
	})
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	go func() {
		select {
		case <-ctx.Done():
			s.stopAccepting()
		case <-s.stop:
		}
	}()

	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			return err
		}

		c := newConn(nc, s.cfg.MaxFrameBytes)
		if !s.track(c) {
			_ = nc.Close()
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(c)
			s.serveConn(ctx, c)
		}()
	}
}

func (s *Server) track(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running.Load() {
		return false
	}
	s.conns[c] = struct{}{}
	s.observer.ConnOpened()
	return true
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	_ = c.Close()
	s.observer.ConnClosed()
}

func (s *Server) serveConn(ctx context.Context, c *conn) {
	log := s.logger.With("remote", c.remote)
	log.Debug("connection opened")
	defer log.Debug("connection closed")

	for {
		// Between frames the connection may idle; once a frame starts it
		// must arrive within the read timeout.
		if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
			return
		}
		if !s.running.Load() {
			return
		}
		if _, err := c.br.Peek(1); err != nil {
			logReadError(log, err)
			return
		}
		if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return
		}

		frame, err := c.readFrame()
		if errors.Is(err, errFrameTooLarge) {
			log.Warn("frame too large", "limit", s.cfg.MaxFrameBytes)
			s.write(c, dispatch.Failure(domain.ErrInvalidEnvelope.WithDetailsf("frame exceeds %d bytes", s.cfg.MaxFrameBytes)))
			c.discardPending()
			return
		}
		if err != nil {
			logReadError(log, err)
			return
		}
		if len(frame) == 0 {
			continue
		}

		if !s.limiter.allow(c.ip) {
			s.observer.IncRateLimited()
			if !s.write(c, dispatch.Failure(domain.ErrRateLimited)) {
				return
			}
			continue
		}

		reqCtx := logger.WithRequestID(ctx, ulid.Make().String())
		resp := s.handler.HandleFrame(reqCtx, frame)
		if !s.write(c, resp) || resp.Terminal {
			return
		}
	}
}

// write sends one response line. It reports false when the connection is
// no longer usable.
func (s *Server) write(c *conn, resp dispatch.Response) bool {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("encode response", "error", err)
		data, _ = json.Marshal(dispatch.Failure(domain.ErrInternal))
	}
	data = append(data, '\n')

	if err := c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return false
	}
	if _, err := c.bw.Write(data); err != nil {
		return false
	}
	return c.bw.Flush() == nil
}

func logReadError(log *slog.Logger, err error) {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
	case errors.As(err, &netErr) && netErr.Timeout():
		log.Debug("connection timed out")
	default:
		log.Debug("connection read error", "error", err)
	}
}

// conn is one client connection.
type conn struct {
	netConn  net.Conn
	br       *bufio.Reader
	bw       *bufio.Writer
	remote   string
	ip       string
	maxFrame int

	closed atomic.Bool
}

func newConn(nc net.Conn, maxFrame int) *conn {
	remote := nc.RemoteAddr().String()
	ip, _, err := net.SplitHostPort(remote)
	if err != nil {
		ip = remote
	}
	return &conn{
		netConn:  nc,
		br:       bufio.NewReaderSize(nc, maxFrame+1),
		bw:       bufio.NewWriter(nc),
		remote:   remote,
		ip:       ip,
		maxFrame: maxFrame,
	}
}

// discardPending reads and drops whatever the client already sent, so that
// closing does not reset the connection before the last response is read.
func (c *conn) discardPending() {
	_ = c.netConn.SetReadDeadline(time.Now().Add(discardTimeout))
	_, _ = io.Copy(io.Discard, io.LimitReader(c.br, discardLimit))
}

func (c *conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}
