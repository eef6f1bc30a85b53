// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package tcp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/courierq/courier/broker"
	"github.com/courierq/courier/protocol"
	"github.com/courierq/courier/protocol/codec"
)

type sessionConfig struct {
	readTimeout       time.Duration
	writeTimeout      time.Duration
	maxFrameSize      uint32
	compressThreshold int
}

// session is one connection worker: it reads framed requests, runs them
// through the dispatcher and writes framed responses. The client's
// identity is its remote address, stable for the connection's lifetime.
// No broker lock is ever held across a network read or write.
type session struct {
	conn       net.Conn
	client     protocol.ClientID
	dispatcher *broker.Dispatcher
	config     sessionConfig
	logger     *slog.Logger
}

func newSession(conn net.Conn, d *broker.Dispatcher, cfg sessionConfig, logger *slog.Logger) *session {
	return &session{
		conn:       conn,
		client:     protocol.ClientID(conn.RemoteAddr().String()),
		dispatcher: d,
		config:     cfg,
		logger:     logger,
	}
}

// run serves the connection until it closes or the context is cancelled,
// then releases the client's subscriptions.
func (s *session) run(ctx context.Context) {
	defer s.dispatcher.Disconnect(s.client)

	// Unblock the pending read when the server forces shutdown.
	watchdogDone := make(chan struct{})
	defer close(watchdogDone)
	go func() {
		select {
		case <-ctx.Done():
			s.conn.Close()
		case <-watchdogDone:
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.serveOne(ctx); err != nil {
			return
		}
	}
}

// serveOne handles a single request/response cycle. A read timeout is a
// session-level retry: the core is not invoked at all for that cycle.
func (s *session) serveOne(ctx context.Context) error {
	if s.config.readTimeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.config.readTimeout)); err != nil {
			return err
		}
	}

	body, _, err := codec.ReadFrame(s.conn, s.config.maxFrameSize)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() && ctx.Err() == nil {
			return nil
		}
		if !errors.Is(err, io.EOF) && ctx.Err() == nil {
			s.logger.Debug("read failed",
				slog.String("client", string(s.client)),
				slog.String("error", err.Error()))
		}
		return err
	}

	request, err := codec.DecodeRequest(bytes.NewReader(body))
	if err != nil {
		s.logger.Warn("request decode failed",
			slog.String("client", string(s.client)),
			slog.String("error", err.Error()))
		return s.writeError(protocol.ErrDecode)
	}

	response, err := s.dispatcher.Dispatch(request, s.client)
	if err != nil {
		return s.writeError(err)
	}
	return s.writeFrame(response, false)
}

// writeError reports a request-level failure to the peer as an error
// frame carrying the failure text. The connection stays up.
func (s *session) writeError(err error) error {
	return s.writeFrame(codec.EncodeString(err.Error()), true)
}

func (s *session) writeFrame(body []byte, errFrame bool) error {
	if s.config.writeTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.config.writeTimeout)); err != nil {
			return err
		}
	}
	if err := codec.WriteFrame(s.conn, body, errFrame, s.config.compressThreshold); err != nil {
		s.logger.Debug("write failed",
			slog.String("client", string(s.client)),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}
