// util/rpc.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/rpc"
	"sync"

	"github.com/mmp/fmc/log"

	"github.com/klauspost/compress/flate"
	"github.com/vmihailenco/msgpack/v5"
)

// msgpackStream is the half of an RPC connection shared by both codecs:
// each message is a header value followed by a body value.
type msgpackStream struct {
	rwc       io.ReadWriteCloser
	dec       *msgpack.Decoder
	enc       *msgpack.Encoder
	buf       *bufio.Writer
	closeOnce sync.Once
	closeErr  error
}

func (s *msgpackStream) init(rwc io.ReadWriteCloser) {
	s.rwc = rwc
	s.buf = bufio.NewWriter(rwc)
	s.dec = msgpack.NewDecoder(rwc)
	s.enc = msgpack.NewEncoder(s.buf)
}

func (s *msgpackStream) read(v any) error {
	if v == nil {
		// net/rpc passes nil when the body is to be discarded.
		return s.dec.Skip()
	}
	return s.dec.Decode(v)
}

func (s *msgpackStream) write(header, body any) error {
	if err := s.enc.Encode(header); err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}
	if err := s.enc.Encode(body); err != nil {
		return fmt.Errorf("encoding body: %w", err)
	}
	return s.buf.Flush()
}

func (s *msgpackStream) Close() error {
	s.closeOnce.Do(func() { s.closeErr = s.rwc.Close() })
	return s.closeErr
}

type msgpackServerCodec struct {
	msgpackStream
	lg *log.Logger
}

func (c *msgpackServerCodec) ReadRequestHeader(r *rpc.Request) error { return c.read(r) }
func (c *msgpackServerCodec) ReadRequestBody(body any) error        { return c.read(body) }

func (c *msgpackServerCodec) WriteResponse(r *rpc.Response, body any) error {
	err := c.write(r, body)
	if err != nil {
		// A partially written response leaves the stream unusable.
		c.lg.Error("rpc: unable to write response", slog.String("service_method", r.ServiceMethod),
			slog.Any("error", err))
		c.Close()
	}
	return err
}

// MakeMessagepackServerCodec returns a net/rpc server codec that uses
// msgpack rather than gob on the wire.
func MakeMessagepackServerCodec(conn io.ReadWriteCloser, lg *log.Logger) rpc.ServerCodec {
	c := &msgpackServerCodec{lg: lg}
	c.init(conn)
	return c
}

type msgpackClientCodec struct {
	msgpackStream
}

func (c *msgpackClientCodec) WriteRequest(r *rpc.Request, body any) error { return c.write(r, body) }
func (c *msgpackClientCodec) ReadResponseHeader(r *rpc.Response) error   { return c.read(r) }
func (c *msgpackClientCodec) ReadResponseBody(body any) error            { return c.read(body) }

// MakeMessagepackClientCodec is the client-side counterpart of
// MakeMessagepackServerCodec.
func MakeMessagepackClientCodec(conn io.ReadWriteCloser) rpc.ClientCodec {
	c := &msgpackClientCodec{}
	c.init(conn)
	return c
}

// LoggingServerCodec and LoggingClientCodec log each request and
// response at debug level.
type LoggingServerCodec struct {
	rpc.ServerCodec
	lg *log.Logger
}

func MakeLoggingServerCodec(label string, c rpc.ServerCodec, lg *log.Logger) *LoggingServerCodec {
	return &LoggingServerCodec{ServerCodec: c, lg: lg.With(slog.String("label", label))}
}

func (c *LoggingServerCodec) ReadRequestHeader(r *rpc.Request) error {
	err := c.ServerCodec.ReadRequestHeader(r)
	if err != io.EOF {
		c.lg.Debug("server: rpc request", slog.String("service_method", r.ServiceMethod),
			slog.Uint64("seq", r.Seq), slog.Any("error", err))
	}
	return err
}

func (c *LoggingServerCodec) WriteResponse(r *rpc.Response, body any) error {
	err := c.ServerCodec.WriteResponse(r, body)
	c.lg.Debug("server: rpc response", slog.String("service_method", r.ServiceMethod),
		slog.Uint64("seq", r.Seq), slog.String("rpc_error", r.Error), slog.Any("error", err))
	return err
}

type LoggingClientCodec struct {
	rpc.ClientCodec
	lg *log.Logger
}

func MakeLoggingClientCodec(label string, c rpc.ClientCodec, lg *log.Logger) *LoggingClientCodec {
	return &LoggingClientCodec{ClientCodec: c, lg: lg.With(slog.String("label", label))}
}

func (c *LoggingClientCodec) WriteRequest(r *rpc.Request, body any) error {
	err := c.ClientCodec.WriteRequest(r, body)
	c.lg.Debug("client: rpc request", slog.String("service_method", r.ServiceMethod),
		slog.Uint64("seq", r.Seq), slog.String("type", fmt.Sprintf("%T", body)), slog.Any("error", err))
	return err
}

func (c *LoggingClientCodec) ReadResponseHeader(r *rpc.Response) error {
	err := c.ClientCodec.ReadResponseHeader(r)
	c.lg.Debug("client: rpc response", slog.String("service_method", r.ServiceMethod),
		slog.Uint64("seq", r.Seq), slog.String("rpc_error", r.Error), slog.Any("error", err))
	return err
}

// CompressedConn wraps a net.Conn so that everything sent over it is
// deflate-compressed. Each Write is flushed immediately so that RPC
// requests aren't held back waiting for more data.
type CompressedConn struct {
	net.Conn
	r io.ReadCloser
	w *flate.Writer
}

func MakeCompressedConn(c net.Conn) (*CompressedConn, error) {
	cc := &CompressedConn{Conn: c, r: flate.NewReader(c)}
	var err error
	if cc.w, err = flate.NewWriter(c, 3); err != nil {
		return nil, err
	}
	return cc, nil
}

func (c *CompressedConn) Read(b []byte) (int, error) {
	return c.r.Read(b)
}

func (c *CompressedConn) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	if err != nil {
		return n, err
	}
	return n, c.w.Flush()
}

func (c *CompressedConn) Close() error {
	c.r.Close()
	c.w.Close()
	return c.Conn.Close()
}
