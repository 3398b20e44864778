package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rahulyhg/trackbook/internal/core/model"
	"github.com/rahulyhg/trackbook/internal/logger"
	"github.com/rahulyhg/trackbook/internal/protocol/h02"
)

// PositionSink receives decoded device samples.
type PositionSink interface {
	AddPosition(ctx context.Context, deviceID string, position model.Position) (model.WayPoint, error)
}

type TCPServer struct {
	addr        string
	listener    net.Listener
	h02Decoder  *h02.Decoder
	sink        PositionSink
	idleTimeout time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewTCPServer(port int, sink PositionSink) *TCPServer {
	return &TCPServer{
		addr:        fmt.Sprintf("0.0.0.0:%d", port),
		h02Decoder:  h02.NewDecoder(),
		sink:        sink,
		idleTimeout: 10 * time.Minute,
	}
}

func (s *TCPServer) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to start TCP server: %w", err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(context.Background())

	logger.Info("TCP server listening", logger.String("addr", listener.Addr().String()))

	s.wg.Add(1)
	go s.acceptConnections()
	return nil
}

// Addr returns the bound address, useful when started on port 0.
func (s *TCPServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *TCPServer) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
}

func (s *TCPServer) acceptConnections() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Warn("error accepting connection", logger.ErrorField(err))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(s.ctx, conn)
		}()
	}
}

func (s *TCPServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	logger.Info("device connected", logger.String("remote", remote))

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-finished:
		}
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Split(h02.SplitFrames)
	for {
		if s.idleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		}
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			return
		}
		s.handleFrame(ctx, remote, scanner.Bytes())
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		logger.Warn("error reading from connection", logger.String("remote", remote), logger.ErrorField(err))
	}
	logger.Info("device disconnected", logger.String("remote", remote))
}

func (s *TCPServer) handleFrame(ctx context.Context, remote string, frame []byte) {
	msg, err := s.h02Decoder.Decode(frame)
	if err != nil {
		if errors.Is(err, h02.ErrUnsupportedMessage) {
			logger.Debug("skipping H02 frame", logger.String("remote", remote), logger.ErrorField(err))
			return
		}
		logger.Warn("error decoding H02 data", logger.String("remote", remote), logger.ErrorField(err))
		return
	}

	if _, err := s.sink.AddPosition(ctx, msg.DeviceID, msg.Position); err != nil {
		logger.Warn("position rejected",
			logger.String("device", msg.DeviceID),
			logger.ErrorField(err))
		return
	}
	logger.Debug("received H02 position",
		logger.String("device", msg.DeviceID),
		logger.Float64("lat", msg.Position.Latitude),
		logger.Float64("lon", msg.Position.Longitude))
}
