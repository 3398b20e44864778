package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/rahulyhg/trackbook/internal/core/model"
)

type recordingSink struct {
	mu        sync.Mutex
	positions map[string][]model.Position
	reject    bool
	got       chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{positions: map[string][]model.Position{}, got: make(chan struct{}, 16)}
}

func (s *recordingSink) AddPosition(_ context.Context, deviceID string, p model.Position) (model.WayPoint, error) {
	defer func() { s.got <- struct{}{} }()
	if s.reject {
		return model.WayPoint{}, errors.New("not recording")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[deviceID] = append(s.positions[deviceID], p)
	return model.NewWayPoint(p, false, 0), nil
}

func (s *recordingSink) count(deviceID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.positions[deviceID])
}

func waitFor(t *testing.T, ch <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for position %d", i+1)
		}
	}
}

const (
	frameA = "*HQ,865205030330012,V1,145452,A,2240.55181,N,11358.32389,E,0.00,0,100815,FFFFFBFF#"
	frameB = "*HQ,865205030330012,V1,145512,A,2240.56181,N,11358.33389,E,3.00,90,100815,FFFFFBFF#"
)

func TestHandleConnectionForwardsPositions(t *testing.T) {
	sink := newRecordingSink()
	srv := NewTCPServer(0, sink)

	client, conn := net.Pipe()
	done := make(chan struct{})
	go func() {
		srv.handleConnection(context.Background(), conn)
		close(done)
	}()

	// heartbeat and garbage are skipped, split frames are reassembled
	payload := "*HQ,865205030330012,HTBT,100#junk" + frameA + frameB[:20]
	if _, err := client.Write([]byte(payload)); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Write([]byte(frameB[20:])); err != nil {
		t.Fatal(err)
	}
	waitFor(t, sink.got, 2)
	client.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("connection handler did not return")
	}

	if got := sink.count("865205030330012"); got != 2 {
		t.Errorf("forwarded %d positions, want 2", got)
	}
}

func TestRejectedPositionsKeepConnection(t *testing.T) {
	sink := newRecordingSink()
	sink.reject = true
	srv := NewTCPServer(0, sink)

	client, conn := net.Pipe()
	go srv.handleConnection(context.Background(), conn)
	defer client.Close()

	for i := 0; i < 2; i++ {
		if _, err := client.Write([]byte(frameA)); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}
	waitFor(t, sink.got, 2)
}

func TestStartStop(t *testing.T) {
	sink := newRecordingSink()
	srv := NewTCPServer(0, sink)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if _, err := conn.Write([]byte(frameA)); err != nil {
		t.Fatal(err)
	}
	waitFor(t, sink.got, 1)

	stopped := make(chan struct{})
	go func() {
		srv.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatalf("Stop() did not return with an open connection")
	}
	conn.Close()
}
