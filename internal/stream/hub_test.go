package stream

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/rahulyhg/trackbook/internal/core/model"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("dev-1")
	defer hub.Unregister(client)

	hub.Broadcast(context.Background(), "dev-1", []byte("hello"))

	select {
	case msg := <-client.Send:
		if string(msg) != "hello" {
			t.Fatalf("unexpected message %q", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubOtherDeviceNotDelivered(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("dev-1")
	defer hub.Unregister(client)

	hub.Broadcast(context.Background(), "dev-2", []byte("hello"))
	select {
	case <-client.Send:
		t.Fatalf("message for another device delivered")
	default:
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch != "recording:abc:waypoints" {
		t.Fatalf("unexpected channel %q", ch)
	}
	if deviceIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected device id")
	}
	for _, bad := range []string{"bad", "recording::waypoints", "other:abc:waypoints"} {
		if deviceIDFromChannel(bad) != "" {
			t.Errorf("expected empty device id for %q", bad)
		}
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("dev-2")
	hub.Unregister(client)
	if _, ok := <-client.Send; ok {
		t.Fatalf("expected channel closed")
	}
	// second unregister must not panic
	hub.Unregister(client)
	if hub.Subscribers("dev-2") != 0 {
		t.Errorf("expected no subscribers")
	}
}

func TestHubRedisBroadcast(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	defer hub.Close()
	<-hub.Ready()

	ws := hub.Register("dev-redis")
	defer hub.Unregister(ws)

	hub.Broadcast(context.Background(), "dev-redis", []byte("via-redis"))

	select {
	case msg := <-ws.Send:
		if string(msg) != "via-redis" {
			t.Fatalf("unexpected message %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for redis message")
	}

	select {
	case msg := <-ws.Send:
		t.Fatalf("duplicate delivery %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWayPointEventEncode(t *testing.T) {
	track := model.NewTrack()
	wp := track.AddWayPoint(model.NewPosition(1, 2))
	data, err := NewWayPointEvent("dev-1", 0, wp, track.Summary()).Encode()
	if err != nil {
		t.Fatalf("Encode() unexpected error: %v", err)
	}

	var decoded WayPointEvent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() unexpected error: %v", err)
	}
	if decoded.DeviceID != "dev-1" || decoded.WayPoint.Position.Latitude != 1 || decoded.Summary.Size != 1 {
		t.Errorf("unexpected event: %+v", decoded)
	}
}
