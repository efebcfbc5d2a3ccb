package stream

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/draw"
	"github.com/san-kum/rigidsim/internal/scene"
)

func dial(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket server: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return msg
}

func waitClients(t *testing.T, srv *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for srv.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, srv.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func testFrame(step int) draw.Frame {
	rec := draw.NewRecorder()
	rec.Sphere(mgl64.Vec3{1, 2, 3}, 1, 16, 16, mgl64.Vec4{1, 0, 0, 1})
	rec.Line(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, mgl64.Vec4{1, 1, 0, 1})
	return rec.Frame(step, float64(step)*0.01)
}

func TestBroadcastReachesClient(t *testing.T) {
	srv := NewServer(nil)
	conn := dial(t, srv)

	if msg := read(t, conn); msg.Type != MessageTypeInfo {
		t.Fatalf("expected info first, got %q", msg.Type)
	}
	waitClients(t, srv, 1)

	srv.Broadcast(testFrame(7))
	msg := read(t, conn)
	if msg.Type != MessageTypeFrame || msg.Frame == nil {
		t.Fatalf("expected a frame, got %+v", msg)
	}
	if msg.Frame.Step != 7 || len(msg.Frame.Primitives) != 2 {
		t.Errorf("unexpected frame: %+v", msg.Frame)
	}
	if p := msg.Frame.Primitives[0]; p.Kind != draw.KindSphere || p.Center != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("sphere primitive mangled: %+v", p)
	}
}

func TestLateClientGetsLatestFrame(t *testing.T) {
	srv := NewServer(nil)
	srv.Broadcast(testFrame(3))

	conn := dial(t, srv)
	read(t, conn)
	msg := read(t, conn)
	if msg.Type != MessageTypeFrame || msg.Frame.Step != 3 {
		t.Errorf("expected the latest frame on connect, got %+v", msg)
	}
}

func TestClientDisconnect(t *testing.T) {
	srv := NewServer(nil)
	conn := dial(t, srv)
	read(t, conn)
	waitClients(t, srv, 1)

	conn.Close()
	waitClients(t, srv, 0)
	srv.Broadcast(testFrame(1))
}

func TestCloseDisconnectsClients(t *testing.T) {
	srv := NewServer(nil)
	conn := dial(t, srv)
	read(t, conn)
	waitClients(t, srv, 1)

	srv.Close()
	if srv.Clients() != 0 {
		t.Error("Close should drop every client")
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection to be closed")
	}
}

func TestRunStreamsScene(t *testing.T) {
	sc, err := scene.New(scene.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	sc.AddObject(body.NewPlane(body.DefaultPlaneNormal, 0))
	sc.AddObject(body.NewSphere(1, mgl64.Vec3{0, 10, 0}))

	srv := NewServer(nil)
	conn := dial(t, srv)
	read(t, conn)
	waitClients(t, srv, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, sc, srv, 20*time.Millisecond) }()

	msg := read(t, conn)
	if msg.Type != MessageTypeFrame || msg.Frame.Step < 1 {
		t.Errorf("expected a stepped frame, got %+v", msg)
	}
	// plane draws two lines, the sphere one sphere
	if len(msg.Frame.Primitives) != 3 {
		t.Errorf("expected 3 primitives, got %d", len(msg.Frame.Primitives))
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestPingIntervalFixedAtConnect(t *testing.T) {
	srv := NewServer(nil)
	srv.SetPingInterval(50 * time.Millisecond)
	conn := dial(t, srv)

	pings := make(chan struct{}, 16)
	conn.SetPingHandler(func(data string) error {
		select {
		case pings <- struct{}{}:
		default:
		}
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	waitClients(t, srv, 1)

	// a later change must not touch the connected client's keepalive
	srv.SetPingInterval(time.Hour)

	for i := 0; i < 3; i++ {
		select {
		case <-pings:
		case <-time.After(2 * time.Second):
			t.Fatalf("got %d pings, want 3", i)
		}
	}
	if n := srv.Clients(); n != 1 {
		t.Errorf("expected the client to stay connected, have %d", n)
	}
}
