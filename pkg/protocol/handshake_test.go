package protocol

import (
	"context"
	"testing"
	"time"

	"github.com/aduc70x/aducupload/pkg/config"
	"github.com/aduc70x/aducupload/pkg/connection"
)

func TestHandshakeNotInFlashMode(t *testing.T) {
	// The device is running application code, not
	// the bootloader, and answers every probe with 0x07 until it is
	// reset into flash mode and starts identifying itself.
	conn := &fakeConn{
		opened: true,
		responses: [][]byte{
			{0x07},
			{0x07},
			[]byte("ADuC7026 BOOT"),
		},
	}
	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	u := New(conn, cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := u.Handshake(ctx); err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	if u.State().String() != "handshaken" {
		t.Errorf("State() = %v, want handshaken", u.State())
	}
	if len(conn.writes) != 3 {
		t.Errorf("expected 3 probes, sent %d", len(conn.writes))
	}
	for _, w := range conn.writes {
		if len(w) != 1 || w[0] != handshakeProbe {
			t.Errorf("unexpected probe frame % X", w)
		}
	}
}

func TestHandshakeIdempotent(t *testing.T) {
	conn := &fakeConn{opened: true}
	cfg, _ := config.New()
	u := New(conn, cfg, nil)
	u.state = connection.StateHandshaken // set directly to avoid re-probing

	if err := u.Handshake(context.Background()); err != nil {
		t.Fatalf("Handshake on already-handshaken uploader: %v", err)
	}
	if len(conn.writes) != 0 {
		t.Errorf("expected no probes when already handshaken, sent %d", len(conn.writes))
	}
}

func TestHandshakeContextCancellation(t *testing.T) {
	conn := &fakeConn{
		opened:    true,
		responses: [][]byte{{0x07}, {0x07}, {0x07}},
	}
	cfg, _ := config.New()
	u := New(conn, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := u.Handshake(ctx)
	if err == nil {
		t.Fatal("expected an error from a pre-cancelled context")
	}
	if _, ok := err.(*HandshakeError); !ok {
		t.Errorf("expected *HandshakeError, got %T", err)
	}
}
