package camera

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"smartgarage/internal/logger"
)

func TestAssembler_ReassemblesAcrossDatagrams(t *testing.T) {
	a := NewAssembler()

	if _, ok := a.Push("gate", []byte{0xFF, 0xD8, 1, 2}); ok {
		t.Fatal("frame should not complete without EOI")
	}
	if _, ok := a.Push("gate", []byte{3, 4}); ok {
		t.Fatal("frame should not complete without EOI")
	}
	frame, ok := a.Push("gate", []byte{5, 0xFF, 0xD9})
	if !ok {
		t.Fatal("expected completed frame")
	}
	want := []byte{0xFF, 0xD8, 1, 2, 3, 4, 5, 0xFF, 0xD9}
	if !bytes.Equal(frame, want) {
		t.Errorf("got %v, want %v", frame, want)
	}
}

func TestAssembler_NewHeaderRestartsFrame(t *testing.T) {
	a := NewAssembler()

	a.Push("gate", []byte{0xFF, 0xD8, 9, 9})
	frame, ok := a.Push("gate", []byte{0xFF, 0xD8, 1, 0xFF, 0xD9})
	if !ok || !bytes.Equal(frame, []byte{0xFF, 0xD8, 1, 0xFF, 0xD9}) {
		t.Errorf("expected restarted frame, got %v (%v)", frame, ok)
	}
}

func TestAssembler_IgnoresMidFrameJoinAndSeparatesCameras(t *testing.T) {
	a := NewAssembler()

	if _, ok := a.Push("gate", []byte{1, 0xFF, 0xD9}); ok {
		t.Error("tail without a header must not produce a frame")
	}

	a.Push("gate", []byte{0xFF, 0xD8, 1})
	a.Push("ramp", []byte{0xFF, 0xD8, 2})
	frame, ok := a.Push("gate", []byte{0xFF, 0xD9})
	if !ok || !bytes.Equal(frame, []byte{0xFF, 0xD8, 1, 0xFF, 0xD9}) {
		t.Errorf("cameras should not share buffers, got %v", frame)
	}
}

func TestUDPSource_DeliversNamedFrames(t *testing.T) {
	src, err := NewUDPSource("127.0.0.1:0", map[string]string{"127.0.0.1": "gate"}, logger.NewDiscard())
	if err != nil {
		t.Fatalf("NewUDPSource failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan Frame, 1)
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, frames) }()

	conn, err := net.DialUDP("udp", nil, src.LocalAddr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	conn.Write([]byte{0xFF, 0xD8, 7})
	conn.Write([]byte{8, 0xFF, 0xD9})

	select {
	case f := <-frames:
		if f.Camera != "gate" || len(f.Data) != 6 {
			t.Errorf("unexpected frame %+v", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestUDPSource_RestartsAfterCancel(t *testing.T) {
	src, err := NewUDPSource("127.0.0.1:0", nil, logger.NewDiscard())
	if err != nil {
		t.Fatalf("NewUDPSource failed: %v", err)
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, make(chan Frame, 1)) }()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("first Run returned %v", err)
	}

	ctx, cancel = context.WithCancel(context.Background())
	frames := make(chan Frame, 1)
	go func() { done <- src.Run(ctx, frames) }()

	conn, err := net.DialUDP("udp", nil, src.LocalAddr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	// the restarted reader may not be scheduled yet; resend until a frame arrives
	deadline := time.After(2 * time.Second)
	for received := false; !received; {
		conn.Write([]byte{0xFF, 0xD8, 1, 2, 0xFF, 0xD9})
		select {
		case f := <-frames:
			if f.Camera != "unknown_127.0.0.1" || len(f.Data) != 6 {
				t.Errorf("unexpected frame %+v", f)
			}
			received = true
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("no frame delivered after restart")
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("second Run returned %v", err)
	}
}

func TestUDPSource_CloseEndsRun(t *testing.T) {
	src, err := NewUDPSource("127.0.0.1:0", nil, logger.NewDiscard())
	if err != nil {
		t.Fatalf("NewUDPSource failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- src.Run(context.Background(), make(chan Frame, 1)) }()
	time.Sleep(20 * time.Millisecond)
	src.Close()

	select {
	case err := <-done:
		if !errors.Is(err, net.ErrClosed) {
			t.Errorf("expected net.ErrClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run kept looping on a closed socket")
	}
}

func TestOffer_DoesNotBlock(t *testing.T) {
	frames := make(chan Frame, 1)
	if !Offer(frames, Frame{Camera: "a"}) {
		t.Fatal("first offer should fit")
	}
	if Offer(frames, Frame{Camera: "b"}) {
		t.Error("second offer should be dropped")
	}
}
