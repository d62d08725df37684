package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"smartgarage/internal/logger"
)

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

// Assembler rebuilds JPEG frames from datagrams, one buffer per camera.
// A datagram starting with SOI starts a new frame; one ending with EOI
// completes it.
type Assembler struct {
	buffers map[string]*bytes.Buffer
}

func NewAssembler() *Assembler {
	return &Assembler{buffers: make(map[string]*bytes.Buffer)}
}

// Push appends data to camera's buffer and returns a copy of the frame when it completes.
func (a *Assembler) Push(camera string, data []byte) ([]byte, bool) {
	buf, ok := a.buffers[camera]
	if !ok {
		buf = new(bytes.Buffer)
		a.buffers[camera] = buf
	}

	if bytes.HasPrefix(data, jpegHeader) {
		buf.Reset()
	} else if buf.Len() == 0 {
		// joined mid-frame
		return nil, false
	}
	buf.Write(data)

	if !bytes.HasSuffix(data, jpegFooter) {
		return nil, false
	}
	frame := make([]byte, buf.Len())
	copy(frame, buf.Bytes())
	buf.Reset()
	return frame, true
}

// UDPSource receives JPEG frames sent by network cameras as UDP datagrams.
type UDPSource struct {
	addr   string
	names  map[string]string
	logger *logger.Logger

	conn *net.UDPConn
}

// NewUDPSource listens on addr (":9000"). names maps camera IPs to display names.
func NewUDPSource(addr string, names map[string]string, logger *logger.Logger) (*UDPSource, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on UDP %s: %w", addr, err)
	}

	return &UDPSource{addr: addr, names: names, logger: logger, conn: conn}, nil
}

func (s *UDPSource) Name() string {
	return "udp" + s.addr
}

// Close releases the socket; a running Run returns with an error.
func (s *UDPSource) Close() error {
	return s.conn.Close()
}

// LocalAddr returns the bound address.
func (s *UDPSource) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// Run reads datagrams until ctx is cancelled. The socket stays open so Run
// can be called again; Close releases it.
func (s *UDPSource) Run(ctx context.Context, frames chan<- Frame) error {
	// a previous cancelled run leaves an expired deadline behind
	if err := s.conn.SetReadDeadline(time.Time{}); err != nil {
		return fmt.Errorf("failed to reset UDP deadline: %w", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.conn.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()

	s.logger.Info("UDP camera source listening on %s", s.conn.LocalAddr())
	assembler := NewAssembler()
	buffer := make([]byte, 65535)

	for {
		n, remote, err := s.conn.ReadFromUDP(buffer)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("UDP camera source closed: %w", err)
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			s.logger.Error("Error reading UDP packet: %v", err)
			continue
		}

		ip := remote.IP.String()
		cameraName, exists := s.names[ip]
		if !exists {
			cameraName = "unknown_" + ip
		}

		data, ok := assembler.Push(cameraName, buffer[:n])
		if !ok {
			continue
		}
		if !Offer(frames, Frame{Camera: cameraName, Data: data, CapturedAt: time.Now()}) {
			s.logger.Debug("Dropped frame from %s", cameraName)
		}
	}
}
