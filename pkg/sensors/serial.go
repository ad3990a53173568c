package sensors

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"go.bug.st/serial"
)

// PortOptions describes the serial connection parameters for an IMU.
type PortOptions struct {
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

// Normalize validates the options and applies defaults for any unset values.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = 115200
	}
	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}
	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	switch p := strings.ToUpper(strings.TrimSpace(opts.Parity)); p {
	case "", "N", "NONE":
		opts.Parity = "N"
	case "E", "EVEN":
		opts.Parity = "E"
	case "O", "ODD":
		opts.Parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}
	return opts, nil
}

// SerialMode converts the options to the go.bug.st/serial mode.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	switch opts.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	}
	if opts.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	return mode, nil
}

// SerialStream reads the line protocol from an IMU on a serial port.
type SerialStream struct {
	path   string
	opts   PortOptions
	logger *slog.Logger

	// open is swapped in tests.
	open func(path string, mode *serial.Mode) (io.ReadCloser, error)

	received atomic.Int64
	dropped  atomic.Int64
}

// NewSerialStream creates a stream for the port at path.
func NewSerialStream(path string, opts PortOptions, logger *slog.Logger) (*SerialStream, error) {
	if path == "" {
		return nil, fmt.Errorf("serial path must not be empty")
	}
	if _, err := opts.Normalize(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SerialStream{
		path:   path,
		opts:   opts,
		logger: logger,
		open: func(path string, mode *serial.Mode) (io.ReadCloser, error) {
			return serial.Open(path, mode)
		},
	}, nil
}

// Name returns the stream name.
func (s *SerialStream) Name() string {
	return "serial"
}

// Run reads lines until ctx is done or the port fails.
func (s *SerialStream) Run(ctx context.Context, l Listener) error {
	mode, err := s.opts.SerialMode()
	if err != nil {
		return err
	}
	port, err := s.open(s.path, mode)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer port.Close()

	s.logger.Info("serial imu opened", "path", s.path, "baud", mode.BaudRate)

	stop := context.AfterFunc(ctx, func() { port.Close() })
	defer stop()

	return s.scan(ctx, port, l)
}

func (s *SerialStream) scan(ctx context.Context, r io.Reader, l Listener) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		reading, err := ParseLine(line)
		if err != nil {
			s.dropped.Add(1)
			continue
		}
		s.received.Add(1)
		l.OnReading(reading)
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	return fmt.Errorf("serial port %s closed", s.path)
}

// Stats returns lines delivered and lines dropped as malformed.
func (s *SerialStream) Stats() (received, dropped int64) {
	return s.received.Load(), s.dropped.Load()
}
