package serial

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bugst "go.bug.st/serial"
	"go.uber.org/zap"

	"nano-bridge/internal/protocol"
)

type stubSelector struct {
	name string
	err  error
}

func (s stubSelector) Select(ctx context.Context) (string, error) {
	return s.name, s.err
}

type stubPort struct {
	bytes.Buffer
	closed bool
}

func (p *stubPort) Close() error { p.closed = true; return nil }
func (p *stubPort) Name() string { return "stub" }

func TestConfigMode(t *testing.T) {
	cases := []struct {
		name   string
		config Config
		want   bugst.Mode
	}{
		{
			"defaults",
			Config{},
			bugst.Mode{BaudRate: 115200, DataBits: 8, Parity: bugst.NoParity, StopBits: bugst.OneStopBit},
		},
		{
			"even parity two stop bits",
			Config{BaudRate: 9600, DataBits: 7, Parity: "even", StopBits: 2},
			bugst.Mode{BaudRate: 9600, DataBits: 7, Parity: bugst.EvenParity, StopBits: bugst.TwoStopBits},
		},
		{
			"one stop bit stays one",
			Config{StopBits: 1, Parity: "none"},
			bugst.Mode{BaudRate: 115200, DataBits: 8, Parity: bugst.NoParity, StopBits: bugst.OneStopBit},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, *tc.config.Mode())
		})
	}
}

func TestOpenerSelectionCancelled(t *testing.T) {
	o := NewOpener(stubSelector{err: protocol.ErrSelectionCancelled}, &Config{}, zap.NewNop())
	o.open = func(string, *Config, *zap.Logger) (protocol.Port, error) {
		t.Fatal("open must not be called without a selection")
		return nil, nil
	}

	_, err := o.Open(context.Background())
	require.ErrorIs(t, err, protocol.ErrSelectionCancelled)
}

func TestOpenerOpenFailure(t *testing.T) {
	boom := errors.New("busy")
	o := NewOpener(stubSelector{name: "/dev/ttyUSB0"}, &Config{}, zap.NewNop())
	o.open = func(name string, _ *Config, _ *zap.Logger) (protocol.Port, error) {
		assert.Equal(t, "/dev/ttyUSB0", name)
		return nil, boom
	}

	_, err := o.Open(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestOpenerSettleCancelled(t *testing.T) {
	port := &stubPort{}
	o := NewOpener(stubSelector{name: "/dev/ttyUSB0"}, &Config{SettleDelay: time.Hour}, zap.NewNop())
	o.open = func(string, *Config, *zap.Logger) (protocol.Port, error) {
		return port, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Open(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, port.closed)
}

func TestOpenerSettles(t *testing.T) {
	port := &stubPort{}
	o := NewOpener(stubSelector{name: "/dev/ttyUSB0"}, &Config{SettleDelay: 10 * time.Millisecond}, zap.NewNop())
	o.open = func(string, *Config, *zap.Logger) (protocol.Port, error) {
		return port, nil
	}

	start := time.Now()
	got, err := o.Open(context.Background())
	require.NoError(t, err)
	assert.Same(t, port, got)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestOpenRequiresName(t *testing.T) {
	_, err := Open("", &Config{}, zap.NewNop())
	require.Error(t, err)
}

func TestConnectionOverPTY(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	conn, err := Open(slave.Name(), &Config{BaudRate: 115200}, zap.NewNop())
	if err != nil {
		t.Skipf("pty not usable as a serial port here: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// board -> host
	_, err = master.Write([]byte("A 3 512\n"))
	require.NoError(t, err)

	buf := make([]byte, 64)
	var got []byte
	deadline := time.Now().Add(time.Second)
	for !bytes.Contains(got, []byte("\n")) && time.Now().Before(deadline) {
		n, err := conn.Read(buf)
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}
	require.Contains(t, string(got), "A 3 512")

	// host -> board
	_, err = conn.Write([]byte("AR 3\n"))
	require.NoError(t, err)

	n, err := master.Read(buf)
	require.NoError(t, err)
	require.Contains(t, string(buf[:n]), "AR 3")

	stats := conn.Stats()
	assert.Equal(t, int64(5), stats.BytesWritten)
	assert.Positive(t, stats.BytesRead)

	// close unblocks and later reads fail
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	assert.False(t, conn.IsOpen())

	_, err = conn.Read(buf)
	require.ErrorIs(t, err, protocol.ErrPortClosed)
	_, err = conn.Write([]byte("x"))
	require.ErrorIs(t, err, protocol.ErrPortClosed)
	assert.False(t, errors.Is(err, io.EOF))
}
