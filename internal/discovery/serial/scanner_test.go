package serial

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"
)

func TestBoardDatabaseLookup(t *testing.T) {
	db := NewBoardDatabase()

	info, ok := db.Lookup("1A86", "7523")
	require.True(t, ok)
	assert.Equal(t, "CH340", info.Bridge)

	info, ok = db.Lookup("2341", "ffff")
	require.True(t, ok, "vendor fallback")
	assert.Equal(t, "Arduino", info.Board)

	_, ok = db.Lookup("dead", "beef")
	assert.False(t, ok)
}

func TestScannerScan(t *testing.T) {
	s := NewScanner(zap.NewNop())
	s.list = func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{
			{Name: "/dev/ttyS0"},
			{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1a86", PID: "7523", Product: "USB Serial"},
			{Name: "/dev/ttyACM0", IsUSB: true, VID: "0bda", PID: "0001"},
		}, nil
	}

	ports, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, ports, 3)

	assert.Zero(t, ports[0].Confidence)
	assert.Equal(t, "Arduino Nano (clone)", ports[1].Board)
	assert.Equal(t, 0.85, ports[1].Confidence)
	assert.Equal(t, "USB Serial", ports[1].Product)
	assert.Zero(t, ports[2].Confidence)
}

func TestScannerError(t *testing.T) {
	s := NewScanner(zap.NewNop())
	s.list = func() ([]*enumerator.PortDetails, error) {
		return nil, errors.New("no sysfs")
	}

	_, err := s.Scan(context.Background())
	require.Error(t, err)
}

func TestScannerCancelled(t *testing.T) {
	s := NewScanner(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Scan(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
