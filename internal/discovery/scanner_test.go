package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nano-bridge/internal/protocol"
)

type fakeScanner struct {
	ports []*DiscoveredPort
	err   error
	calls int
}

func (f *fakeScanner) Scan(ctx context.Context) ([]*DiscoveredPort, error) {
	f.calls++
	return f.ports, f.err
}

func TestPortSelectorSelect(t *testing.T) {
	ports := []*DiscoveredPort{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB1", Confidence: 0.5},
		{Name: "/dev/ttyUSB0", Confidence: 0.85},
	}

	cases := []struct {
		name    string
		config  SelectorConfig
		chosen  string
		scanner *fakeScanner
		want    string
		wantErr error
	}{
		{
			name:    "host choice wins",
			config:  SelectorConfig{Port: "/dev/configured", AutoDetect: true},
			chosen:  "/dev/picked",
			scanner: &fakeScanner{ports: ports},
			want:    "/dev/picked",
		},
		{
			name:    "configured port",
			config:  SelectorConfig{Port: "/dev/configured", AutoDetect: true},
			scanner: &fakeScanner{ports: ports},
			want:    "/dev/configured",
		},
		{
			name:    "auto detect picks best candidate",
			config:  SelectorConfig{AutoDetect: true, MinConfidence: 0.6},
			scanner: &fakeScanner{ports: ports},
			want:    "/dev/ttyUSB0",
		},
		{
			name:    "auto detect below threshold",
			config:  SelectorConfig{AutoDetect: true, MinConfidence: 0.9},
			scanner: &fakeScanner{ports: ports},
			wantErr: protocol.ErrSelectionCancelled,
		},
		{
			name:    "no auto detect",
			config:  SelectorConfig{},
			scanner: &fakeScanner{ports: ports},
			wantErr: protocol.ErrSelectionCancelled,
		},
		{
			name:    "scan failure cancels selection",
			config:  SelectorConfig{AutoDetect: true},
			scanner: &fakeScanner{err: errors.New("boom")},
			wantErr: protocol.ErrSelectionCancelled,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewPortSelector(tc.scanner, tc.config, zap.NewNop())
			if tc.chosen != "" {
				s.Choose(tc.chosen)
			}

			got, err := s.Select(context.Background())
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestPortSelectorChooseAndClear(t *testing.T) {
	s := NewPortSelector(&fakeScanner{}, SelectorConfig{}, zap.NewNop())

	s.Choose("/dev/ttyUSB3")
	assert.Equal(t, "/dev/ttyUSB3", s.Chosen())

	s.Clear()
	assert.Empty(t, s.Chosen())

	_, err := s.Select(context.Background())
	require.ErrorIs(t, err, protocol.ErrSelectionCancelled)
}

func TestPortSelectorScanSorted(t *testing.T) {
	scanner := &fakeScanner{ports: []*DiscoveredPort{
		{Name: "a", Confidence: 0.1},
		{Name: "b", Confidence: 0.9},
		{Name: "c"},
	}}
	s := NewPortSelector(scanner, SelectorConfig{}, zap.NewNop())

	ports, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Equal(t, "b", ports[0].Name)
	require.Equal(t, "a", ports[1].Name)
	require.Equal(t, "c", ports[2].Name)
}
