package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandEncode(t *testing.T) {
	cases := []struct {
		name string
		cmd  Command
		want string
	}{
		{"digital write", DigitalWrite(9, 1), "DW 9 1\n"},
		{"pwm", PWM(9, 255), "PW 9 255\n"},
		{"servo", Servo(9, 90), "SW 9 90\n"},
		{"digital read", DigitalRead(9), "DR 9\n"},
		{"analog read", AnalogRead(0), "AR 0\n"},
		{"pulse in", PulseIn(8), "PI 8\n"},
		{"negative value", PWM(3, -1), "PW 3 -1\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, string(tc.cmd.Encode()))
			require.Equal(t, strings.TrimSuffix(tc.want, "\n"), tc.cmd.String())
		})
	}
}

func TestParseReply(t *testing.T) {
	cases := []struct {
		line string
		want Reply
		ok   bool
	}{
		{"A 3 512", Reply{Kind: ReplyAnalog, Pin: 3, Value: 512}, true},
		{"D 9 1", Reply{Kind: ReplyDigital, Pin: 9, Value: 1}, true},
		{"P 1234", Reply{Kind: ReplyPulse, Value: 1234}, true},
		{"  A 3 512 \r", Reply{Kind: ReplyAnalog, Pin: 3, Value: 512}, true},
		{"A  3   7", Reply{Kind: ReplyAnalog, Pin: 3, Value: 7}, true},
		{"", Reply{}, false},
		{"A 3", Reply{}, false},
		{"A 3 5 7", Reply{}, false},
		{"A x 5", Reply{}, false},
		{"D 9 high", Reply{}, false},
		{"P", Reply{}, false},
		{"P 1 2", Reply{}, false},
		{"P abc", Reply{}, false},
		{"X 1 2", Reply{}, false},
		{"hello from nano", Reply{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			got, ok := ParseReply(tc.line)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestLineDecoderChunks(t *testing.T) {
	d := NewLineDecoder()

	assert.Empty(t, d.Feed([]byte("A 1 10")))
	assert.Equal(t, 6, d.Pending())

	lines := d.Feed([]byte("\nA 2 20\n"))
	require.Equal(t, []string{"A 1 10", "A 2 20"}, lines)
	assert.Zero(t, d.Pending())
}

func TestLineDecoderByteAtATime(t *testing.T) {
	d := NewLineDecoder()
	var got []string
	for _, b := range []byte("D 9 1\r\nP 42\n\n") {
		got = append(got, d.Feed([]byte{b})...)
	}
	require.Equal(t, []string{"D 9 1", "P 42"}, got)
}

func TestLineDecoderSplitRune(t *testing.T) {
	d := NewLineDecoder()
	msg := []byte("héllo\n")
	assert.Empty(t, d.Feed(msg[:2]))
	require.Equal(t, []string{"héllo"}, d.Feed(msg[2:]))
}

func TestLineDecoderOverlongLine(t *testing.T) {
	d := NewLineDecoder()
	noise := []byte(strings.Repeat("x", MaxLineLength+1))

	assert.Empty(t, d.Feed(noise))
	assert.Zero(t, d.Pending())
	assert.Empty(t, d.Feed([]byte("tail-of-noise\n")))

	require.Equal(t, []string{"A 0 1"}, d.Feed([]byte("A 0 1\n")))
}

func TestLineDecoderOverlongLineInOneChunk(t *testing.T) {
	long := strings.Repeat("7", 5000)

	whole := NewLineDecoder()
	assert.Equal(t, []string{"P 1"}, whole.Feed([]byte("A 1 "+long+"\nP 1\n")))

	split := NewLineDecoder()
	var lines []string
	data := []byte("A 1 " + long + "\nP 1\n")
	for len(data) > 0 {
		n := 64
		if n > len(data) {
			n = len(data)
		}
		lines = append(lines, split.Feed(data[:n])...)
		data = data[n:]
	}
	assert.Equal(t, []string{"P 1"}, lines)

	atLimit := NewLineDecoder()
	exact := strings.Repeat("x", MaxLineLength)
	assert.Equal(t, []string{exact}, atLimit.Feed([]byte(exact+"\n")))
}

func TestLineDecoderReset(t *testing.T) {
	d := NewLineDecoder()
	d.Feed([]byte("A 1"))
	d.Reset()
	require.Equal(t, []string{"D 2 1"}, d.Feed([]byte("D 2 1\n")))
}
