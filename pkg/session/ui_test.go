package session

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextUISelect(t *testing.T) {
	choices := []Choice{
		{Label: "Close all loops", Value: "all"},
		{Label: "Back", Value: "back"},
	}

	tests := []struct {
		answer     string
		want       string
		wantNotice bool
	}{
		{"0", "all", false},
		{"all", "all", false},
		{"1", "back", false},
		{"back", "back", false},
		{"bogus", "back", true},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		u := &textUI{in: bufioScanner(tt.answer + "\n"), out: &out}

		got, err := u.Select("Which loops should be closed?", choices)
		require.NoError(t, err, "answer %q", tt.answer)
		assert.Equal(t, tt.want, got, "answer %q", tt.answer)
		if tt.wantNotice {
			assert.Contains(t, out.String(), "Unrecognized command. Going back.", "answer %q", tt.answer)
		} else {
			assert.NotContains(t, out.String(), "Unrecognized command", "answer %q", tt.answer)
		}
	}
}
