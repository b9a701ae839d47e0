package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		given    string
		expected string
	}{
		{"", Yes},
		{"n", No},
		{" N ", No},
		{"Y", Yes},
		{"maybe", Yes},
	}
	for _, tt := range tests {
		t.Run(tt.given, func(t *testing.T) {
			assert.Equal(t, tt.expected, Match(tt.given, Yes, No))
		})
	}
}
