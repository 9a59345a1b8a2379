package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPassword(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgresql://user:pa55@db:5432/strategy", "postgresql://user:***@db:5432/strategy"},
		{"postgresql://user@db:5432/strategy", "postgresql://user@db:5432/strategy"},
		{"not a url", "not a url"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, maskPassword(tt.in))
	}
}
