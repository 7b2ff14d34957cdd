package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRejectionMessage(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"Invalid token", true},
		{"User not found", true},
		{"invalid token", false},
		{"Token expired", false},
		{"Insufficient credits", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRejectionMessage(tt.msg))
		})
	}
}
