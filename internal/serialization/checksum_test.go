package serialization

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeChecksum(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"hello world", "hello world", "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeChecksum([]byte(tt.input)))

			streamed, err := ComputeChecksumReader(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, streamed)
		})
	}
}

func TestValidateChecksum(t *testing.T) {
	weights := ComputeChecksum([]byte{0, 0, 128, 63})

	assert.NoError(t, ValidateChecksum(weights, weights))
	// Version 1.0 archives carry no checksum.
	assert.NoError(t, ValidateChecksum(weights, ""))
	assert.ErrorIs(t, ValidateChecksum(weights, ComputeChecksum(nil)), ErrChecksumMismatch)
}
