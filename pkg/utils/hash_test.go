package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksum(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Checksum(nil))
	assert.Len(t, Checksum([]byte(`{"dialogo":{}}`)), 64)
	assert.NotEqual(t, Checksum([]byte("a")), Checksum([]byte("b")))
}
