package pkg

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenWriter struct{}

func (bw *brokenWriter) Write(_ []byte) (int, error) {
	return 0, errors.New("write failed")
}

func TestCombinedWriter_Write(t *testing.T) {
	sb1 := &strings.Builder{}
	sb1.WriteString("already-here")
	sb2 := &strings.Builder{}

	cw := NewCombinedWriter(sb1, sb2)
	require.NotNil(t, cw)

	n, err := cw.Write([]byte("a message"))
	require.NoError(t, err)
	assert.Equal(t, 2*len("a message"), n)
	n, err = cw.Write([]byte("another message here"))
	require.NoError(t, err)
	assert.Equal(t, 2*len("another message here"), n)

	assert.Equal(t, "already-here"+"a message"+"another message here", sb1.String())
	assert.Equal(t, "a message"+"another message here", sb2.String())
}

func TestCombinedWriter_Write_WithError(t *testing.T) {
	bw := &brokenWriter{}
	sb := &strings.Builder{}

	cw := NewCombinedWriter(bw, sb)
	require.NotNil(t, cw)

	msg := "a message"
	n, err := cw.Write([]byte(msg))
	require.Error(t, err)
	assert.Equal(t, len(msg), n)
	assert.Equal(t, msg, sb.String())
}
