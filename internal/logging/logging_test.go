package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, logiface.LevelWarning)

	l.Debug().Int("nfds", 4).Log("poll")
	require.Zero(t, buf.Len())

	l.Warning().Int("nfds", 4).Err(errors.New("bad descriptor")).Log("readiness wait failed")
	out := buf.String()
	require.Contains(t, out, `"msg":"readiness wait failed"`)
	require.Contains(t, out, `"err":"bad descriptor"`)
	require.Contains(t, out, `"nfds":4`)
}

func TestDiscard(t *testing.T) {
	l := Discard()
	require.Nil(t, l)
	require.NotPanics(t, func() {
		l.Err().Str("k", "v").Log("dropped")
	})
}
