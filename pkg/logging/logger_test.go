package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("tone", &buf)

	l.Infof("scanned %d units", 3)
	l.Warnf("skipped")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[tone] [INFO] scanned 3 units")
	assert.Contains(t, lines[1], "[tone] [WARN] skipped")
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("tone", &buf).With("ledger")

	l.Debugf("entry created")
	assert.Contains(t, buf.String(), "[tone/ledger] [DEBUG] entry created")
}

func TestSessionIDStable(t *testing.T) {
	a := NewWriterLogger("a", &bytes.Buffer{})
	b := NewWriterLogger("b", &bytes.Buffer{})
	assert.NotEmpty(t, a.SessionID())
	assert.Equal(t, a.SessionID(), b.SessionID())
	assert.Equal(t, GetSessionID(), a.SessionID())
}

func TestNop(t *testing.T) {
	assert.Same(t, Nop(), Nop())
	Nop().Errorf("nothing %s", "happens")
	assert.NoError(t, Nop().Close())
}
