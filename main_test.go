package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PixPMusic/nkonfig/internal/trace"
)

func TestPrintTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nk.trace")
	rec, err := trace.NewRecorder(path, "test")
	require.NoError(t, err)
	require.NoError(t, rec.Record(trace.DirectionOut, "", []byte{0xF0, 0x7E, 0x7F, 0x06, 0x01, 0xF7}))
	require.NoError(t, rec.Record(trace.DirectionIn, "channel voice", []byte{0xB0, 0x10, 0x7F}))
	require.NoError(t, rec.Close())

	var buf bytes.Buffer
	require.NoError(t, printTrace(&buf, []string{path}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "OUT")
	assert.Contains(t, lines[0], "F0 7E 7F 06 01 F7")
	assert.Contains(t, lines[1], "channel voice")

	buf.Reset()
	require.NoError(t, printTrace(&buf, []string{path, "in"}))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))

	buf.Reset()
	require.NoError(t, printTrace(&buf, []string{path, "kind=channel voice"}))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "B0 10 7F")

	buf.Reset()
	require.NoError(t, printTrace(&buf, []string{path, "out", "session=other"}))
	assert.Empty(t, buf.String())

	assert.Error(t, printTrace(&buf, []string{path, "up"}))
	assert.Error(t, printTrace(&buf, []string{path, "colour=red"}))
	assert.Error(t, printTrace(&buf, nil))
}

func TestDescribeArgs(t *testing.T) {
	assert.Error(t, describe(nil))
	assert.Error(t, describe([]string{"microkontrol"}))
}
