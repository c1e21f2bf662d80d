package stream

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNDJSONWriter_OneObjectPerLine(t *testing.T) {
	var buf strings.Builder
	w := NewNDJSONWriter(&buf)

	require.NoError(t, w.Write(Meta("s-1", "m-1", "Assistant")))
	require.NoError(t, w.Write(Content("hello ")))
	require.NoError(t, w.Write(Content("world")))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	var meta Event
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &meta))
	assert.Equal(t, TypeMeta, meta.Type)
	assert.Equal(t, "s-1", meta.SessionID)
	assert.Equal(t, "m-1", meta.MessageID)
	assert.Equal(t, "Assistant", meta.Agent)

	var chunk Event
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &chunk))
	assert.Equal(t, TypeContent, chunk.Type)
	assert.Equal(t, "hello ", chunk.Content)
}

func TestNDJSONWriter_ErrorEvent(t *testing.T) {
	var buf strings.Builder
	w := NewNDJSONWriter(&buf)

	require.NoError(t, w.Write(Error(errors.New("model unavailable"))))

	var e Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &e))
	assert.Equal(t, TypeError, e.Type)
	assert.Equal(t, "model unavailable", e.Error)
}

func TestSSEWriter_Framing(t *testing.T) {
	var buf strings.Builder
	w := NewSSEWriter(&buf)

	require.NoError(t, w.Write(Meta("s-1", "m-1", "Assistant")))
	require.NoError(t, w.Write(Content("chunk")))
	require.NoError(t, w.Done())

	frames := strings.Split(strings.TrimSuffix(buf.String(), "\n\n"), "\n\n")
	require.Len(t, frames, 3)
	for _, frame := range frames {
		assert.True(t, strings.HasPrefix(frame, "data: "))
	}

	var meta Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frames[0], "data: ")), &meta))
	assert.Equal(t, TypeMetadata, meta.Type, "meta is spelled metadata on the SSE wire")

	var done Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frames[2], "data: ")), &done))
	assert.Equal(t, TypeDone, done.Type)
}

type flushRecorder struct {
	strings.Builder
	flushes int
}

func (f *flushRecorder) Flush() { f.flushes++ }

func TestWriters_FlushAfterEveryEvent(t *testing.T) {
	rec := &flushRecorder{}
	nd := NewNDJSONWriter(rec)
	require.NoError(t, nd.Write(Content("a")))
	require.NoError(t, nd.Write(Content("b")))
	assert.Equal(t, 2, rec.flushes)

	rec = &flushRecorder{}
	sse := NewSSEWriter(rec)
	require.NoError(t, sse.Write(Content("a")))
	assert.Equal(t, 1, rec.flushes)
}
