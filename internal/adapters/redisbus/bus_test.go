package redisbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/pledge-wall/internal/feed"
	"github.com/csg33k/pledge-wall/internal/platform/logger"
)

func TestEncodeDecode(t *testing.T) {
	ev := feed.Event{
		Table:  "pledges",
		Op:     feed.Insert,
		ID:     "3f2a",
		At:     time.Date(2026, 4, 22, 10, 0, 0, 0, time.UTC),
		Origin: "instance-a",
	}
	raw, err := Encode(ev)
	require.NoError(t, err)

	got, err := Decode(string(raw))
	require.NoError(t, err)
	assert.Equal(t, ev.Table, got.Table)
	assert.Equal(t, ev.Op, got.Op)
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, ev.Origin, got.Origin)
	assert.True(t, ev.At.Equal(got.At))
}

func TestDecodeNormalisesOp(t *testing.T) {
	got, err := Decode(`{"table":"pledges","op":"delete"}`)
	require.NoError(t, err)
	assert.Equal(t, feed.Delete, got.Op)
}

func TestDecodeRejects(t *testing.T) {
	for _, payload := range []string{
		"",
		"{",
		`{"op":"INSERT"}`,
		`{"table":"pledges","op":"MERGE"}`,
	} {
		_, err := Decode(payload)
		assert.Error(t, err, payload)
	}
}

func TestNewRequiresAddress(t *testing.T) {
	_, err := New("  ", "", logger.Nop())
	assert.Error(t, err)

	_, err = New("localhost:6379", "", nil)
	assert.Error(t, err)
}

func TestNilBus(t *testing.T) {
	var b *Bus
	assert.Error(t, b.Publish(t.Context(), feed.Event{}))
	assert.NoError(t, b.Close())
}
