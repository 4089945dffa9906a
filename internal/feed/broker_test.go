package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func expectNone(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBrokerFilters(t *testing.T) {
	b := NewBroker(nil)
	defer b.Close()

	anyCh := make(chan Event, 8)
	insCh := make(chan Event, 8)
	b.Subscribe("pledges", AnyOp, func(ev Event) { anyCh <- ev })
	b.Subscribe("pledges", Only(Insert), func(ev Event) { insCh <- ev })

	ctx := context.Background()
	require.NoError(t, b.Publish(ctx, Event{Table: "pledges", Op: Update, ID: "u"}))
	require.NoError(t, b.Publish(ctx, Event{Table: "pledges", Op: Insert, ID: "i"}))
	require.NoError(t, b.Publish(ctx, Event{Table: "other", Op: Insert, ID: "x"}))

	assert.Equal(t, "u", recv(t, anyCh).ID)
	assert.Equal(t, "i", recv(t, anyCh).ID)
	assert.Equal(t, "i", recv(t, insCh).ID)
	expectNone(t, insCh)
	expectNone(t, anyCh)
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := NewBroker(nil)
	defer b.Close()

	ch := make(chan Event, 8)
	sub := b.Subscribe("pledges", AnyOp, func(ev Event) { ch <- ev })
	require.NoError(t, b.Publish(context.Background(), Event{Table: "pledges", Op: Insert}))
	recv(t, ch)

	b.Unsubscribe(sub)
	b.Unsubscribe(sub)
	require.NoError(t, b.Publish(context.Background(), Event{Table: "pledges", Op: Insert}))
	expectNone(t, ch)
}

func TestBrokerSubscribersAreIndependent(t *testing.T) {
	b := NewBroker(nil, WithQueueSize(1))
	defer b.Close()

	block := make(chan struct{})
	var once sync.Once
	b.Subscribe("pledges", AnyOp, func(Event) {
		once.Do(func() { <-block })
	})
	fast := make(chan Event, 8)
	b.Subscribe("pledges", AnyOp, func(ev Event) { fast <- ev })

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Publish(context.Background(), Event{Table: "pledges", Op: Insert}))
		recv(t, fast)
	}
	close(block)
}

func TestBrokerRecoversFromPanic(t *testing.T) {
	b := NewBroker(nil)
	defer b.Close()

	ch := make(chan Event, 2)
	b.Subscribe("pledges", AnyOp, func(ev Event) {
		if ev.ID == "boom" {
			panic("boom")
		}
		ch <- ev
	})
	require.NoError(t, b.Publish(context.Background(), Event{Table: "pledges", Op: Insert, ID: "boom"}))
	require.NoError(t, b.Publish(context.Background(), Event{Table: "pledges", Op: Insert, ID: "ok"}))
	assert.Equal(t, "ok", recv(t, ch).ID)
}

func TestBrokerClose(t *testing.T) {
	b := NewBroker(nil)
	b.Subscribe("pledges", AnyOp, func(Event) {})
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.ErrorIs(t, b.Publish(context.Background(), Event{Table: "pledges", Op: Insert}), ErrClosed)

	// Subscribing after close must not leak a goroutine.
	b.Subscribe("pledges", AnyOp, func(Event) { t.Error("called after close") })
}

func TestParseOp(t *testing.T) {
	for in, want := range map[string]Op{"insert": Insert, "UPDATE": Update, " delete ": Delete} {
		got, err := ParseOp(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseOp("TRUNCATE")
	assert.Error(t, err)
}
