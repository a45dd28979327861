package bus

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/listsync/pkg/observable"
)

type testObserver struct {
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnDelivered(_ string, _ Event, handlers int, err error) {
	o.deliveredCount += handlers
	o.lastErr = err
}

func TestPublishSubscribe(t *testing.T) {
	b := New()
	var got []Event

	sub, err := b.Subscribe("players", func(e Event) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	_, err = uuid.Parse(sub.ID())
	assert.NoError(t, err, "subscription ids are uuids")
	assert.Equal(t, "players", sub.Topic())

	require.NoError(t, b.Publish("players", Event{Kind: "insert", Index: 0}))
	require.NoError(t, b.Publish("teams", Event{Kind: "insert", Index: 0}))

	require.Len(t, got, 1)
	assert.Equal(t, "players", got[0].Topic)
}

func TestSubscribe_NilHandler(t *testing.T) {
	_, err := New().Subscribe("x", nil)
	assert.ErrorIs(t, err, ErrNilHandler)
}

func TestDeliveryOrderFollowsSubscriptionOrder(t *testing.T) {
	b := New()
	var order []int
	for i := range 5 {
		_, err := b.Subscribe("t", func(Event) error {
			order = append(order, i)
			return nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, b.Publish("t", Event{}))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	count := 0
	sub, err := b.Subscribe("t", func(Event) error { count++; return nil })
	require.NoError(t, err)

	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, b.Unsubscribe(nil))
	require.NoError(t, b.Publish("t", Event{}))

	assert.Zero(t, count)
	assert.False(t, sub.IsActive())
	assert.Empty(t, b.GetTopics())
}

func TestSubscription_IsActiveDuringCancel(t *testing.T) {
	b := New()
	sub, err := b.Subscribe("t", func(Event) error { return nil })
	require.NoError(t, err)
	require.True(t, sub.IsActive())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 100 {
			_ = sub.IsActive()
		}
	}()
	go func() {
		defer wg.Done()
		_ = sub.Cancel()
	}()
	wg.Wait()

	assert.False(t, sub.IsActive())
}

func TestPublishJoinsHandlerErrors(t *testing.T) {
	b := New()
	obs := &testObserver{}
	b.AddObserver(obs)
	e1, e2 := errors.New("one"), errors.New("two")

	_, _ = b.Subscribe("t", func(Event) error { return e1 })
	_, _ = b.Subscribe("t", func(Event) error { return nil })
	_, _ = b.Subscribe("t", func(Event) error { return e2 })

	err := b.Publish("t", Event{})
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)
	assert.Equal(t, 3, obs.deliveredCount)
	assert.ErrorIs(t, obs.lastErr, e1)

	m := b.GetMetrics()
	assert.Equal(t, uint64(1), m.Published)
	assert.Equal(t, uint64(3), m.DeliveredHandlers)
	assert.Equal(t, uint64(1), m.Errors)
	assert.Equal(t, uint64(3), m.SubscribersActive)

	b.RemoveObserver(obs)
	_ = b.Publish("t", Event{})
	assert.Equal(t, 3, obs.deliveredCount)
}

func TestGetTopics(t *testing.T) {
	b := New()
	_, _ = b.Subscribe("b", func(Event) error { return nil })
	_, _ = b.Subscribe("a", func(Event) error { return nil })
	_, _ = b.Subscribe("a", func(Event) error { return nil })

	assert.Equal(t, []TopicInfo{{Name: "a", Subs: 2}, {Name: "b", Subs: 1}}, b.GetTopics())
}

func TestAttach(t *testing.T) {
	b := New()
	var got []Event
	_, err := b.Subscribe("players", func(e Event) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)

	arr := observable.New([]string{"bob"})
	Attach(b, "players", arr, observable.ObserverToken("feed", nil), nil)

	arr.Append("amy")
	arr.StartSorting(func(x, y string) bool { return x < y })
	arr.Replace(0, "AMY")
	arr.RemoveAll()

	require.Len(t, got, 4)
	assert.Equal(t, "insert", got[0].Kind)
	assert.Equal(t, 1, got[0].Index)
	assert.Equal(t, "amy", got[0].Value)

	assert.Equal(t, "move", got[1].Kind)
	assert.Equal(t, 0, got[1].From)
	assert.Equal(t, 1, got[1].To)
	assert.Equal(t, "bob", got[1].Value)

	assert.Equal(t, "update", got[2].Kind)
	assert.Equal(t, "AMY", got[2].Value)

	assert.Equal(t, "remove_all", got[3].Kind)
	assert.Equal(t, []any{"AMY", "bob"}, got[3].Old)
	assert.Nil(t, got[3].Value)

	ids := map[string]bool{}
	for _, e := range got {
		assert.Equal(t, "players", e.Topic)
		ids[e.ID] = true
	}
	assert.Len(t, ids, 4)
}

func TestAttach_Encode(t *testing.T) {
	b := New()
	var got Event
	_, _ = b.Subscribe("n", func(e Event) error { got = e; return nil })

	arr := observable.New[int](nil)
	Attach(b, "n", arr, observable.ObserverToken("feed", nil), func(v int) any { return v * 10 })
	arr.Append(4)

	assert.Equal(t, 40, got.Value)
}
