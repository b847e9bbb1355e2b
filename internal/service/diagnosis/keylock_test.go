package diagnosis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/zhouzirui/z-tongue/backend/internal/model/diagnosis"
)

func TestKeyLockSerializesSameKey(t *testing.T) {
	locks := newKeyLock()
	ctx := context.Background()

	unlock, err := locks.Lock(ctx, "a")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		release, err := locks.Lock(ctx, "a")
		if err == nil {
			close(acquired)
			release()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a held key")
	case <-time.After(50 * time.Millisecond):
	}

	other, err := locks.Lock(ctx, "b")
	require.NoError(t, err, "distinct keys must not contend")
	other()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the key")
	}

	require.Eventually(t, func() bool { return locks.size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestKeyLockHonoursContext(t *testing.T) {
	locks := newKeyLock()

	unlock, err := locks.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, locks.size())
}

func TestKeyLockReleaseIsIdempotent(t *testing.T) {
	locks := newKeyLock()

	unlock, err := locks.Lock(context.Background(), "a")
	require.NoError(t, err)
	unlock()
	unlock()
	assert.Equal(t, 0, locks.size())

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.Lock(context.Background(), "a")
			if err != nil {
				return
			}
			counter++
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, counter)
}

func TestBrokerDeliversPerSession(t *testing.T) {
	broker := NewBroker()
	defer broker.Close()

	events, cancel := broker.Subscribe("s1")
	other, cancelOther := broker.Subscribe("s2")
	defer cancelOther()

	broker.Publish(Event{SessionID: "s1", Status: model.StatusAnalyzed, Stage: stageAnalyze})

	select {
	case ev := <-events:
		assert.Equal(t, model.StatusAnalyzed, ev.Status)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	select {
	case ev := <-other:
		t.Fatalf("unexpected event for other session: %+v", ev)
	default:
	}

	cancel()
	_, open := <-events
	assert.False(t, open)
	cancel()
}

func TestBrokerDropsWhenSubscriberIsSlow(t *testing.T) {
	broker := NewBroker()

	events, cancel := broker.Subscribe("s1")
	defer cancel()
	for i := 0; i < subscriberBuffer*2; i++ {
		broker.Publish(Event{SessionID: "s1", Stage: stageQuestions})
	}
	assert.Len(t, events, subscriberBuffer)

	broker.Close()
	broker.Close()
	late, _ := broker.Subscribe("s1")
	_, open := <-late
	assert.False(t, open)
}
