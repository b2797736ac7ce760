package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	db := setupTestDB(t)
	log := NewEventLog(db)
	bus := NewBus(log, nil)
	defer bus.Close()

	ch := bus.Subscribe(EventFileIdentified, 10)

	e := &FileIdentified{BaseEvent: NewBaseEvent(EventFileIdentified, EntityFile, 1), FileID: 1}
	require.NoError(t, bus.Publish(context.Background(), e))

	select {
	case received := <-ch:
		assert.Equal(t, EventFileIdentified, received.EventType())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// The bus also persisted the event.
	stored, err := log.ForEntity(EntityFile, 1)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.SubscribeAll(10)

	e1 := &ScanStarted{BaseEvent: NewBaseEvent(EventScanStarted, EntityFile, 0), Root: "/lib"}
	e2 := &FileObserved{BaseEvent: NewBaseEvent(EventFileObserved, EntityFile, 1), FileID: 1}
	require.NoError(t, bus.Publish(context.Background(), e1))
	require.NoError(t, bus.Publish(context.Background(), e2))

	received := make([]Event, 0, 2)
	timeout := time.After(time.Second)
	for i := 0; i < 2; i++ {
		select {
		case e := <-ch:
			received = append(received, e)
		case <-timeout:
			t.Fatalf("timeout waiting for event %d", i+1)
		}
	}
	assert.Len(t, received, 2)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.Subscribe(EventFileUnmapped, 10)
	bus.Unsubscribe(ch)

	e := &FileUnmapped{BaseEvent: NewBaseEvent(EventFileUnmapped, EntityFile, 1), FileID: 1}
	require.NoError(t, bus.Publish(context.Background(), e))

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	default:
	}
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.SubscribeAll(100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			e := &FileObserved{BaseEvent: NewBaseEvent(EventFileObserved, EntityFile, n), FileID: n}
			_ = bus.Publish(context.Background(), e)
		}(int64(i))
	}
	wg.Wait()

	count := 0
	timeout := time.After(time.Second)
	for count < 10 {
		select {
		case <-ch:
			count++
		case <-timeout:
			t.Fatalf("received %d of 10 events", count)
		}
	}
}

func TestBus_PublishAfterClose(t *testing.T) {
	bus := NewBus(nil, nil)
	require.NoError(t, bus.Close())

	e := &FileObserved{BaseEvent: NewBaseEvent(EventFileObserved, EntityFile, 1), FileID: 1}
	assert.NoError(t, bus.Publish(context.Background(), e))
}
