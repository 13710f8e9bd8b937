package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscriber(t *testing.T) {
	hub := NewHub()

	sub, replay, err := hub.Subscribe("t1")
	require.NoError(t, err)
	defer sub.Close()
	assert.Empty(t, replay)

	hub.Publish(Event{Name: "brokerCreated", Tenant: "t1", Record: map[string]any{"id": "1"}})

	got := <-sub.Events()
	assert.Equal(t, "brokerCreated", got.Name)
	assert.Equal(t, "t1", got.Tenant)
}

func TestPublishWithoutListenersIsDropped(t *testing.T) {
	hub := NewHub()
	// No subscriber for t9: must not block or panic.
	hub.Publish(Event{Name: "brokerDeleted", Tenant: "t9"})
}

func TestPublishIsTenantScoped(t *testing.T) {
	hub := NewHub()

	subA, _, err := hub.Subscribe("ta")
	require.NoError(t, err)
	defer subA.Close()
	subB, _, err := hub.Subscribe("tb")
	require.NoError(t, err)
	defer subB.Close()

	hub.Publish(Event{Name: "insuredUpdated", Tenant: "ta"})

	select {
	case <-subB.Events():
		t.Fatal("event leaked across tenants")
	default:
	}
	assert.Equal(t, "insuredUpdated", (<-subA.Events()).Name)
}

func TestSlowSubscriberLosesEvents(t *testing.T) {
	hub := NewHub()

	sub, _, err := hub.Subscribe("t1")
	require.NoError(t, err)
	defer sub.Close()

	// Overflow the subscriber buffer; Publish must never block.
	for i := 0; i < DefaultSubscriberBuffer*3; i++ {
		hub.Publish(Event{Name: "attendanceUpdated", Tenant: "t1", Record: i})
	}

	received := 0
	for {
		select {
		case <-sub.Events():
			received++
			continue
		default:
		}
		break
	}
	assert.Equal(t, DefaultSubscriberBuffer, received)
}

func TestSubscribeReplaysRecentEvents(t *testing.T) {
	hub := NewHub()

	warm, _, err := hub.Subscribe("t1")
	require.NoError(t, err)
	defer warm.Close()

	hub.Publish(Event{Name: "regulatorCreated", Tenant: "t1"})

	_, replay, err := hub.Subscribe("t1")
	require.NoError(t, err)
	require.Len(t, replay, 1)
	assert.Equal(t, "regulatorCreated", replay[0].Name)
}
