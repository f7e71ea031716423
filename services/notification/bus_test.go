package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	"github.com/piresc/nebengjek-dispatch/services/presence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandle struct {
	id  string
	err error

	mu     sync.Mutex
	events []string
}

func (h *recordingHandle) ID() string { return h.id }

func (h *recordingHandle) Send(ctx context.Context, event string, _ interface{}) error {
	if h.err != nil {
		return h.err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHandle) received() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

func TestPublish_NoLiveSession(t *testing.T) {
	bus := NewBus(presence.NewRegistry(), models.NotifyConfig{})

	ds := bus.Publish(context.Background(), "driver-x", models.EventRideOffered, nil)

	require.Len(t, ds, 1)
	assert.Equal(t, models.DeliveryNoLiveSession, ds[0].Outcome)
	assert.Equal(t, "driver-x", ds[0].ParticipantID)
	assert.False(t, models.Delivered(ds))
}

func TestPublish_AllHandlesOfParticipant(t *testing.T) {
	reg := presence.NewRegistry()
	phone := &recordingHandle{id: "phone"}
	broken := &recordingHandle{id: "broken", err: errors.New("broken pipe")}
	reg.Join("rider-1", models.RoleRider, phone)
	reg.Join("rider-1", models.RoleRider, broken)
	bus := NewBus(reg, models.NotifyConfig{WriteTimeout: time.Second})

	ds := bus.Publish(context.Background(), "rider-1", models.EventRideConfirmed, models.RideEvent{})

	require.Len(t, ds, 2)
	outcomes := map[models.DeliveryOutcome]int{}
	for _, d := range ds {
		outcomes[d.Outcome]++
		assert.NotEmpty(t, d.SessionID)
	}
	assert.Equal(t, 1, outcomes[models.DeliveryDelivered])
	assert.Equal(t, 1, outcomes[models.DeliveryFailed])
	assert.True(t, models.Delivered(ds))
	assert.Equal(t, []string{models.EventRideConfirmed}, phone.received())

	// the failed handle stays registered until its transport disconnects
	assert.Len(t, reg.SessionsFor("rider-1"), 2)
}

func TestPublish_SendGetsDeadline(t *testing.T) {
	reg := presence.NewRegistry()
	var hasDeadline atomic.Bool
	reg.Join("rider-1", models.RoleRider, handleFunc(func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		hasDeadline.Store(ok)
		return nil
	}))
	bus := NewBus(reg, models.NotifyConfig{WriteTimeout: time.Second})

	bus.Publish(context.Background(), "rider-1", models.EventRideStarted, nil)
	assert.True(t, hasDeadline.Load())
}

type handleFunc func(ctx context.Context) error

func (f handleFunc) ID() string { return "func" }

func (f handleFunc) Send(ctx context.Context, _ string, _ interface{}) error { return f(ctx) }

func TestPublishMany_FanOut(t *testing.T) {
	reg := presence.NewRegistry()
	handles := map[string]*recordingHandle{}
	for i := 0; i < 30; i++ {
		id := fmt.Sprintf("driver-%d", i)
		h := &recordingHandle{id: "h-" + id}
		handles[id] = h
		reg.Join(id, models.RoleDriver, h)
	}
	bus := NewBus(reg, models.NotifyConfig{MaxParallel: 4})

	ids := []string{"driver-0", "driver-1", "driver-1", "offline-driver"}
	for i := 2; i < 30; i++ {
		ids = append(ids, fmt.Sprintf("driver-%d", i))
	}

	results := bus.PublishMany(context.Background(), ids, models.EventRideOffered, nil)

	assert.Len(t, results, 31)
	assert.Equal(t, models.DeliveryNoLiveSession, results["offline-driver"][0].Outcome)
	for id, h := range handles {
		assert.True(t, models.Delivered(results[id]), id)
		assert.Equal(t, []string{models.EventRideOffered}, h.received(), id)
	}
}

func TestPublishMany_Empty(t *testing.T) {
	bus := NewBus(presence.NewRegistry(), models.NotifyConfig{})
	assert.Empty(t, bus.PublishMany(context.Background(), nil, models.EventRideOffered, nil))
}
