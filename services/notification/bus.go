// Package notification pushes typed events to every live session of a participant.
package notification

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/logger"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/metrics"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
)

const defaultMaxParallel = 16

// SessionLookup resolves a participant's live sessions
type SessionLookup interface {
	SessionsFor(participantID string) []models.Session
}

// Bus delivers events best-effort. A participant without a live session is an
// expected outcome, never an error.
type Bus struct {
	sessions     SessionLookup
	maxParallel  int
	writeTimeout time.Duration
}

// NewBus creates a notification bus reading sessions from the given lookup
func NewBus(sessions SessionLookup, cfg models.NotifyConfig) *Bus {
	maxParallel := cfg.MaxParallel
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallel
	}
	return &Bus{
		sessions:     sessions,
		maxParallel:  maxParallel,
		writeTimeout: cfg.WriteTimeout,
	}
}

// Publish sends the event to every live handle of participantID and returns one
// outcome per handle, or a single no_live_session outcome.
func (b *Bus) Publish(ctx context.Context, participantID, eventType string, payload interface{}) []models.Delivery {
	sessions := b.sessions.SessionsFor(participantID)
	if len(sessions) == 0 {
		metrics.Deliveries.WithLabelValues(eventType, string(models.DeliveryNoLiveSession)).Inc()
		logger.DebugCtx(ctx, "No live session for event",
			logger.ParticipantID(participantID),
			logger.String("event", eventType))
		return []models.Delivery{{ParticipantID: participantID, Outcome: models.DeliveryNoLiveSession}}
	}

	out := make([]models.Delivery, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, b.send(ctx, s, eventType, payload))
	}
	return out
}

func (b *Bus) send(ctx context.Context, s models.Session, eventType string, payload interface{}) models.Delivery {
	d := models.Delivery{ParticipantID: s.ParticipantID, SessionID: s.ID, Outcome: models.DeliveryDelivered}

	sendCtx := ctx
	if b.writeTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, b.writeTimeout)
		defer cancel()
	}

	// A failed write leaves the session in place; the transport's disconnect removes it.
	if err := s.Handle.Send(sendCtx, eventType, payload); err != nil {
		d.Outcome = models.DeliveryFailed
		d.Error = err.Error()
		logger.WarnCtx(ctx, "Failed to deliver event",
			logger.ParticipantID(s.ParticipantID),
			logger.String("session_id", s.ID),
			logger.String("event", eventType),
			logger.Err(err))
	}
	metrics.Deliveries.WithLabelValues(eventType, string(d.Outcome)).Inc()
	return d
}

// PublishMany publishes the same event to several participants in parallel.
// Duplicate ids are delivered once.
func (b *Bus) PublishMany(ctx context.Context, participantIDs []string, eventType string, payload interface{}) map[string][]models.Delivery {
	results := make(map[string][]models.Delivery, len(participantIDs))
	var mu sync.Mutex

	seen := make(map[string]struct{}, len(participantIDs))
	g := new(errgroup.Group)
	g.SetLimit(b.maxParallel)
	for _, id := range participantIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		id := id
		g.Go(func() error {
			ds := b.Publish(ctx, id, eventType, payload)
			mu.Lock()
			results[id] = ds
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}
