// Package presence maps participants to their live transport sessions.
package presence

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/logger"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/metrics"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
)

// entry holds one participant's sessions. A dead entry has been unlinked from
// the registry and must not receive new sessions; callers reload and retry.
type entry struct {
	mu       sync.Mutex
	dead     bool
	role     models.Role
	sessions map[string]*models.Session // handle id -> session
}

// Registry is safe for concurrent use. Mutations lock only the affected participant.
type Registry struct {
	entries sync.Map // participant id -> *entry
	handles sync.Map // handle id -> participant id
	online  int64
	now     func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{now: models.Now}
}

// Join registers handle for participantID. Joining the same handle again returns
// the existing session.
func (r *Registry) Join(participantID string, role models.Role, handle models.SessionHandle) *models.Session {
	hid := handle.ID()
	if prev, ok := r.handles.Load(hid); ok && prev.(string) != participantID {
		r.Leave(handle)
	}

	for {
		v, _ := r.entries.LoadOrStore(participantID, &entry{role: role, sessions: make(map[string]*models.Session)})
		e := v.(*entry)

		e.mu.Lock()
		if e.dead {
			e.mu.Unlock()
			continue
		}
		if s, ok := e.sessions[hid]; ok {
			e.mu.Unlock()
			return s
		}

		s := &models.Session{
			ID:            uuid.New().String(),
			ParticipantID: participantID,
			Role:          role,
			Handle:        handle,
			ConnectedAt:   r.now(),
		}
		first := len(e.sessions) == 0
		e.sessions[hid] = s
		r.handles.Store(hid, participantID)
		e.mu.Unlock()

		if first {
			atomic.AddInt64(&r.online, 1)
			metrics.OnlineParticipants.WithLabelValues(string(e.role)).Inc()
		}
		logger.Debug("Session joined",
			logger.ParticipantID(participantID),
			logger.String("role", string(role)),
			logger.String("handle_id", hid),
			logger.Bool("first_session", first))
		return s
	}
}

// Leave removes exactly this handle's session. offline reports whether it was the
// participant's last session. Leaving an unknown handle is a no-op.
func (r *Registry) Leave(handle models.SessionHandle) (participantID string, offline bool) {
	hid := handle.ID()
	v, ok := r.handles.Load(hid)
	if !ok {
		return "", false
	}
	participantID = v.(string)

	for {
		ev, ok := r.entries.Load(participantID)
		if !ok {
			r.handles.CompareAndDelete(hid, participantID)
			return participantID, false
		}
		e := ev.(*entry)

		e.mu.Lock()
		if e.dead {
			e.mu.Unlock()
			continue
		}
		if _, ok := e.sessions[hid]; !ok {
			e.mu.Unlock()
			return participantID, false
		}
		delete(e.sessions, hid)
		r.handles.CompareAndDelete(hid, participantID)
		if len(e.sessions) == 0 {
			e.dead = true
			r.entries.CompareAndDelete(participantID, e)
			offline = true
		}
		e.mu.Unlock()

		if offline {
			atomic.AddInt64(&r.online, -1)
			metrics.OnlineParticipants.WithLabelValues(string(e.role)).Dec()
		}
		logger.Debug("Session left",
			logger.ParticipantID(participantID),
			logger.String("handle_id", hid),
			logger.Bool("offline", offline))
		return participantID, offline
	}
}

// SessionsFor returns a snapshot of the participant's sessions, oldest first.
// It is empty when the participant is offline.
func (r *Registry) SessionsFor(participantID string) []models.Session {
	v, ok := r.entries.Load(participantID)
	if !ok {
		return nil
	}
	e := v.(*entry)

	e.mu.Lock()
	if e.dead {
		e.mu.Unlock()
		return nil
	}
	out := make([]models.Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		out = append(out, *s)
	}
	e.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].ConnectedAt.Before(out[j].ConnectedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// IsOnline reports whether the participant has at least one live session
func (r *Registry) IsOnline(participantID string) bool {
	return len(r.SessionsFor(participantID)) > 0
}

// Count returns the number of online participants
func (r *Registry) Count() int {
	return int(atomic.LoadInt64(&r.online))
}
