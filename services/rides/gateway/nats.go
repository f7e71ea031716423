package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/constants"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	natspkg "github.com/piresc/nebengjek-dispatch/internal/pkg/nats"
	"github.com/piresc/nebengjek-dispatch/services/rides"
)

// Publisher is the part of the NATS client the gateway needs
type Publisher interface {
	Publish(subject string, data []byte) error
}

// RideGW publishes ride lifecycle records to NATS
type RideGW struct {
	publisher Publisher
}

// NewRideGW creates a new ride gateway
func NewRideGW(client *natspkg.Client) rides.RideGW {
	return &RideGW{publisher: client}
}

// LifecycleSubject returns the subject for a status, e.g. rides.lifecycle.accepted
func LifecycleSubject(status models.RideStatus) string {
	return constants.SubjectRideLifecyclePrefix + strings.ToLower(string(status))
}

// PublishRideLifecycle publishes a lifecycle record on the status subject
func (g *RideGW) PublishRideLifecycle(ctx context.Context, event models.RideLifecycleEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal lifecycle event: %w", err)
	}
	return g.publisher.Publish(LifecycleSubject(event.Status), data)
}
