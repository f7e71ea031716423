package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/constants"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/logger"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/metrics"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	natspkg "github.com/piresc/nebengjek-dispatch/internal/pkg/nats"
	nrpkg "github.com/piresc/nebengjek-dispatch/internal/pkg/newrelic"
	"github.com/piresc/nebengjek-dispatch/services/dispatch"
)

// Subscriber is the part of the NATS client the consumers need
type Subscriber interface {
	QueueSubscribe(subject, queue string, handler natspkg.MessageHandler) error
}

// LocationHandler feeds the driver location stream into the index
type LocationHandler struct {
	dispatchUC dispatch.DispatchUC
	subscriber Subscriber
	nrApp      *newrelic.Application
}

// NewLocationHandler creates a new location stream consumer
func NewLocationHandler(dispatchUC dispatch.DispatchUC, subscriber Subscriber, nrApp *newrelic.Application) *LocationHandler {
	return &LocationHandler{
		dispatchUC: dispatchUC,
		subscriber: subscriber,
		nrApp:      nrApp,
	}
}

// InitNATSConsumers subscribes to location.update in the dispatch queue group,
// so each report reaches exactly one replica.
func (h *LocationHandler) InitNATSConsumers() error {
	if err := h.subscriber.QueueSubscribe(constants.SubjectLocationUpdate, constants.QueueDispatch, h.handleLocationUpdate); err != nil {
		return fmt.Errorf("failed to subscribe to location updates: %w", err)
	}
	logger.Info("Subscribed to location stream",
		logger.String("subject", constants.SubjectLocationUpdate),
		logger.String("queue_group", constants.QueueDispatch))
	return nil
}

func (h *LocationHandler) handleLocationUpdate(data []byte) error {
	ctx, end := nrpkg.StartBackgroundTransaction(context.Background(), h.nrApp, "NATS "+constants.SubjectLocationUpdate)
	defer end()

	var report models.LocationReport
	if err := json.Unmarshal(data, &report); err != nil {
		return fmt.Errorf("failed to unmarshal location update: %w", err)
	}
	if report.Timestamp.IsZero() {
		report.Timestamp = time.Now()
	}

	if err := h.dispatchUC.ReportLocation(ctx, report); err != nil {
		return fmt.Errorf("driver %s: %w", report.DriverID, err)
	}
	metrics.LocationUpdates.WithLabelValues("nats").Inc()
	return nil
}
