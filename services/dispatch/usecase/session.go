package usecase

import (
	"context"
	"fmt"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/logger"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
)

// Join registers a live session for the principal
func (uc *DispatchUC) Join(ctx context.Context, principal models.Principal, handle models.SessionHandle) *models.Session {
	session := uc.presence.Join(principal.ID, principal.Role, handle)
	logger.InfoCtx(ctx, "Participant joined",
		logger.ParticipantID(principal.ID),
		logger.String("role", string(principal.Role)),
		logger.String("session_id", session.ID))
	return session
}

// Leave drops exactly this session. A driver whose last session closes is taken
// off the index so it is not offered rides it cannot see.
func (uc *DispatchUC) Leave(ctx context.Context, principal models.Principal, handle models.SessionHandle) {
	participantID, offline := uc.presence.Leave(handle)
	if participantID == "" {
		return
	}
	logger.InfoCtx(ctx, "Participant left",
		logger.ParticipantID(participantID),
		logger.Bool("offline", offline))

	if offline && principal.Role == models.RoleDriver {
		if err := uc.index.Remove(ctx, participantID); err != nil {
			logger.WarnCtx(ctx, "Failed to remove driver from index",
				logger.DriverID(participantID),
				logger.Err(err))
		}
	}
}

// ReportLocation upserts a driver position. Reports are last-writer-wins by timestamp.
func (uc *DispatchUC) ReportLocation(ctx context.Context, report models.LocationReport) error {
	if report.DriverID == "" {
		return fmt.Errorf("%w: driver id is required", models.ErrInvalidRequest)
	}
	if !models.ValidCoordinates(report.Latitude, report.Longitude) {
		return fmt.Errorf("%w: invalid coordinates", models.ErrInvalidRequest)
	}
	return uc.index.Upsert(ctx, models.DriverLocation{
		DriverID:  report.DriverID,
		Latitude:  report.Latitude,
		Longitude: report.Longitude,
		UpdatedAt: report.Timestamp,
		Available: report.IsAvailable(),
	})
}
