package moderation

import (
	"github.com/pressmod/backend/internal/models"
	"github.com/pressmod/backend/internal/repositories"
	"go.uber.org/zap"
)

// Dispatcher creates persisted notification records. There is no delivery
// beyond persistence; readers poll their notification list.
type Dispatcher struct {
	notifications repositories.NotificationRepository
	logger        *zap.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(notifications repositories.NotificationRepository, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{notifications: notifications, logger: logger}
}

// Notify persists one notification for the recipient. Persistence failures
// propagate to the caller.
func (d *Dispatcher) Notify(recipientID uint, message string) (*models.Notification, error) {
	notification := &models.Notification{
		RecipientID: recipientID,
		Message:     message,
	}
	if err := d.notifications.CreateNotification(notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// FanOut notifies every recipient in the set. A failure for one recipient is
// logged and does not abort the remaining fan-out; the count of successful
// deliveries is returned.
func (d *Dispatcher) FanOut(recipients []models.User, message string) int {
	delivered := 0
	for _, recipient := range recipients {
		if _, err := d.Notify(recipient.ID, message); err != nil {
			d.logger.Error("notification fan-out failed for recipient",
				zap.Uint("recipient_id", recipient.ID),
				zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered
}
