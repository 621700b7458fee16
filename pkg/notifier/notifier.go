package notifier

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/homefront-io/redalert-gateway/pkg/models"
)

// PublishError indicates the distribution channel rejected a notification.
// The already-applied store write is untouched; redelivery must stay
// idempotent at the consumer side, so no retry happens here.
type PublishError struct {
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publishing notification: %v", e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// Publisher is the distribution channel behind the notifier: a publish-only
// sink accepting one message per call, with no ordering guarantee across
// messages.
type Publisher interface {
	Publish(ctx context.Context, msg models.Notification) error
}

// Notifier turns state-store change events into outbound notifications. It
// never mutates store state.
type Notifier struct {
	publisher Publisher
}

// New creates a notifier over the given distribution channel
func New(publisher Publisher) *Notifier {
	return &Notifier{publisher: publisher}
}

// OnChange handles one change event. It is invoked once per applied write
// and never for suppressed ones.
func (n *Notifier) OnChange(ctx context.Context, rec models.ActiveAlertRecord) error {
	msg := BuildNotification(&rec)

	logrus.Infof("Publishing notification for alert %s (district %s, category %s)",
		msg.AlertID, msg.DistrictID, msg.Alert)

	if err := n.publisher.Publish(ctx, msg); err != nil {
		return &PublishError{Err: err}
	}
	return nil
}

// BuildNotification flattens an active-alert record into the outbound
// message shape.
func BuildNotification(rec *models.ActiveAlertRecord) models.Notification {
	return models.Notification{
		ID:          uuid.New().String(),
		CreatedAtS:  rec.CreatedAtS,
		Area:        rec.District.AreaName,
		District:    rec.District.EnglishName,
		AreaID:      rec.District.AreaID,
		DistrictID:  rec.District.ID,
		Alert:       rec.AlertCategory.Label,
		Description: rec.AlertCategory.Description,
		AlertID:     rec.Alert.ID,
	}
}
