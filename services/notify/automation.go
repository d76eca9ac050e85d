package notify

import (
	"context"
	"fmt"

	"villamar/utils"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// FCMAutomationDispatcher publishes lifecycle events as data-only FCM
// messages on the ops topic. Subscribed automation clients (the admin app,
// the calendar sync) react to them.
type FCMAutomationDispatcher struct {
	Topic  string
	Logger *zap.Logger
}

func NewFCMAutomationDispatcher(topic string, logger *zap.Logger) *FCMAutomationDispatcher {
	return &FCMAutomationDispatcher{Topic: topic, Logger: logger}
}

func (d *FCMAutomationDispatcher) Trigger(ctx context.Context, event, bookingID string, metadata map[string]string) DispatchResult {
	data := map[string]string{
		"event":     event,
		"bookingId": bookingID,
	}
	for k, v := range metadata {
		data[k] = v
	}

	msg := &messaging.Message{
		Topic: d.Topic,
		Data:  data,
	}

	if utils.FCMClient == nil {
		err := fmt.Errorf("FCM client not initialized")
		d.Logger.Warn("automation trigger skipped", zap.String("event", event), zap.Error(err))
		return Failed(err)
	}

	id, err := utils.FCMClient.Send(ctx, msg)
	if err != nil {
		d.Logger.Warn("automation trigger failed",
			zap.String("event", event),
			zap.String("bookingId", bookingID),
			zap.Error(err))
		return Failed(err)
	}

	d.Logger.Info("automation trigger dispatched",
		zap.String("event", event),
		zap.String("bookingId", bookingID),
		zap.String("messageId", id))
	return Dispatched()
}
