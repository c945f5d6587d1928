package notify

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
)

// FCMSender delivers pushes through Firebase Cloud Messaging.
type FCMSender struct {
	client *messaging.Client
}

func NewFCMSender(client *messaging.Client) *FCMSender {
	return &FCMSender{client: client}
}

func (s *FCMSender) Send(ctx context.Context, p Push) error {
	if p.Token == "" {
		return fmt.Errorf("empty device token")
	}
	msg := &messaging.Message{
		Token: p.Token,
		Data:  p.Data,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}
	if _, err := s.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending FCM to token %s: %w", p.Token, err)
	}
	return nil
}
