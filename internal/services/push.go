package services

import (
	"fmt"

	appconfig "umrah-companion-backend/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// PushService delivers push notifications to registered devices
type PushService struct {
	client *apns2.Client
	topic  string
}

// NewPushService creates an APNs push service. When the config is
// disabled the service is a no-op so chat delivery never depends on it.
func NewPushService(cfg appconfig.APNSConfig) (*PushService, error) {
	if !cfg.Enabled {
		return &PushService{}, nil
	}

	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs key: %w", err)
	}

	t := &token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	}

	client := apns2.NewTokenClient(t)
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &PushService{client: client, topic: cfg.Topic}, nil
}

// Notify sends one notification with title/body and an opaque data map
func (s *PushService) Notify(deviceToken, title, body string, data map[string]interface{}) {
	if s.client == nil {
		return
	}

	p := payload.NewPayload().AlertTitle(title).AlertBody(body).Sound("default")
	for k, v := range data {
		p.Custom(k, v)
	}

	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       s.topic,
		Payload:     p,
	}

	res, err := s.client.Push(notification)
	if err != nil {
		log.Error().Err(err).Msg("Failed to send push notification")
		return
	}
	if !res.Sent() {
		log.Warn().
			Int("status", res.StatusCode).
			Str("reason", res.Reason).
			Msg("Push notification rejected")
	}
}

// NotifyAll fans one notification out to a list of device tokens
func (s *PushService) NotifyAll(deviceTokens []string, title, body string, data map[string]interface{}) {
	for _, t := range deviceTokens {
		s.Notify(t, title, body, data)
	}
}
