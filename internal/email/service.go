package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/psybot/psybot-api/internal/config"
	"github.com/psybot/psybot-api/pkg/logger"
)

// Service sends clinician-facing notifications. The only notification this
// deployment sends is the severe-score alert raised when an assessment
// lands in the Severe band.
type Service interface {
	SendSevereScoreAlert(ctx context.Context, patientName string, totalScore int, severity string) error
}

type service struct {
	cfg    config.AlertsConfig
	dialer *gomail.Dialer
	logger *logger.Logger
}

func NewService(cfg config.AlertsConfig, logger *logger.Logger) Service {
	var dialer *gomail.Dialer
	if cfg.Host != "" {
		dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return &service{cfg: cfg, dialer: dialer, logger: logger}
}

// Enabled reports whether the SMTP surface is configured.
func (s *service) enabled() bool {
	return s.dialer != nil && s.cfg.Recipient != ""
}

func (s *service) SendSevereScoreAlert(ctx context.Context, patientName string, totalScore int, severity string) error {
	if !s.enabled() {
		s.logger.Debug("severe-score alert skipped, SMTP not configured")
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", s.cfg.Recipient)
	m.SetHeader("Subject", fmt.Sprintf("PHQ-9 alert: %s scored %d (%s)", patientName, totalScore, severity))
	m.SetBody("text/plain", fmt.Sprintf(
		"Patient %s submitted a PHQ-9 assessment with total score %d/27 (%s).\n"+
			"Please review the assessment and follow up.\n", patientName, totalScore, severity))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send severe-score alert: %w", err)
	}
	return nil
}
