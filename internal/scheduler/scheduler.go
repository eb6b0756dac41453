package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/wacloud/internal/config"
	client "github.com/mamadbah2/wacloud/pkg/clients/whatsapp"
)

const checkTimeout = 30 * time.Second

// PhoneNumberFetcher is the subset of the client the check needs.
type PhoneNumberFetcher interface {
	GetPhoneNumber(ctx context.Context) (*client.PhoneNumber, error)
}

// Scheduler periodically checks the health of the business phone number.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	phones   PhoneNumberFetcher
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.MonitorConfig, phones PhoneNumberFetcher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Standard 5-field parser; descriptors such as "@every 1h" are accepted too.
	c := cron.New()

	return &Scheduler{
		cron:     c,
		schedule: cfg.CronSchedule,
		phones:   phones,
		logger:   logger,
	}
}

// Start registers the check and starts the scheduler. An empty schedule
// leaves the scheduler idle.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("phone number check disabled")
		return nil
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.checkPhoneNumber); err != nil {
		return fmt.Errorf("schedule phone number check: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running check to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) checkPhoneNumber() {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	if err := s.Check(ctx); err != nil {
		s.logger.Error("phone number check failed", zap.Error(err))
	}
}

// Check fetches the phone number once and logs its quality rating.
func (s *Scheduler) Check(ctx context.Context) error {
	phone, err := s.phones.GetPhoneNumber(ctx)
	if err != nil {
		return err
	}

	fields := []zap.Field{
		zap.String("phone_number_id", phone.ID),
		zap.String("display_phone_number", phone.DisplayPhoneNumber),
		zap.String("quality_rating", phone.QualityRating),
	}

	switch phone.QualityRating {
	case "RED", "YELLOW":
		s.logger.Warn("phone number quality degraded", fields...)
	default:
		s.logger.Info("phone number healthy", fields...)
	}
	return nil
}
