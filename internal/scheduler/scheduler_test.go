package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamadbah2/wacloud/internal/config"
	client "github.com/mamadbah2/wacloud/pkg/clients/whatsapp"
)

type stubPhones struct {
	phone *client.PhoneNumber
	err   error
	calls int
}

func (s *stubPhones) GetPhoneNumber(context.Context) (*client.PhoneNumber, error) {
	s.calls++
	return s.phone, s.err
}

func TestCheckLogsQuality(t *testing.T) {
	tests := []struct {
		rating  string
		level   zapcore.Level
		message string
	}{
		{rating: "GREEN", level: zapcore.InfoLevel, message: "phone number healthy"},
		{rating: "YELLOW", level: zapcore.WarnLevel, message: "phone number quality degraded"},
		{rating: "RED", level: zapcore.WarnLevel, message: "phone number quality degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.rating, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			phones := &stubPhones{phone: &client.PhoneNumber{ID: "P", QualityRating: tt.rating}}
			s := NewScheduler(config.MonitorConfig{}, phones, zap.New(core))

			require.NoError(t, s.Check(context.Background()))

			entries := logs.FilterMessage(tt.message).All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			assert.Equal(t, tt.rating, entries[0].ContextMap()["quality_rating"])
		})
	}
}

func TestCheckReturnsClientError(t *testing.T) {
	apiErr := &client.APIError{Kind: client.KindAuthenticationFailed, Code: 190}
	s := NewScheduler(config.MonitorConfig{}, &stubPhones{err: apiErr}, nil)

	err := s.Check(context.Background())
	assert.ErrorIs(t, err, client.ErrAuthenticationFailed)
}

func TestStartDisabled(t *testing.T) {
	phones := &stubPhones{}
	s := NewScheduler(config.MonitorConfig{CronSchedule: ""}, phones, nil)

	require.NoError(t, s.Start())
	s.Stop()
	assert.Zero(t, phones.calls)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(config.MonitorConfig{CronSchedule: "every now and then"}, &stubPhones{}, nil)
	assert.Error(t, s.Start())
}

func TestStartRegistersCheck(t *testing.T) {
	s := NewScheduler(config.MonitorConfig{CronSchedule: "@every 1h"}, &stubPhones{}, nil)

	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Len(t, s.cron.Entries(), 1)
}
