// Package google builds the authenticated Calendar API service from
// service-account credentials.
package google

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/campushub/backend/internal/config"
)

// NewCalendarService authenticates against the Calendar API using the
// configured service-account key file.
func NewCalendarService(ctx context.Context, cfg config.GoogleConfig, logger *zap.Logger) (*calendar.Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ServiceAccountFile == "" {
		return nil, fmt.Errorf("google service account file not configured")
	}

	data, err := os.ReadFile(cfg.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read service account file: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}

	service, err := calendar.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	logger.Info("connected to google calendar api")
	return service, nil
}
