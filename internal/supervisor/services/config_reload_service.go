// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package services

import (
	"context"

	"github.com/thejerf/suture/v4"

	"github.com/arko8919/cotswold-cycling-adventures/internal/config"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
)

// ConfigReloadService watches the config file and reapplies settings that
// may change while the server runs. Everything else needs a restart.
type ConfigReloadService struct {
	path  string
	load  func() (*config.Config, error)
	apply func(*config.Config)
	name  string
}

// NewConfigReloadService creates the reload service for the file at path.
// An empty path means no config file is in use and the service exits
// without being restarted.
func NewConfigReloadService(path string, load func() (*config.Config, error), apply func(*config.Config)) *ConfigReloadService {
	return &ConfigReloadService{
		path:  path,
		load:  load,
		apply: apply,
		name:  "config-reload",
	}
}

// ApplyLogLevel sets the global log level from cfg.
func ApplyLogLevel(cfg *config.Config) {
	logging.SetLevelString(cfg.Logging.Level)
}

// Serve implements suture.Service. A config that fails to load or validate
// is logged and the running settings are kept.
func (s *ConfigReloadService) Serve(ctx context.Context) error {
	if s.path == "" {
		return suture.ErrDoNotRestart
	}

	changes := make(chan struct{}, 1)
	watchErrs := make(chan error, 1)
	stop, err := config.WatchConfigFile(s.path,
		func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		},
		func(err error) {
			select {
			case watchErrs <- err:
			default:
			}
		},
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := stop(); err != nil {
			logging.Warn().Err(err).Str("path", s.path).Msg("Failed to stop config watch")
		}
	}()

	logger := logging.WithComponent(s.name)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-watchErrs:
			// Returning lets the supervisor re-establish the watch.
			return err
		case <-changes:
			cfg, err := s.load()
			if err != nil {
				logger.Warn().Err(err).Str("path", s.path).Msg("Config reload rejected")
				continue
			}
			s.apply(cfg)
			logger.Info().Str("path", s.path).Str("log_level", cfg.Logging.Level).Msg("Configuration reloaded")
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (s *ConfigReloadService) String() string {
	return s.name
}
