// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package authz

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/arko8919/cotswold-cycling-adventures/internal/config"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// EnforcerConfig holds configuration for the Casbin enforcer.
type EnforcerConfig struct {
	// ModelPath is the path to the Casbin model file.
	// If empty, uses embedded model.
	ModelPath string

	// PolicyPath is the path to the Casbin policy file.
	// If empty, uses embedded policy.
	PolicyPath string

	// CacheTTL is how long to cache decisions. Zero disables the cache.
	CacheTTL time.Duration
}

// ConfigFromSecurity builds the enforcer settings from the app config.
func ConfigFromSecurity(cfg *config.SecurityConfig) *EnforcerConfig {
	return &EnforcerConfig{
		ModelPath:  cfg.CasbinModelPath,
		PolicyPath: cfg.CasbinPolicyPath,
		CacheTTL:   5 * time.Minute,
	}
}

// Enforcer wraps the Casbin enforcer with a decision cache.
type Enforcer struct {
	config   *EnforcerConfig
	enforcer *casbin.SyncedEnforcer
	cache    *decisionCache
}

// NewEnforcer creates the enforcer from the configured or embedded model
// and policy.
func NewEnforcer(cfg *EnforcerConfig) (*Enforcer, error) {
	if cfg == nil {
		cfg = &EnforcerConfig{CacheTTL: 5 * time.Minute}
	}

	var m model.Model
	var err error
	if cfg.ModelPath != "" && fileExists(cfg.ModelPath) {
		m, err = model.NewModelFromFile(cfg.ModelPath)
	} else {
		m, err = model.NewModelFromString(embeddedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if cfg.PolicyPath != "" && fileExists(cfg.PolicyPath) {
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	e := &Enforcer{config: cfg, enforcer: enforcer}
	if cfg.CacheTTL > 0 {
		e.cache = newDecisionCache(cfg.CacheTTL)
	}
	return e, nil
}

// loadEmbeddedPolicy parses the embedded policy CSV.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Enforce reports whether role may perform action on resource.
func (e *Enforcer) Enforce(role, resource, action string) (bool, error) {
	if e.cache != nil {
		if allowed, ok := e.cache.get(role, resource, action); ok {
			return allowed, nil
		}
	}

	allowed, err := e.enforcer.Enforce(role, resource, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}

	if e.cache != nil {
		e.cache.set(role, resource, action, allowed)
	}
	return allowed, nil
}

// ErrNoAdapter is returned by LoadPolicy when the embedded policy is in use.
var ErrNoAdapter = errors.New("no policy adapter configured; using embedded policy")

// LoadPolicy reloads the policy file and drops cached decisions.
func (e *Enforcer) LoadPolicy() error {
	if e.config.PolicyPath == "" {
		return ErrNoAdapter
	}
	if err := e.enforcer.LoadPolicy(); err != nil {
		return err
	}
	if e.cache != nil {
		e.cache.clear()
	}
	return nil
}

// Close stops the cache cleanup goroutine.
func (e *Enforcer) Close() {
	if e.cache != nil {
		e.cache.stop()
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
