// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package authz

import (
	"sync"
	"time"

	"github.com/arko8919/cotswold-cycling-adventures/internal/metrics"
)

// decisionCache remembers enforcement results per (role, resource, action).
type decisionCache struct {
	ttl      time.Duration
	mu       sync.RWMutex
	items    map[string]decision
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

type decision struct {
	allowed   bool
	expiresAt time.Time
}

func newDecisionCache(ttl time.Duration) *decisionCache {
	c := &decisionCache{
		ttl:      ttl,
		items:    make(map[string]decision),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func decisionKey(role, resource, action string) string {
	return role + ":" + resource + ":" + action
}

func (c *decisionCache) get(role, resource, action string) (allowed, ok bool) {
	c.mu.RLock()
	d, found := c.items[decisionKey(role, resource, action)]
	c.mu.RUnlock()

	if !found || c.now().After(d.expiresAt) {
		metrics.CacheMisses.WithLabelValues("authz").Inc()
		return false, false
	}
	metrics.CacheHits.WithLabelValues("authz").Inc()
	return d.allowed, true
}

func (c *decisionCache) set(role, resource, action string, allowed bool) {
	c.mu.Lock()
	c.items[decisionKey(role, resource, action)] = decision{allowed: allowed, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *decisionCache) clear() {
	c.mu.Lock()
	c.items = make(map[string]decision)
	c.mu.Unlock()
}

func (c *decisionCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *decisionCache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := c.now()
			for key, d := range c.items {
				if now.After(d.expiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// stop is safe to call more than once.
func (c *decisionCache) stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}
