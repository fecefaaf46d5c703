// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

/*
Package cache provides a thread-safe generic LRU cache with TTL support.

The rendered pages read the same few adventures over and over: the
overview list and the detail page for each slug. LRUCache keeps those
results in memory so a page view does not hit DuckDB every time.

# Consistency

Entries are never updated in place. Any write that could change a cached
adventure (create, update or delete of an adventure, and every review
write because it changes the rating) calls Purge, which drops everything.
Expired entries are removed lazily on Get and by CleanupExpired.

# Usage Example

	adventures := cache.NewLRUCache[*models.Adventure]("adventure_views", 256, 5*time.Minute)

	if a, ok := adventures.Get(slug); ok {
	    return a, nil
	}
	a, err := db.GetAdventureBySlug(ctx, slug)
	if err != nil {
	    return nil, err
	}
	adventures.Add(slug, a)

# Metrics

Hits and misses are counted locally (see Stats) and exported through the
cache_hits_total and cache_misses_total counters, labelled with the cache
name.

# Thread Safety

All methods are safe for concurrent use. Get takes the write lock because
it reorders the list.
*/
package cache
