package cache

import (
	"fmt"
	"time"

	"zenbudget/internal/analytics"
)

// Dashboards caches built dashboards. Keys include the state version, so a
// new snapshot never reads a stale entry; the day keeps "current month"
// answers from crossing midnight.
type Dashboards struct {
	lru *LRU[analytics.Dashboard]
}

func NewDashboards(maxSize int, ttl time.Duration) *Dashboards {
	return &Dashboards{lru: NewLRU[analytics.Dashboard](maxSize, ttl)}
}

func dashboardKey(uid string, view analytics.View, version uint64, day time.Time) string {
	return fmt.Sprintf("%s:%s:%d:%s", uid, view, version, day.Format(time.DateOnly))
}

// GetOrBuild returns the cached dashboard for the key or builds and stores it.
func (d *Dashboards) GetOrBuild(uid string, view analytics.View, version uint64, now time.Time, build func() analytics.Dashboard) (analytics.Dashboard, bool) {
	key := dashboardKey(uid, view, version, now)
	if v, ok := d.lru.Get(key); ok {
		return v, true
	}
	v := build()
	d.lru.Set(key, v)
	return v, false
}

// Forget drops every entry of uid.
func (d *Dashboards) Forget(uid string) int {
	return d.lru.DeletePrefix(uid + ":")
}

func (d *Dashboards) CleanExpired() int { return d.lru.CleanExpired() }

func (d *Dashboards) Size() int { return d.lru.Size() }
