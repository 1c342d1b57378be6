// Package metrics is a small Prometheus-exposition-format collector. It
// keeps the service free of the full client_golang dependency while still
// being scrapeable.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates counters and duration histograms.
type Collector struct {
	mu         sync.Mutex
	counters   map[string]*Counter
	histograms map[string]*Histogram
	startTime  time.Time
}

func NewCollector() *Collector {
	return &Collector{
		counters:   make(map[string]*Counter),
		histograms: make(map[string]*Histogram),
		startTime:  time.Now(),
	}
}

// Counter is a monotonically increasing counter.
type Counter struct {
	help  string
	value atomic.Int64
}

func (c *Counter) Inc()         { c.value.Add(1) }
func (c *Counter) Value() int64 { return c.value.Load() }

// Histogram tracks a duration distribution in seconds.
type Histogram struct {
	help    string
	mu      sync.Mutex
	count   int64
	sum     float64
	buckets []histBucket
}

type histBucket struct {
	le    float64
	count int64
}

var defaultBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Observe records one duration.
func (h *Histogram) Observe(d time.Duration) {
	secs := d.Seconds()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += secs
	for i := range h.buckets {
		if secs <= h.buckets[i].le {
			h.buckets[i].count++
		}
	}
}

// Counter returns (creating on first use) the named counter. Label pairs are
// baked into the name, e.g. `messages_total{channel="sms"}`.
func (c *Collector) Counter(name, help string) *Counter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.counters[name]; ok {
		return existing
	}
	counter := &Counter{help: help}
	c.counters[name] = counter
	return counter
}

// Histogram returns (creating on first use) the named histogram.
func (c *Collector) Histogram(name, help string) *Histogram {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.histograms[name]; ok {
		return existing
	}
	h := &Histogram{help: help}
	for _, le := range defaultBuckets {
		h.buckets = append(h.buckets, histBucket{le: le})
	}
	c.histograms[name] = h
	return h
}

// Handler serves the exposition text format.
func (c *Collector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		fmt.Fprint(w, c.render())
	})
}

func (c *Collector) render() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sb strings.Builder

	fmt.Fprintf(&sb, "# HELP process_uptime_seconds Time since process start.\n")
	fmt.Fprintf(&sb, "# TYPE process_uptime_seconds gauge\n")
	fmt.Fprintf(&sb, "process_uptime_seconds %.0f\n", time.Since(c.startTime).Seconds())

	names := make([]string, 0, len(c.counters))
	for name := range c.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	// Labeled series of one metric share a base name; HELP and TYPE may
	// appear only once per base or scrapers reject the payload. Sorted names
	// keep each base's series adjacent, so one seen-set suffices.
	helpWritten := make(map[string]bool)
	for _, name := range names {
		counter := c.counters[name]
		base := baseName(name)
		if !helpWritten[base] {
			fmt.Fprintf(&sb, "# HELP %s %s\n", base, counter.help)
			fmt.Fprintf(&sb, "# TYPE %s counter\n", base)
			helpWritten[base] = true
		}
		fmt.Fprintf(&sb, "%s %d\n", name, counter.Value())
	}

	names = names[:0]
	for name := range c.histograms {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		h := c.histograms[name]
		h.mu.Lock()
		fmt.Fprintf(&sb, "# HELP %s %s\n", name, h.help)
		fmt.Fprintf(&sb, "# TYPE %s histogram\n", name)
		for _, b := range h.buckets {
			fmt.Fprintf(&sb, "%s_bucket{le=\"%g\"} %d\n", name, b.le, b.count)
		}
		fmt.Fprintf(&sb, "%s_bucket{le=\"+Inf\"} %d\n", name, h.count)
		fmt.Fprintf(&sb, "%s_sum %g\n", name, h.sum)
		fmt.Fprintf(&sb, "%s_count %d\n", name, h.count)
		h.mu.Unlock()
	}

	return sb.String()
}

// baseName strips a label set from a metric name for HELP/TYPE lines.
func baseName(name string) string {
	if i := strings.IndexByte(name, '{'); i >= 0 {
		return name[:i]
	}
	return name
}
