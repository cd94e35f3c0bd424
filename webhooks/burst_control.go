package webhooks

import (
	"context"
	"strings"
	"sync"
	"time"
)

type BurstMode string

const (
	BurstModeNone     BurstMode = "none"
	BurstModeCoalesce BurstMode = "coalesce"
)

type BurstDecision struct {
	Allow    bool
	Metadata map[string]any
}

// BurstController gates repeated triggers for the same key inside a
// short window so a chatty caller cannot flood the event ledger.
type BurstController interface {
	Allow(ctx context.Context, key string) BurstDecision
}

type BurstOptions struct {
	Mode       BurstMode
	Window     time.Duration
	MaxEntries int
	Now        func() time.Time
}

type DefaultBurstController struct {
	mode       BurstMode
	window     time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]time.Time
}

func NewBurstController(opts BurstOptions) *DefaultBurstController {
	mode := normalizeBurstMode(opts.Mode)
	window := opts.Window
	if window <= 0 {
		window = 2 * time.Second
	}
	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 4096
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &DefaultBurstController{
		mode:       mode,
		window:     window,
		maxEntries: maxEntries,
		now:        now,
		entries:    map[string]time.Time{},
	}
}

func (c *DefaultBurstController) Allow(_ context.Context, key string) BurstDecision {
	if c == nil || c.mode == BurstModeNone {
		return BurstDecision{Allow: true}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return BurstDecision{Allow: true}
	}

	now := c.now().UTC()
	c.mu.Lock()
	defer c.mu.Unlock()

	lastSeen, exists := c.entries[key]
	c.entries[key] = now
	c.cleanup(now)
	if !exists {
		return BurstDecision{Allow: true}
	}
	if now.Sub(lastSeen) >= c.window {
		return BurstDecision{Allow: true}
	}

	return BurstDecision{
		Allow: false,
		Metadata: map[string]any{
			"burst_mode":      string(c.mode),
			"burst_key":       key,
			"burst_window_ms": c.window.Milliseconds(),
			"coalesced":       true,
		},
	}
}

func (c *DefaultBurstController) cleanup(now time.Time) {
	if len(c.entries) <= c.maxEntries {
		for key, seenAt := range c.entries {
			if now.Sub(seenAt) > c.window*4 {
				delete(c.entries, key)
			}
		}
		return
	}
	for key, seenAt := range c.entries {
		if now.Sub(seenAt) > c.window {
			delete(c.entries, key)
		}
		if len(c.entries) <= c.maxEntries {
			break
		}
	}
}

func normalizeBurstMode(mode BurstMode) BurstMode {
	switch strings.ToLower(strings.TrimSpace(string(mode))) {
	case string(BurstModeCoalesce):
		return BurstModeCoalesce
	default:
		return BurstModeNone
	}
}

var _ BurstController = (*DefaultBurstController)(nil)
