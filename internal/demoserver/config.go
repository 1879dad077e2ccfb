package demoserver

import (
	"time"

	"github.com/demiplane/demiplane/pkg/scroll"
)

// config holds New's tunables; Option mutates it the same
// functional-options way pkg/dbtest.Option and pkg/fixgres.Option do.
type config struct {
	addr           string
	databaseURL    string
	ringBufferSize uint64
	waitStrategy   scroll.WaitStrategy
	logThreshold   scroll.Level
	tailThreshold  scroll.Level
	tailCapacity   int
	pollInterval   time.Duration
}

// Option configures New. Unset fields fall back to the defaults
// applied in newConfig.
type Option func(*config)

func WithAddr(addr string) Option { return func(c *config) { c.addr = addr } }

func WithDatabaseURL(url string) Option { return func(c *config) { c.databaseURL = url } }

func WithRingBufferSize(n uint64) Option { return func(c *config) { c.ringBufferSize = n } }

func WithWaitStrategy(w scroll.WaitStrategy) Option { return func(c *config) { c.waitStrategy = w } }

func WithLogThreshold(l scroll.Level) Option { return func(c *config) { c.logThreshold = l } }

// WithTailBuffer sets the websocket log-tail feed's level floor and how
// many of the most recent matching events it replays to a new subscriber.
func WithTailBuffer(threshold scroll.Level, capacity int) Option {
	return func(c *config) {
		c.tailThreshold = threshold
		c.tailCapacity = capacity
	}
}

// WithPollInterval sets how often a live query is re-executed and
// broadcast to its subscribers.
func WithPollInterval(d time.Duration) Option { return func(c *config) { c.pollInterval = d } }

func newConfig(opts []Option) *config {
	c := &config{
		addr:           ":8080",
		ringBufferSize: 8192,
		logThreshold:   scroll.Info,
		tailThreshold:  scroll.Info,
		tailCapacity:   256,
		pollInterval:   2 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}
