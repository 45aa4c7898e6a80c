// Package streamstatus keeps a cached view of which known source URLs are
// currently live. Liveness is probed with HEAD requests on a fixed interval;
// consumers read the cache and may force a refresh.
package streamstatus

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	apperrors "github.com/streamclipper/streamclipper/errors"
	"github.com/streamclipper/streamclipper/logger"
	"github.com/streamclipper/streamclipper/store"
)

// Status is the cached liveness of one source URL.
type Status struct {
	URL       string    `json:"url"`
	Live      bool      `json:"live"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Config tunes the poller.
type Config struct {
	// Interval between background refreshes. Defaults to 2 minutes.
	Interval time.Duration
	// Timeout for a single liveness probe. Defaults to 10s.
	Timeout time.Duration
}

func (c *Config) ApplyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 2 * time.Minute
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// Poller probes the history's source URLs.
type Poller struct {
	store  store.Store
	client *http.Client
	cfg    Config
	log    *logger.Logger

	mu    sync.Mutex
	cache map[string]Status

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func New(st store.Store, cfg Config) *Poller {
	cfg.ApplyDefaults()
	return &Poller{
		store:  st,
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		log:    logger.WithComponent("streamstatus"),
		cache:  make(map[string]Status),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the background refresh loop. One refresh runs immediately.
func (p *Poller) Start() {
	go func() {
		defer close(p.done)
		p.Refresh(context.Background())
		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Refresh(context.Background())
			case <-p.stop:
				return
			}
		}
	}()
}

// Stop halts the background loop and waits for it to finish.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}

// Check probes a single URL now and updates the cache.
func (p *Poller) Check(ctx context.Context, url string) (Status, error) {
	if url == "" {
		return Status{}, apperrors.MissingField("url")
	}
	status := Status{URL: url, Live: p.probe(ctx, url), CheckedAt: time.Now().UTC()}
	p.mu.Lock()
	p.cache[url] = status
	p.mu.Unlock()
	return status, nil
}

// probe treats any 2xx or 3xx HEAD response as live. Origin errors and 4xx/5xx
// read as offline, not as probe failures.
func (p *Poller) probe(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 400
}

// Refresh probes every URL in the history and returns the updated snapshot.
func (p *Poller) Refresh(ctx context.Context) []Status {
	entries, err := p.store.History()
	if err != nil {
		p.log.WithError(err).Error("history read failed")
		return p.Statuses()
	}
	for _, e := range entries {
		if _, err := p.Check(ctx, e.URL); err != nil {
			p.log.WithError(err).Warn("liveness probe failed", logger.Fields(logger.FieldSourceURL, e.URL))
		}
	}
	return p.Statuses()
}

// Statuses returns the cached snapshot, sorted by URL.
func (p *Poller) Statuses() []Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Status, 0, len(p.cache))
	for _, s := range p.cache {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// Live returns only the URLs currently seen as live.
func (p *Poller) Live() []Status {
	var out []Status
	for _, s := range p.Statuses() {
		if s.Live {
			out = append(out, s)
		}
	}
	return out
}
