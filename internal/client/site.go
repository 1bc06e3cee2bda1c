package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mediamarkt/crawler/internal/config"
	"mediamarkt/crawler/internal/domain"
	"mediamarkt/crawler/internal/proxy"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// SiteClient turns a shop URL into a parsed document
type SiteClient interface {
	Fetch(ctx context.Context, pageURL string) (*goquery.Document, error)
	Close() error
}

// siteClient keeps one resty client per proxy. A client is never modified
// after it is built, switching proxies only swaps the active pointer.
type siteClient struct {
	cfg           config.SiteConfig
	rl            ratelimit.Limiter
	proxySupplier proxy.ProxySupplier

	active atomic.Pointer[resty.Client]

	mu      sync.Mutex
	clients map[string]*resty.Client // by proxy URL, "" for a direct connection
}

func NewSiteClient(cfg config.SiteConfig, proxySupplier proxy.ProxySupplier) SiteClient {
	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	c := &siteClient{
		cfg:           cfg,
		rl:            rl,
		proxySupplier: proxySupplier,
		clients:       make(map[string]*resty.Client),
	}

	var proxyURL string
	if proxySupplier != nil {
		proxyURL = proxySupplier.Get()
	}
	if proxyURL != "" {
		log.Infof("🔗 Using initial proxy: %s", proxyURL)
	}

	c.mu.Lock()
	c.active.Store(c.clientFor(proxyURL))
	c.mu.Unlock()

	return c
}

// clientFor returns the client routed through proxyURL. c.mu must be held.
func (c *siteClient) clientFor(proxyURL string) *resty.Client {
	if client, ok := c.clients[proxyURL]; ok {
		return client
	}

	client := resty.New().
		SetTimeout(c.cfg.Timeout).
		SetRetryCount(c.cfg.MaxRetries).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetHeader("User-Agent", c.cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "de-DE,de;q=0.9,en;q=0.5")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}

	c.clients[proxyURL] = client
	return client
}

// Fetch downloads and parses pageURL. Every call waits for the rate limiter
// before the request and for the politeness delay after it.
func (c *siteClient) Fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	html, err := c.fetchHTML(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &domain.ParseError{URL: pageURL, Err: err}
	}
	if u, err := url.Parse(pageURL); err == nil {
		doc.Url = u
	}

	return doc, nil
}

func (c *siteClient) fetchHTML(ctx context.Context, pageURL string) (string, error) {
	c.rl.Take()
	defer c.pause(ctx)

	client := c.active.Load()
	resp, err := client.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return "", &domain.FetchError{URL: pageURL, Err: fmt.Errorf("request cancelled: %w", ctx.Err())}
		}
		return "", &domain.FetchError{URL: pageURL, Err: err}
	}

	if c.shouldRotate(resp.StatusCode()) {
		log.Warnf("🚫 %s answered %d, switching proxy", pageURL, resp.StatusCode())

		resp, err = c.rotate(client).R().
			SetContext(ctx).
			Get(pageURL)
		if err != nil {
			return "", &domain.FetchError{URL: pageURL, Err: err}
		}
	}

	if resp.IsError() {
		return "", &domain.FetchError{
			URL:        pageURL,
			StatusCode: resp.StatusCode(),
			Err:        errors.New(resp.Status()),
		}
	}

	log.Debugf("Fetched %s (%d)", pageURL, resp.StatusCode())
	return resp.String(), nil
}

func (c *siteClient) shouldRotate(status int) bool {
	if !c.cfg.RotateOnBlock {
		return false
	}
	if status != http.StatusForbidden && status != http.StatusTooManyRequests {
		return false
	}
	return c.proxySupplier != nil && c.proxySupplier.Len() > 1
}

// rotate moves to the next proxy unless another request already moved away
// from blocked, in which case that newer client is used.
func (c *siteClient) rotate(blocked *resty.Client) *resty.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current := c.active.Load(); current != blocked {
		return current
	}

	proxyURL := c.proxySupplier.Get()
	next := c.clientFor(proxyURL)
	c.active.Store(next)

	log.Infof("🔗 Switched to proxy: %s", proxyURL)
	return next
}

func (c *siteClient) pause(ctx context.Context) {
	if c.cfg.PolitenessDelay <= 0 {
		return
	}

	timer := time.NewTimer(c.cfg.PolitenessDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Close releases every client built so far.
func (c *siteClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, client := range c.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.clients = make(map[string]*resty.Client)
	return errors.Join(errs...)
}
