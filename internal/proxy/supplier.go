package proxy

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"
)

const maxParallelChecks = 20

// ProxySupplier hands out working proxies in round-robin order
type ProxySupplier interface {
	Get() string
	Len() int
}

type proxySupplier struct {
	mutex   sync.Mutex
	proxies []string
	next    int
}

// NewProxySupplier checks every proxy against testURL and keeps the ones that
// answer. Input order is preserved among the survivors.
func NewProxySupplier(ctx context.Context, proxies []string, testURL string) ProxySupplier {
	if len(proxies) == 0 {
		return &proxySupplier{}
	}

	log.Infof("🔄 Checking %d proxies against %s", len(proxies), testURL)

	working := make([]bool, len(proxies))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelChecks)

	for i, proxyURL := range proxies {
		g.Go(func() error {
			working[i] = checkProxy(ctx, proxyURL, testURL)
			return nil
		})
	}
	_ = g.Wait()

	valid := make([]string, 0, len(proxies))
	for i, ok := range working {
		if ok {
			valid = append(valid, proxies[i])
		}
	}

	log.Infof("✅ %d of %d proxies usable", len(valid), len(proxies))
	return &proxySupplier{proxies: valid}
}

// NewStaticSupplier rotates over proxies without checking them
func NewStaticSupplier(proxies []string) ProxySupplier {
	return &proxySupplier{proxies: append([]string(nil), proxies...)}
}

func (p *proxySupplier) Get() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxyURL := p.proxies[p.next]
	p.next = (p.next + 1) % len(p.proxies)
	return proxyURL
}

func (p *proxySupplier) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.proxies)
}

func checkProxy(ctx context.Context, proxyURL, testURL string) bool {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0).
		SetProxy(proxyURL)
	defer client.Close()

	resp, err := client.R().
		SetContext(ctx).
		Head(testURL)
	if err != nil {
		log.Debugf("❌ Proxy %s failed: %v", proxyURL, err)
		return false
	}
	if resp.IsError() {
		log.Debugf("❌ Proxy %s answered %s", proxyURL, resp.Status())
		return false
	}
	return true
}
