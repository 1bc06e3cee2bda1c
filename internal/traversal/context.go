package traversal

import (
	"fmt"
	"sync"
	"sync/atomic"

	"mediamarkt/crawler/internal/domain"

	log "github.com/sirupsen/logrus"
)

// Scope decides how long one visited set lives.
type Scope string

const (
	ScopeGlobal   Scope = "global"   // One set for the whole crawl
	ScopeBrand    Scope = "brand"    // Fresh set per brand
	ScopeCategory Scope = "category" // Fresh set per top-level category
)

func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeGlobal, ScopeBrand, ScopeCategory:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("unknown visited scope %q", s)
	}
}

// Stats summarizes one crawl.
type Stats struct {
	Fetched  int64
	Cycles   int64
	Failures int
}

// Context is the state threaded through every recursive call of a crawl: the
// visited set of the current scope and the shared failure log.
type Context struct {
	scope   Scope
	newSet  VisitedSetFactory
	visited VisitedSet
	journal *journal
}

type journal struct {
	mu        sync.Mutex
	failures  []domain.Failure
	onFailure func(domain.Failure)
	fetched   atomic.Int64
	cycles    atomic.Int64
}

// NewContext starts a crawl. onFailure, if set, is called for every failure
// as it is recorded, possibly from several goroutines.
func NewContext(scope Scope, newSet VisitedSetFactory, onFailure func(domain.Failure)) *Context {
	if newSet == nil {
		newSet = MemorySetFactory
	}

	return &Context{
		scope:   scope,
		newSet:  newSet,
		visited: newSet(string(ScopeGlobal)),
		journal: &journal{onFailure: onFailure},
	}
}

// Failures returns a copy of every failure recorded so far, in record order.
func (c *Context) Failures() []domain.Failure {
	c.journal.mu.Lock()
	defer c.journal.mu.Unlock()
	return append([]domain.Failure(nil), c.journal.failures...)
}

func (c *Context) Stats() Stats {
	c.journal.mu.Lock()
	failures := len(c.journal.failures)
	c.journal.mu.Unlock()

	return Stats{
		Fetched:  c.journal.fetched.Load(),
		Cycles:   c.journal.cycles.Load(),
		Failures: failures,
	}
}

func (c *Context) forBrand(brand *domain.BrandEntry) *Context {
	if c.scope == ScopeGlobal {
		return c
	}
	return c.fresh("brand:" + brand.RootLink)
}

func (c *Context) forCategory(category *domain.CategoryNode) *Context {
	if c.scope != ScopeCategory {
		return c
	}
	return c.fresh("category:" + category.Identity)
}

func (c *Context) fresh(name string) *Context {
	return &Context{
		scope:   c.scope,
		newSet:  c.newSet,
		visited: c.newSet(name),
		journal: c.journal,
	}
}

func (c *Context) record(failure domain.Failure) {
	log.Warnf("❌ Error scraping %s", failure)

	c.journal.mu.Lock()
	c.journal.failures = append(c.journal.failures, failure)
	onFailure := c.journal.onFailure
	c.journal.mu.Unlock()

	if onFailure != nil {
		onFailure(failure)
	}
}
