package traversal

import (
	"context"
	"fmt"

	"mediamarkt/crawler/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// PageFetcher turns a URL into a parsed document.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// NodeExtractor reads child categories or products out of a document.
type NodeExtractor interface {
	ExtractChildCategories(doc *goquery.Document, currentURL string) []*domain.CategoryNode
	ExtractProducts(doc *goquery.Document) []domain.ProductRecord
}

type Options struct {
	MaxDepth    int
	Concurrency int // 1 walks the tree strictly sequentially
}

// Traverser walks the category graph depth first. A node that fails to fetch
// or parse is recorded in the Context and left empty; its siblings and
// ancestors carry on.
type Traverser struct {
	fetcher     PageFetcher
	extractor   NodeExtractor
	maxDepth    int
	concurrency int
	sem         *semaphore.Weighted
}

func New(fetcher PageFetcher, extractor NodeExtractor, opts Options) *Traverser {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 32
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	return &Traverser{
		fetcher:     fetcher,
		extractor:   extractor,
		maxDepth:    opts.MaxDepth,
		concurrency: opts.Concurrency,
		sem:         semaphore.NewWeighted(int64(opts.Concurrency)),
	}
}

// CrawlBrand fills brand.Categories, or brand.Items when the brand page has no
// category tiles. Only context cancellation is returned as an error.
func (t *Traverser) CrawlBrand(ctx context.Context, tc *Context, brand *domain.BrandEntry) error {
	tc = tc.forBrand(brand)

	claimed, err := tc.visited.Claim(ctx, brand.RootLink)
	if err != nil {
		tc.record(domain.Failure{Component: "brand", Identifier: brand.RootLink, Name: brand.Name, Err: err})
		return nil
	}
	if !claimed {
		tc.journal.cycles.Add(1)
		log.Infof("🔁 Brand %s already visited at %s, skipping", brand.Name, brand.RootLink)
		return nil
	}

	doc, err := t.fetch(ctx, tc, brand.RootLink)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		tc.record(domain.Failure{Component: "brand", Identifier: brand.RootLink, Name: brand.Name, Err: err})
		return nil
	}

	categories, products, err := t.extract(doc, brand.RootLink)
	if err != nil {
		tc.record(domain.Failure{Component: "brand", Identifier: brand.RootLink, Name: brand.Name, Err: err})
		return nil
	}

	if len(categories) == 0 {
		log.Infof("    No categories found, scraping products directly for brand: %s", brand.Name)
		brand.Items = products
		return nil
	}

	err = t.forEach(ctx, categories, func(ctx context.Context, category *domain.CategoryNode) error {
		log.Infof("    Scraping category: %s", category.Name)
		categoryCtx := tc.forCategory(category)
		if categoryCtx != tc {
			// A fresh set still must not walk back into the brand page.
			if _, err := categoryCtx.visited.Claim(ctx, brand.RootLink); err != nil {
				categoryCtx.record(domain.Failure{Component: "category", Identifier: category.Identity, Name: category.Name, Err: err})
				return nil
			}
		}
		return t.traverse(ctx, categoryCtx, category, 1)
	})
	if err != nil {
		return err
	}

	brand.Categories = categories
	return nil
}

// Traverse fills node.Children or node.Items. parentLink is the page the node
// was discovered on and only shows up in diagnostics.
func (t *Traverser) Traverse(ctx context.Context, tc *Context, node *domain.CategoryNode, parentLink string) error {
	log.Debugf("Descending into %s from %s", node.Identity, parentLink)
	return t.traverse(ctx, tc, node, 1)
}

func (t *Traverser) traverse(ctx context.Context, tc *Context, node *domain.CategoryNode, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	claimed, err := tc.visited.Claim(ctx, node.Identity)
	if err != nil {
		tc.record(categoryFailure(node, fmt.Errorf("failed to claim identity: %w", err)))
		return nil
	}
	if !claimed {
		tc.journal.cycles.Add(1)
		log.Infof("🔁 Already visited %s, skipping to avoid loop", node.Identity)
		return nil
	}

	if depth > t.maxDepth {
		tc.record(categoryFailure(node, fmt.Errorf("%w: depth %d, limit %d", domain.ErrMaxDepth, depth, t.maxDepth)))
		return nil
	}

	doc, err := t.fetch(ctx, tc, node.Identity)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		tc.record(categoryFailure(node, err))
		return nil
	}

	children, products, err := t.extract(doc, node.Identity)
	if err != nil {
		tc.record(categoryFailure(node, err))
		return nil
	}

	if len(children) == 0 {
		node.Items = products
		return nil
	}

	err = t.forEach(ctx, children, func(ctx context.Context, child *domain.CategoryNode) error {
		return t.traverse(ctx, tc, child, depth+1)
	})
	if err != nil {
		return err
	}

	node.Children = children
	return nil
}

// forEach runs fn over nodes in page order, or concurrently when configured.
// Results land in the nodes themselves, so the slice order is kept either way.
func (t *Traverser) forEach(ctx context.Context, nodes []*domain.CategoryNode, fn func(context.Context, *domain.CategoryNode) error) error {
	if t.concurrency <= 1 {
		for _, node := range nodes {
			if err := fn(ctx, node); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, node := range nodes {
		g.Go(func() error {
			return fn(gctx, node)
		})
	}
	return g.Wait()
}

func (t *Traverser) fetch(ctx context.Context, tc *Context, pageURL string) (*goquery.Document, error) {
	if err := t.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer t.sem.Release(1)

	tc.journal.fetched.Add(1)
	return t.fetcher.Fetch(ctx, pageURL)
}

// extract reads child categories and, only when there are none, products.
// A panic inside the markup walk is reported as a ParseError for this page.
func (t *Traverser) extract(doc *goquery.Document, pageURL string) (children []*domain.CategoryNode, products []domain.ProductRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			children, products = nil, nil
			err = &domain.ParseError{URL: pageURL, Err: fmt.Errorf("%v", r)}
		}
	}()

	children = t.extractor.ExtractChildCategories(doc, pageURL)
	if len(children) == 0 {
		products = t.extractor.ExtractProducts(doc)
	}
	return children, products, nil
}

func categoryFailure(node *domain.CategoryNode, err error) domain.Failure {
	return domain.Failure{
		Component:  "category",
		Identifier: node.Identity,
		Name:       node.Name,
		Err:        err,
	}
}
