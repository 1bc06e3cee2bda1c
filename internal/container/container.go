package container

import (
	"context"
	"fmt"
	"time"

	"mediamarkt/crawler/internal/client"
	"mediamarkt/crawler/internal/config"
	"mediamarkt/crawler/internal/export"
	"mediamarkt/crawler/internal/proxy"
	"mediamarkt/crawler/internal/queue"
	"mediamarkt/crawler/internal/service"
	"mediamarkt/crawler/internal/state"
	"mediamarkt/crawler/internal/traversal"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const visitedTTL = 24 * time.Hour

// Container holds all initialized components
type Container struct {
	Config  *config.Config
	RunID   string
	Client  client.SiteClient
	Parser  *client.CatalogParser
	Service *service.Service

	visited *state.VisitedStore
	closers []func() error
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{
		Config: cfg,
		RunID:  uuid.NewString(),
	}

	scope, err := traversal.ParseScope(cfg.Crawl.VisitedScope)
	if err != nil {
		return nil, err
	}

	var proxySupplier proxy.ProxySupplier
	if cfg.Site.CheckProxies {
		proxySupplier = proxy.NewProxySupplier(ctx, cfg.Site.Proxies, cfg.Site.BaseURL)
	} else {
		proxySupplier = proxy.NewStaticSupplier(cfg.Site.Proxies)
	}

	c.Client = client.NewSiteClient(cfg.Site, proxySupplier)
	c.closers = append(c.closers, c.Client.Close)
	c.Parser = client.NewCatalogParser(cfg.Site.BaseURL, cfg.Selectors, cfg.Crawl.ReturnMarkers, cfg.Crawl.ReturnMarkerMode)

	traverser := traversal.New(c.Client, c.Parser, traversal.Options{
		MaxDepth:    cfg.Crawl.MaxDepth,
		Concurrency: cfg.Crawl.Concurrency,
	})

	var (
		rdb       *redis.Client
		publisher queue.Publisher
	)
	if cfg.NeedsRedis() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		c.closers = append(c.closers, rdb.Close)

		if err := rdb.Ping(ctx).Err(); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")
	}

	newVisitedSet := traversal.MemorySetFactory
	if cfg.Crawl.VisitedBackend == "redis" {
		c.visited = state.NewVisitedStore(rdb, cfg.Redis.KeyPrefix, c.RunID, visitedTTL)
		newVisitedSet = func(name string) traversal.VisitedSet {
			return c.visited.Set(name)
		}
	}

	if cfg.Export.Stream.Enabled {
		publisher = queue.NewRedisQueue(rdb, cfg.Redis.StreamPrefix)
	}

	exporter, err := c.buildExporter(ctx, cfg, publisher)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Service = service.NewService(c.Client, c.Parser, traverser, exporter, publisher, service.Options{
		RunID:         c.RunID,
		IndexURL:      cfg.Site.BrandIndexURL(),
		Letters:       cfg.Crawl.Letters,
		LetterLimit:   cfg.Crawl.LetterLimit,
		Scope:         scope,
		NewVisitedSet: newVisitedSet,
		ReportPath:    cfg.Report.Path,
	})

	return c, nil
}

func (c *Container) buildExporter(ctx context.Context, cfg *config.Config, publisher queue.Publisher) (*export.MultiExporter, error) {
	csvExporter := export.NewCSVExporter(cfg.Export.CSVPath)
	sinks := []export.Exporter{csvExporter}

	if cfg.Export.GCS.Bucket != "" {
		gcs, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		c.closers = append(c.closers, gcs.Close)
		sinks = append(sinks, export.NewGCSUploader(gcs, cfg.Export.GCS.Bucket, cfg.Export.GCS.Object, csvExporter.Path()))
	}

	if cfg.Export.Postgres.Enabled {
		db, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		c.closers = append(c.closers, func() error { db.Close(); return nil })
		sinks = append(sinks, export.NewPostgresExporter(db, cfg.Export.Postgres.Table))
	}

	if cfg.Export.Stream.Enabled {
		sinks = append(sinks, export.NewStreamExporter(publisher, c.RunID))
	}

	if cfg.Export.Mongo.Enabled {
		mc, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		c.closers = append(c.closers, func() error { return mc.Disconnect(context.Background()) })
		collection := mc.Database(cfg.Mongo.Database).Collection(cfg.Export.Mongo.Collection)
		sinks = append(sinks, export.NewMongoExporter(collection, c.RunID))
	}

	if cfg.Export.SQLite.Enabled {
		db, err := export.OpenSQLite(cfg.Export.SQLite.Path)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, db.Close)
		sinks = append(sinks, export.NewSQLiteExporter(db, cfg.Export.SQLite.Table))
	}

	return export.NewMultiExporter(sinks...), nil
}

// Run executes one full crawl and drops the run's visited sets afterwards
func (c *Container) Run(ctx context.Context) error {
	log.Infof("🚀 Starting crawl %s from %s", c.RunID, c.Config.Site.BrandIndexURL())

	_, err := c.Service.Run(ctx)

	if c.visited != nil {
		if cleanupErr := c.visited.Cleanup(context.Background()); cleanupErr != nil {
			log.Warnf("⚠️ %v", cleanupErr)
		}
	}

	return err
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	return firstErr
}
