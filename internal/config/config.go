package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Site      SiteConfig      `mapstructure:"site"`
	Crawl     CrawlConfig     `mapstructure:"crawl"`
	Selectors SelectorsConfig `mapstructure:"selectors"`
	Export    ExportConfig    `mapstructure:"export"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Report    ReportConfig    `mapstructure:"report"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// SiteConfig describes the crawled shop and how politely to fetch from it
type SiteConfig struct {
	BaseURL              string        `mapstructure:"base_url"`
	BrandIndexPath       string        `mapstructure:"brand_index_path"`
	UserAgent            string        `mapstructure:"user_agent"`
	Timeout              time.Duration `mapstructure:"timeout"`
	MaxRetries           int           `mapstructure:"max_retries"`
	PolitenessDelay      time.Duration `mapstructure:"politeness_delay"`
	MaxRequestsPerSecond int           `mapstructure:"max_requests_per_second"`
	Proxies              []string      `mapstructure:"proxies"`
	CheckProxies         bool          `mapstructure:"check_proxies"`   // Drop proxies that fail a HEAD against BaseURL
	RotateOnBlock        bool          `mapstructure:"rotate_on_block"` // Retry once through the next proxy on 403/429
}

// BrandIndexURL is the root page listing every brand by letter
func (s SiteConfig) BrandIndexURL() string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(s.BrandIndexPath, "/")
}

type CrawlConfig struct {
	Letters          []string `mapstructure:"letters"`      // Explicit glossary anchors, overrides LetterLimit
	LetterLimit      int      `mapstructure:"letter_limit"` // 0 means every letter
	MaxDepth         int      `mapstructure:"max_depth"`
	Concurrency      int      `mapstructure:"concurrency"`
	VisitedScope     string   `mapstructure:"visited_scope"`   // global, brand or category
	VisitedBackend   string   `mapstructure:"visited_backend"` // memory or redis
	ReturnMarkers    []string `mapstructure:"return_markers"`
	ReturnMarkerMode string   `mapstructure:"return_marker_mode"` // word or substring
}

// SelectorsConfig holds the CSS selectors used to read shop pages
type SelectorsConfig struct {
	LetterAnchors   string   `mapstructure:"letter_anchors"`
	BrandRow        string   `mapstructure:"brand_row"` // fmt pattern, %s is the letter
	CategoryTile    string   `mapstructure:"category_tile"`
	CategoryName    string   `mapstructure:"category_name"`
	ProductCard     string   `mapstructure:"product_card"`
	ProductTitle    string   `mapstructure:"product_title"`
	ProductLink     string   `mapstructure:"product_link"`
	RatingContainer string   `mapstructure:"rating_container"`
	RatingLabel     string   `mapstructure:"rating_label"`
	Price           []string `mapstructure:"price"`
	ProductImage    string   `mapstructure:"product_image"`
}

type ExportConfig struct {
	CSVPath  string         `mapstructure:"csv_path"`
	GCS      GCSConfig      `mapstructure:"gcs"`
	Postgres PostgresExport `mapstructure:"postgres"`
	Stream   StreamExport   `mapstructure:"stream"`
	Mongo    MongoExport    `mapstructure:"mongo"`
	SQLite   SQLiteExport   `mapstructure:"sqlite"`
}

type GCSConfig struct {
	Bucket string `mapstructure:"bucket"` // Empty disables the upload
	Object string `mapstructure:"object"`
}

type PostgresExport struct {
	Enabled bool   `mapstructure:"enabled"`
	Table   string `mapstructure:"table"`
}

type StreamExport struct {
	Enabled bool `mapstructure:"enabled"`
}

type MongoExport struct {
	Enabled    bool   `mapstructure:"enabled"`
	Collection string `mapstructure:"collection"`
}

type SQLiteExport struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Table   string `mapstructure:"table"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	Database     int    `mapstructure:"database"`
	StreamPrefix string `mapstructure:"stream_prefix"`
	KeyPrefix    string `mapstructure:"key_prefix"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type ReportConfig struct {
	Path string `mapstructure:"path"` // Empty disables the markdown report
}

// NeedsRedis reports whether any enabled component talks to Redis
func (c *Config) NeedsRedis() bool {
	return c.Crawl.VisitedBackend == "redis" || c.Export.Stream.Enabled
}

// Validate checks values that would otherwise fail deep inside a crawl
func (c *Config) Validate() error {
	var errs []error

	if c.Site.BaseURL == "" {
		errs = append(errs, errors.New("site.base_url is required"))
	}
	if c.Export.CSVPath == "" {
		errs = append(errs, errors.New("export.csv_path is required"))
	}
	if c.Crawl.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("crawl.max_depth must be positive, got %d", c.Crawl.MaxDepth))
	}
	if c.Crawl.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("crawl.concurrency must be positive, got %d", c.Crawl.Concurrency))
	}
	if c.Crawl.LetterLimit < 0 {
		errs = append(errs, fmt.Errorf("crawl.letter_limit must not be negative, got %d", c.Crawl.LetterLimit))
	}

	switch c.Crawl.VisitedScope {
	case "global", "brand", "category":
	default:
		errs = append(errs, fmt.Errorf("crawl.visited_scope must be global, brand or category, got %q", c.Crawl.VisitedScope))
	}

	switch c.Crawl.ReturnMarkerMode {
	case "word", "substring":
	default:
		errs = append(errs, fmt.Errorf("crawl.return_marker_mode must be word or substring, got %q", c.Crawl.ReturnMarkerMode))
	}

	switch c.Crawl.VisitedBackend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("crawl.visited_backend must be memory or redis, got %q", c.Crawl.VisitedBackend))
	}

	if c.Export.GCS.Bucket != "" && c.Export.GCS.Object == "" {
		errs = append(errs, errors.New("export.gcs.object is required when a bucket is set"))
	}

	return errors.Join(errs...)
}

// Load reads configuration from an optional YAML file with environment
// variable overrides (CATALOG_CRAWL_CONCURRENCY and so on). An empty path
// looks for config.yaml in the current directory.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix("catalog")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no file or environment overrides exist
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Sprintf("config defaults do not decode: %v", err))
	}
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("site.base_url", "https://www.mediamarkt.de")
	v.SetDefault("site.brand_index_path", "/de/brand")
	v.SetDefault("site.user_agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36")
	v.SetDefault("site.timeout", 60*time.Second)
	v.SetDefault("site.max_retries", 3)
	v.SetDefault("site.politeness_delay", 500*time.Millisecond)
	v.SetDefault("site.max_requests_per_second", 2)
	v.SetDefault("site.proxies", []string{})
	v.SetDefault("site.check_proxies", true)
	v.SetDefault("site.rotate_on_block", false)

	v.SetDefault("crawl.letters", []string{})
	v.SetDefault("crawl.letter_limit", 1)
	v.SetDefault("crawl.max_depth", 32)
	v.SetDefault("crawl.concurrency", 1)
	v.SetDefault("crawl.visited_scope", "global")
	v.SetDefault("crawl.visited_backend", "memory")
	v.SetDefault("crawl.return_markers", []string{"back", "previous", "zurück", "zurueck", "vorherige"})
	v.SetDefault("crawl.return_marker_mode", "word")

	v.SetDefault("selectors.letter_anchors", `div[data-test="mms-search-glossary-anchors"] a`)
	v.SetDefault("selectors.brand_row", `div[id="glossary-row-%s"] ul li`)
	v.SetDefault("selectors.category_tile", `div[data-test="brand-category"]`)
	v.SetDefault("selectors.category_name", `p[data-test="mms-brand-category-tile-link-text"]`)
	v.SetDefault("selectors.product_card", `article[data-test="mms-product-card"]`)
	v.SetDefault("selectors.product_title", `p[data-test="product-title"]`)
	v.SetDefault("selectors.product_link", `a[data-test="mms-router-link-product-list-item-link_mp"]`)
	v.SetDefault("selectors.rating_container", `div[data-test="mms-customer-rating-container"]`)
	v.SetDefault("selectors.rating_label", `div[data-test="mms-customer-rating"]`)
	v.SetDefault("selectors.price", []string{`span.sc-e0c7d9f7-0.bPkjPs`, `[data-test="product-price"]`})
	v.SetDefault("selectors.product_image", `picture[data-test="product-image"] img`)

	v.SetDefault("export.csv_path", "/tmp/mediamarkt_products.csv")
	v.SetDefault("export.gcs.bucket", "")
	v.SetDefault("export.gcs.object", "mediamarkt_products.csv")
	v.SetDefault("export.postgres.enabled", false)
	v.SetDefault("export.postgres.table", "catalog_rows")
	v.SetDefault("export.stream.enabled", false)
	v.SetDefault("export.mongo.enabled", false)
	v.SetDefault("export.mongo.collection", "catalog_rows")
	v.SetDefault("export.sqlite.enabled", false)
	v.SetDefault("export.sqlite.path", "catalog.db")
	v.SetDefault("export.sqlite.table", "catalog_rows")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "catalog")
	v.SetDefault("database.user", "catalog_user")
	v.SetDefault("database.password", "catalog_pass")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.stream_prefix", "catalog:stream:")
	v.SetDefault("redis.key_prefix", "catalog:visited:")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "catalog")

	v.SetDefault("report.path", "")
}
