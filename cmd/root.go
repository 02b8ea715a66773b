package cmd

import (
	"log/slog"
	"net/http"
	"os"
	"runtime"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/panjf2000/ants/v2"
	"github.com/spf13/viper"

	"stacksgw/internal/api"
	"stacksgw/internal/availability"
	"stacksgw/internal/cache"
	"stacksgw/internal/config"
	"stacksgw/internal/directions"
	"stacksgw/internal/itemstore"
	"stacksgw/internal/search"
)

// CLI represents the complete command structure for the stacksgw application
type CLI struct {
	// Cache flags
	CacheDBFile string `help:"Path to cache SQLite database file" default:"./cache.db"`

	Serve ServeCmd `cmd:"" help:"Run the catalog gateway HTTP server"`
	Cache CacheCmd `cmd:"" help:"Cache maintenance commands"`
}

// ServeCmd represents the serve command
type ServeCmd struct {
	Listen            string `help:"Address to listen on" default:":8080"`
	CatalogURL        string `help:"Catalog search origin URL"`
	HoldingsURL       string `help:"Holdings origin base URL"`
	DirectionsFeedURL string `help:"Wayfinding directions feed URL"`
	PoolSize          int    `help:"Worker pool size for enrichment and cache population (0 = NumCPU)"`
}

// CacheCmd represents the cache maintenance command and its subcommands
type CacheCmd struct {
	Invalidate cache.InvalidateCacheCmd `cmd:"" help:"Clear one cache table"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging()
	initConfig()

	// Create CLI instance
	var cli CLI

	// Parse command line with Kong
	ctx := kong.Parse(&cli,
		kong.Name("stacksgw"),
		kong.Description("A gateway fronting the university library's catalog search engine."),
		kong.UsageOnError(),
	)

	// Update global config based on parsed flags
	updateGlobalConfig(&cli)

	// Execute the selected command
	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("catalog.url", "http://search.lib.virginia.edu/catalog.json")
	viper.SetDefault("holdings.url", "http://search.lib.virginia.edu/catalog")
	viper.SetDefault("directions.feedurl", "")
	viper.SetDefault("listen", ":8080")

	// Enable environment variable support
	viper.AutomaticEnv()
	if err := viper.BindEnv("directions.feedurl", "DIRECTIONS_FEED_URL"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Debug("Config file not found, using defaults")
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	// Initialize global config
	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	viper.Set("cache.dbfile", cli.CacheDBFile)
}

func initLogging() {
	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: slog.LevelInfo,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}

// Run starts the gateway HTTP server.
func (s *ServeCmd) Run() error {
	listen := s.Listen
	if listen == "" {
		listen = config.ListenAddr
	}
	catalogURL := s.CatalogURL
	if catalogURL == "" {
		catalogURL = config.CatalogURL
	}
	holdingsURL := s.HoldingsURL
	if holdingsURL == "" {
		holdingsURL = config.HoldingsURL
	}
	feedURL := s.DirectionsFeedURL
	if feedURL == "" {
		feedURL = config.DirectionsFeedURL
	}

	poolSize := s.PoolSize
	if poolSize <= 0 {
		poolSize = runtime.NumCPU()
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return err
	}
	defer pool.Release()

	searchClient := search.NewClient(search.WithBaseURL(catalogURL))
	store := itemstore.NewStore(pool)
	resolver := directions.NewResolver(feedURL)
	enricher := availability.NewEnricher(resolver, pool, availability.WithBaseURL(holdingsURL))

	server := api.NewServer(searchClient, store, enricher)

	slog.Info("Catalog gateway listening", "addr", listen)
	return http.ListenAndServe(listen, server.Routes())
}
