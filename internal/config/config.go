package config

import (
	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// CatalogURL is the search origin endpoint
	CatalogURL string
	// HoldingsURL is the per-item availability origin base URL
	HoldingsURL string
	// DirectionsFeedURL is the external wayfinding rules feed
	DirectionsFeedURL string
	// ListenAddr is the HTTP listen address for the gateway
	ListenAddr string
)

// InitConfig initializes the global configuration
func InitConfig() {
	// Set default values
	viper.SetDefault("catalog.url", "http://search.lib.virginia.edu/catalog.json")
	viper.SetDefault("holdings.url", "http://search.lib.virginia.edu/catalog")
	viper.SetDefault("directions.feedurl", "")
	viper.SetDefault("listen", ":8080")

	// Get values from viper
	CatalogURL = viper.GetString("catalog.url")
	HoldingsURL = viper.GetString("holdings.url")
	DirectionsFeedURL = viper.GetString("directions.feedurl")
	ListenAddr = viper.GetString("listen")
}
