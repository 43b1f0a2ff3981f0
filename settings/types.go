package settings

import (
	"nodesync/logger"
)

type (
	Config struct {
		Backend Backend       `toml:"backend" validate:"required"`
		Sync    Sync          `toml:"sync"`
		Booru   Booru         `toml:"booru"`
		Cache   Cache         `toml:"cache"`
		Logging logger.Config `toml:"logging" validate:"required"`
	}

	// Backend points at the node-graph server that exposes the option
	// endpoints (character data, directory listings, lora keywords, booru
	// proxy).
	Backend struct {
		Url  string `toml:"url" validate:"required,url"`
		Port int    `toml:"port" validate:"gte=0"`
	}

	// Sync holds the refresh tuning knobs. Zero values are replaced with
	// the defaults below when the config is loaded.
	Sync struct {
		ListingDebounceMs int `toml:"listingDebounceMs" validate:"gte=0"`
		SearchDebounceMs  int `toml:"searchDebounceMs" validate:"gte=0"`
		FetchTimeoutSec   int `toml:"fetchTimeoutSec" validate:"gte=0"`
	}

	Booru struct {
		Websites       []string `toml:"websites"`
		DefaultWebsite string   `toml:"defaultWebsite"`
	}

	Cache struct {
		Path            string `toml:"path"`
		CharacterTTLHrs int    `toml:"characterTtlHours" validate:"gte=0"`
		KeywordTTLHrs   int    `toml:"keywordTtlHours" validate:"gte=0"`
	}
)

const (
	DefaultListingDebounceMs = 250
	DefaultSearchDebounceMs  = 500
	DefaultFetchTimeoutSec   = 25
	DefaultCachePath         = "nodesync.db"
)

func (s Sync) ListingDebounce() int {
	if s.ListingDebounceMs <= 0 {
		return DefaultListingDebounceMs
	}
	return s.ListingDebounceMs
}

func (s Sync) SearchDebounce() int {
	if s.SearchDebounceMs <= 0 {
		return DefaultSearchDebounceMs
	}
	return s.SearchDebounceMs
}

func (s Sync) FetchTimeout() int {
	if s.FetchTimeoutSec <= 0 {
		return DefaultFetchTimeoutSec
	}
	return s.FetchTimeoutSec
}
