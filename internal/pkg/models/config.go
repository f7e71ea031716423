package models

import "time"

// Config represents application configuration
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NATS      NATSConfig
	JWT       JWTConfig
	Services  ServicesConfig
	Match     MatchConfig
	Location  LocationConfig
	Rides     RidesConfig
	Notify    NotifyConfig
	Upstream  UpstreamConfig
	NewRelic  NewRelicConfig
	Logger    LoggerConfig
	RateCards map[VehicleClass]RateCard
}

// AppConfig contains application-specific configuration
type AppConfig struct {
	Name        string
	Environment string
	Debug       bool
	Version     string
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Driver    string
	Host      string
	Port      int
	Username  string
	Password  string
	Database  string
	SSLMode   string
	MaxConns  int
	IdleConns int
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// NATSConfig contains NATS connection configuration
type NATSConfig struct {
	URL string
}

// JWTConfig contains JWT authentication configuration
type JWTConfig struct {
	Secret     string
	Expiration int // in minutes
	Issuer     string
}

// ServicesConfig contains URLs for collaborating services
type ServicesConfig struct {
	PricingServiceURL string
	GeocoderURL       string
	GoogleMapsAPIKey  string
}

// MatchConfig contains dispatch matching configuration
type MatchConfig struct {
	SearchRadiusKm float64       `json:"search_radius_km"`
	MaxFanout      int           `json:"max_fanout"`
	RadiusSteps    int           `json:"radius_steps"`  // 1 disables radius expansion
	RadiusGrowth   float64       `json:"radius_growth"` // multiplier applied per step
	OfferTTL       time.Duration `json:"offer_ttl"`     // offer sets of unanswered rides are dropped after this
}

// LocationConfig contains geospatial index configuration
type LocationConfig struct {
	Backend   string        // "memory" or "redis"
	StaleTTL  time.Duration // reports older than this are not matched
	Precision uint          // geohash precision of the grid buckets
}

// RidesConfig contains ride store configuration
type RidesConfig struct {
	Store string // "postgres" or "memory"
}

// NotifyConfig contains notification bus configuration
type NotifyConfig struct {
	MaxParallel  int
	WriteTimeout time.Duration
}

// UpstreamConfig tunes retries and circuit breaking for collaborator calls
type UpstreamConfig struct {
	Timeout          time.Duration
	MaxRetries       int
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// NewRelicConfig contains New Relic configuration
type NewRelicConfig struct {
	LicenseKey  string
	AppName     string
	Enabled     bool
	ForwardLogs bool
}

// LoggerConfig contains logger configuration
type LoggerConfig struct {
	Level    string
	FilePath string
	Type     string
}
