package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	"github.com/spf13/viper"
)

// InitConfig loads the .env file at configPath when running locally, then reads
// every setting from the environment.
func InitConfig(configPath string) *models.Config {
	v := newViper()
	if v.GetString("APP_ENV") == "local" {
		if err := godotenv.Load(configPath); err != nil {
			log.Println("error loading config from file", err)
		}
	}
	return load(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "nebengjek-dispatch")
	v.SetDefault("APP_ENV", "local")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("APP_VERSION", "dev")

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 9994)
	v.SetDefault("SERVER_READ_TIMEOUT", 10)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 10)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 15)

	v.SetDefault("DB_DRIVER", "pgx")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_POOL_SIZE", 10)

	v.SetDefault("NATS_URL", "nats://localhost:4222")

	v.SetDefault("JWT_EXPIRATION", 60)
	v.SetDefault("JWT_ISSUER", "nebengjek")

	v.SetDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org")

	v.SetDefault("MATCH_SEARCH_RADIUS_KM", 5.0)
	v.SetDefault("MATCH_MAX_FANOUT", 20)
	v.SetDefault("MATCH_RADIUS_STEPS", 1)
	v.SetDefault("MATCH_RADIUS_GROWTH", 2.0)
	v.SetDefault("MATCH_OFFER_TTL", "15m")

	v.SetDefault("LOCATION_BACKEND", "memory")
	v.SetDefault("LOCATION_STALE_TTL", "60s")
	v.SetDefault("LOCATION_GEOHASH_PRECISION", 6)

	v.SetDefault("RIDES_STORE", "postgres")

	v.SetDefault("NOTIFY_MAX_PARALLEL", 16)
	v.SetDefault("NOTIFY_WRITE_TIMEOUT", "5s")

	v.SetDefault("UPSTREAM_TIMEOUT", "5s")
	v.SetDefault("UPSTREAM_MAX_RETRIES", 2)
	v.SetDefault("UPSTREAM_FAILURE_THRESHOLD", 5)
	v.SetDefault("UPSTREAM_OPEN_TIMEOUT", "30s")

	v.SetDefault("NEW_RELIC_ENABLED", false)
	v.SetDefault("NEW_RELIC_FORWARD_LOGS", false)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE_PATH", "logs/dispatch.log")
	v.SetDefault("LOG_TYPE", "console")

	// Fare table: base fare, per km and per minute, by vehicle class.
	v.SetDefault("FARE_AUTO_BASE", 30.0)
	v.SetDefault("FARE_AUTO_PER_KM", 10.0)
	v.SetDefault("FARE_AUTO_PER_MINUTE", 2.0)
	v.SetDefault("FARE_CAR_BASE", 50.0)
	v.SetDefault("FARE_CAR_PER_KM", 15.0)
	v.SetDefault("FARE_CAR_PER_MINUTE", 3.0)
	v.SetDefault("FARE_MOTO_BASE", 20.0)
	v.SetDefault("FARE_MOTO_PER_KM", 8.0)
	v.SetDefault("FARE_MOTO_PER_MINUTE", 1.5)
	v.SetDefault("FARE_AVERAGE_SPEED_KMH", 30.0)
}

func load(v *viper.Viper) *models.Config {
	configs := &models.Config{}

	configs.App.Name = v.GetString("APP_NAME")
	configs.App.Environment = v.GetString("APP_ENV")
	configs.App.Debug = v.GetBool("APP_DEBUG")
	configs.App.Version = v.GetString("APP_VERSION")

	configs.Server.Host = v.GetString("SERVER_HOST")
	configs.Server.Port = v.GetInt("SERVER_PORT")
	configs.Server.ReadTimeout = v.GetInt("SERVER_READ_TIMEOUT")
	configs.Server.WriteTimeout = v.GetInt("SERVER_WRITE_TIMEOUT")
	configs.Server.ShutdownTimeout = v.GetInt("SERVER_SHUTDOWN_TIMEOUT")

	configs.Database.Driver = v.GetString("DB_DRIVER")
	configs.Database.Host = v.GetString("DB_HOST")
	configs.Database.Port = v.GetInt("DB_PORT")
	configs.Database.Username = v.GetString("DB_USERNAME")
	configs.Database.Password = v.GetString("DB_PASSWORD")
	configs.Database.Database = v.GetString("DB_DATABASE")
	configs.Database.SSLMode = v.GetString("DB_SSL_MODE")
	configs.Database.MaxConns = v.GetInt("DB_MAX_CONNS")
	configs.Database.IdleConns = v.GetInt("DB_IDLE_CONNS")

	configs.Redis.Host = v.GetString("REDIS_HOST")
	configs.Redis.Port = v.GetInt("REDIS_PORT")
	configs.Redis.Password = v.GetString("REDIS_PASSWORD")
	configs.Redis.DB = v.GetInt("REDIS_DB")
	configs.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")

	configs.NATS.URL = v.GetString("NATS_URL")

	configs.JWT.Secret = v.GetString("JWT_SECRET")
	configs.JWT.Expiration = v.GetInt("JWT_EXPIRATION")
	configs.JWT.Issuer = v.GetString("JWT_ISSUER")

	configs.Services.PricingServiceURL = v.GetString("PRICING_SERVICE_URL")
	configs.Services.GeocoderURL = v.GetString("GEOCODER_URL")
	configs.Services.GoogleMapsAPIKey = v.GetString("GOOGLE_MAPS_API_KEY")

	configs.Match.SearchRadiusKm = v.GetFloat64("MATCH_SEARCH_RADIUS_KM")
	configs.Match.MaxFanout = v.GetInt("MATCH_MAX_FANOUT")
	configs.Match.RadiusSteps = v.GetInt("MATCH_RADIUS_STEPS")
	configs.Match.RadiusGrowth = v.GetFloat64("MATCH_RADIUS_GROWTH")
	configs.Match.OfferTTL = getDuration(v, "MATCH_OFFER_TTL", 15*time.Minute)

	configs.Location.Backend = v.GetString("LOCATION_BACKEND")
	configs.Location.StaleTTL = getDuration(v, "LOCATION_STALE_TTL", time.Minute)
	configs.Location.Precision = v.GetUint("LOCATION_GEOHASH_PRECISION")

	configs.Rides.Store = v.GetString("RIDES_STORE")

	configs.Notify.MaxParallel = v.GetInt("NOTIFY_MAX_PARALLEL")
	configs.Notify.WriteTimeout = getDuration(v, "NOTIFY_WRITE_TIMEOUT", 5*time.Second)

	configs.Upstream.Timeout = getDuration(v, "UPSTREAM_TIMEOUT", 5*time.Second)
	configs.Upstream.MaxRetries = v.GetInt("UPSTREAM_MAX_RETRIES")
	configs.Upstream.FailureThreshold = v.GetUint32("UPSTREAM_FAILURE_THRESHOLD")
	configs.Upstream.OpenTimeout = getDuration(v, "UPSTREAM_OPEN_TIMEOUT", 30*time.Second)

	configs.NewRelic.LicenseKey = v.GetString("NEW_RELIC_LICENSE_KEY")
	configs.NewRelic.AppName = v.GetString("NEW_RELIC_APP_NAME")
	configs.NewRelic.Enabled = v.GetBool("NEW_RELIC_ENABLED")
	configs.NewRelic.ForwardLogs = v.GetBool("NEW_RELIC_FORWARD_LOGS")

	configs.Logger.Level = v.GetString("LOG_LEVEL")
	configs.Logger.FilePath = v.GetString("LOG_FILE_PATH")
	configs.Logger.Type = v.GetString("LOG_TYPE")

	speed := v.GetFloat64("FARE_AVERAGE_SPEED_KMH")
	configs.RateCards = make(map[models.VehicleClass]models.RateCard, len(models.VehicleClasses))
	for _, class := range models.VehicleClasses {
		prefix := "FARE_" + strings.ToUpper(string(class))
		configs.RateCards[class] = models.RateCard{
			Base:        v.GetFloat64(prefix + "_BASE"),
			PerKm:       v.GetFloat64(prefix + "_PER_KM"),
			PerMinute:   v.GetFloat64(prefix + "_PER_MINUTE"),
			AvgSpeedKmh: speed,
		}
	}

	return configs
}

// getDuration accepts Go duration strings and bare integers as seconds
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := v.GetString(key)
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs := v.GetInt(key); secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Warning: Invalid duration value for %s, using default: %s", key, def)
	return def
}
