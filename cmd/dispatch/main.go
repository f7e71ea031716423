package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"googlemaps.github.io/maps"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/circuitbreaker"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/config"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/database"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/health"
	httpclient "github.com/piresc/nebengjek-dispatch/internal/pkg/http"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/logger"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/metrics"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/middleware"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	natspkg "github.com/piresc/nebengjek-dispatch/internal/pkg/nats"
	nrpkg "github.com/piresc/nebengjek-dispatch/internal/pkg/newrelic"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/server"
	"github.com/piresc/nebengjek-dispatch/services/dispatch"
	dispatchGW "github.com/piresc/nebengjek-dispatch/services/dispatch/gateway"
	"github.com/piresc/nebengjek-dispatch/services/dispatch/handler"
	dispatchUC "github.com/piresc/nebengjek-dispatch/services/dispatch/usecase"
	"github.com/piresc/nebengjek-dispatch/services/location"
	locationRepo "github.com/piresc/nebengjek-dispatch/services/location/repository"
	"github.com/piresc/nebengjek-dispatch/services/notification"
	"github.com/piresc/nebengjek-dispatch/services/presence"
	"github.com/piresc/nebengjek-dispatch/services/rides"
	ridesGW "github.com/piresc/nebengjek-dispatch/services/rides/gateway"
	ridesRepo "github.com/piresc/nebengjek-dispatch/services/rides/repository"
	ridesUC "github.com/piresc/nebengjek-dispatch/services/rides/usecase"
)

var errNATSDisconnected = errors.New("nats not connected")

func main() {
	appName := "dispatch-service"
	configPath := "config/dispatch.env"
	configs := config.InitConfig(configPath)

	// Initialize New Relic and Zap logger
	nrApp := nrpkg.InitNewRelic(configs)

	zapLogger, err := logger.InitZapLoggerFromConfig(configs, nrApp)
	if err != nil {
		log.Fatalf("Failed to create Zap logger: %v", err)
	}
	defer zapLogger.Close()
	logger.SetGlobalLogger(zapLogger)

	logger.Info("Starting application",
		logger.String("app", appName),
		logger.String("version", configs.App.Version),
		logger.String("environment", configs.App.Environment),
	)

	checkers := map[string]health.Checker{}
	var cleanup []func(context.Context) error

	// NATS carries the location stream in and lifecycle events out
	natsClient, err := natspkg.NewClient(configs.NATS.URL, appName)
	if err != nil {
		zapLogger.Fatal("Failed to connect to NATS", logger.Err(err))
	}
	checkers["nats"] = func(context.Context) error {
		if !natsClient.IsConnected() {
			return errNATSDisconnected
		}
		return nil
	}
	cleanup = append(cleanup, func(context.Context) error {
		natsClient.Close()
		return nil
	})

	// Ride store
	var rideRepo rides.RideRepo
	switch configs.Rides.Store {
	case "memory":
		rideRepo = ridesRepo.NewMemoryRepo()
	default:
		postgresClient, err := database.NewPostgresClient(configs.Database)
		if err != nil {
			zapLogger.Fatal("Failed to connect to PostgreSQL", logger.Err(err))
		}
		checkers["postgres"] = postgresClient.Ping
		cleanup = append(cleanup, func(context.Context) error { return postgresClient.Close() })
		rideRepo = ridesRepo.NewPostgresRepo(postgresClient.GetDB())
	}

	// Driver location index
	var index location.Index
	switch configs.Location.Backend {
	case "redis":
		redisClient, err := database.NewRedisClient(configs.Redis)
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", logger.Err(err))
		}
		checkers["redis"] = redisClient.Ping
		cleanup = append(cleanup, func(context.Context) error { return redisClient.Close() })
		index = locationRepo.NewRedisIndex(redisClient, configs.Location)
	default:
		index = locationRepo.NewGridIndex(configs.Location)
	}

	geocoder, quoter := newUpstreams(configs, zapLogger)

	// Core components
	registry := presence.NewRegistry()
	bus := notification.NewBus(registry, configs.Notify)
	rideUC := ridesUC.NewRideUC(rideRepo, ridesGW.NewRideGW(natsClient))
	uc := dispatchUC.NewDispatchUC(configs, rideUC, index, registry, bus, geocoder, quoter)

	h := handler.NewHandler(configs, uc, natsClient, nrApp)
	if err := h.InitNATSConsumers(); err != nil {
		zapLogger.Fatal("Failed to initialize NATS consumers", logger.Err(err))
	}

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// panic recovery first
	e.Use(middleware.PanicRecoveryWithZapMiddleware(zapLogger))
	if nrApp != nil {
		e.Use(nrecho.Middleware(nrApp))
	}
	e.Use(logger.ZapEchoMiddleware(zapLogger))

	health.RegisterHealthEndpoints(e, appName, configs.App.Version, checkers)
	h.RegisterRoutes(e)

	srv := server.NewGracefulServer(e, zapLogger, configs.Server.Host, configs.Server.Port,
		time.Duration(configs.Server.ShutdownTimeout)*time.Second)
	for _, fn := range cleanup {
		srv.OnShutdown(fn)
	}
	if nrApp != nil {
		srv.OnShutdown(func(context.Context) error {
			nrApp.Shutdown(10 * time.Second)
			return nil
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx); err != nil {
		zapLogger.Fatal("Server stopped with error", logger.Err(err))
	}
}

// newUpstreams picks the geocoder and the price source. Google Maps is used when an
// API key is configured, Nominatim otherwise; without a pricing service URL fares
// come from the local rate cards.
func newUpstreams(configs *models.Config, zapLogger *logger.ZapLogger) (dispatch.Geocoder, dispatch.PriceQuoter) {
	var geocoder dispatch.Geocoder
	if key := configs.Services.GoogleMapsAPIKey; key != "" {
		cbCfg := circuitbreaker.DefaultConfig("geocoder")
		cbCfg.OnStateChange = recordCircuitState
		g, err := dispatchGW.NewGoogleGeocoder(key, circuitbreaker.New(cbCfg, zapLogger),
			maps.WithHTTPClient(&http.Client{Timeout: configs.Upstream.Timeout}))
		if err != nil {
			zapLogger.Fatal("Failed to create Google geocoder", logger.Err(err))
		}
		geocoder = g
	} else {
		geocoder = dispatchGW.NewNominatimGeocoder(
			httpclient.NewClient("geocoder", configs.Services.GeocoderURL, configs.Upstream, zapLogger, recordCircuitState))
	}

	var quoter dispatch.PriceQuoter
	if url := configs.Services.PricingServiceURL; url != "" {
		quoter = dispatchGW.NewHTTPPriceQuoter(
			httpclient.NewClient("pricing", url, configs.Upstream, zapLogger, recordCircuitState))
	} else {
		quoter = dispatchGW.NewRateCardQuoter(configs.RateCards)
	}
	return geocoder, quoter
}

func recordCircuitState(name string, _, to circuitbreaker.State) {
	metrics.UpstreamState.WithLabelValues(name).Set(float64(to))
}
