package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"
	"github.com/phbpx/haojia/auth"
	"github.com/phbpx/haojia/dashboard"
	"github.com/phbpx/haojia/handler"
	"github.com/phbpx/haojia/mail"
	"github.com/phbpx/haojia/notify"
	"github.com/phbpx/haojia/pkg/database"
	"github.com/phbpx/haojia/postgres"
	"github.com/phbpx/haojia/submission"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {

	log, err := newLog("haojia-api")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run("haojia-api", log); err != nil {
		log.Errorw("startup", "err", err)
		os.Exit(1)
	}
}

func run(serverName string, log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg := struct {
		Http struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:30s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			Host            string        `conf:"default:0.0.0.0:3000"`
			SecureCookie    bool          `conf:"default:false"`
		}
		DB struct {
			User         string `conf:"default:haojia"`
			Password     string `conf:"default:haojia,mask"`
			Host         string `conf:"default:localhost"`
			Name         string `conf:"default:haojia"`
			MaxIdleConns int    `conf:"default:0"`
			MaxOpenConns int    `conf:"default:0"`
			DisableTLS   bool   `conf:"default:true"`

			ConnMaxLifetime time.Duration `conf:"default:30m"`
		}
		Redis struct {
			Addr     string `conf:"default:localhost:6379"`
			Password string `conf:"mask"`
			DB       int    `conf:"default:0"`
		}
		Auth struct {
			JWTSecret  string        `conf:"required,mask"`
			SessionTTL time.Duration `conf:"default:12h"`
			Issuer     string        `conf:"default:haojia"`
		}
		Jaeger struct {
			ReporterURI string  `conf:"default:http://localhost:14268/api/traces"`
			ServiceName string  `conf:"default:haojia-api"`
			Probability float64 `conf:"default:0.5"`
		}
		Mail struct {
			Host        string        `conf:"default:smtp.qq.com"`
			Port        int           `conf:"default:465"`
			ImplicitTLS bool          `conf:"default:true"`
			Timeout     time.Duration `conf:"default:30s"`
			FromName    string        `conf:"default:好家改造官网"`
			User        string
			Password    string `conf:"mask"`
			Recipient   string
		}
		Notify struct {
			RelayURL string
			Timezone string        `conf:"default:Asia/Shanghai"`
			Timeout  time.Duration `conf:"default:0s"`
		}
	}{}

	help, err := conf.Parse("LEAD", &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// The relay account keeps the variable names it has always been deployed with.
	for name, dst := range map[string]*string{
		"SMTP_USER":     &cfg.Mail.User,
		"SMTP_PASS":     &cfg.Mail.Password,
		"RECEIVE_EMAIL": &cfg.Mail.Recipient,
	} {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}

	loc, err := time.LoadLocation(cfg.Notify.Timezone)
	if err != nil {
		return fmt.Errorf("loading timezone: %w", err)
	}

	// =========================================================================
	// Database Support

	// Create connectivity to the database.
	log.Infow("startup", "status", "initializing database support", "host", cfg.DB.Host)

	db, err := database.Open(database.Config{
		User:            cfg.DB.User,
		Password:        cfg.DB.Password,
		Host:            cfg.DB.Host,
		Name:            cfg.DB.Name,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		DisableTLS:      cfg.DB.DisableTLS,
	})
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer func() {
		log.Infow("shutdown", "status", "stopping database support", "host", cfg.DB.Host)
		db.Close()
	}()

	// =========================================================================
	// Update database schema

	log.Infow("startup", "status", "updating database schema", "database", cfg.DB.Name, "host", cfg.DB.Host)

	migrateCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := postgres.Migrate(migrateCtx, db); err != nil {
		return fmt.Errorf("updating database schema: %w", err)
	}

	// =========================================================================
	// Redis Support

	log.Infow("startup", "status", "initializing redis support", "addr", cfg.Redis.Addr)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		log.Infow("shutdown", "status", "stopping redis support", "addr", cfg.Redis.Addr)
		rdb.Close()
	}()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}

	// =========================================================================
	// Start Tracing Support

	log.Infow("startup", "status", "initializing OT/Jaeger tracing support")

	traceProvider, err := startTracing(
		cfg.Jaeger.ServiceName,
		cfg.Jaeger.ReporterURI,
		cfg.Jaeger.Probability,
	)
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	defer traceProvider.Shutdown(context.Background())

	// =========================================================================
	// Create router

	log.Infow("startup", "status", "initializing router")

	otelLog := otelzap.New(log.Desugar(), otelzap.WithStackTrace(true)).Sugar()

	mailRelay := mail.NewRelay(
		mail.Config{
			User:      cfg.Mail.User,
			Password:  cfg.Mail.Password,
			Recipient: cfg.Mail.Recipient,
			FromName:  cfg.Mail.FromName,
		},
		mail.NewSMTP(mail.SMTPConfig{
			Host:        cfg.Mail.Host,
			Port:        cfg.Mail.Port,
			ImplicitTLS: cfg.Mail.ImplicitTLS,
			Timeout:     cfg.Mail.Timeout,
		}),
		otelLog,
	)

	var relay notify.Relay = mailRelay
	if cfg.Notify.RelayURL != "" {
		log.Infow("startup", "status", "using remote relay", "url", cfg.Notify.RelayURL)
		relay = notify.NewHTTPRelay(cfg.Notify.RelayURL, cfg.Notify.Timeout)
	}

	partnerService := postgres.NewPartnerApplicationService(db)
	consultationService := postgres.NewConsultationService(db)
	operatorService := postgres.NewOperatorService(db)

	authenticator := auth.New(
		auth.Config{
			Secret: cfg.Auth.JWTSecret,
			TTL:    cfg.Auth.SessionTTL,
			Issuer: cfg.Auth.Issuer,
		},
		operatorService,
		auth.NewRedisRevoker(rdb),
	)

	r := handler.NewRouter(handler.Config{
		ServiceName:  serverName,
		Log:          otelLog,
		Ready:        func(ctx context.Context) error { return database.StatusCheck(ctx, db) },
		Auth:         authenticator,
		Viewer:       dashboard.NewViewer(partnerService, consultationService, dashboard.NewRedisSnapshots(rdb), otelLog),
		Relay:        mailRelay,
		Partner:      submission.Partner(partnerService, notify.NewPartner(relay, loc), otelLog),
		Consultation: submission.Consultation(consultationService, otelLog),
		Location:     loc,
		SecureCookie: cfg.Http.SecureCookie,
	})

	// =========================================================================
	// Start API Server

	log.Infow("startup", "status", "initializing http server")

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// The HTTP Server
	server := &http.Server{
		Addr:         cfg.Http.Host,
		Handler:      r,
		ReadTimeout:  cfg.Http.ReadTimeout,
		WriteTimeout: cfg.Http.WriteTimeout,
		IdleTimeout:  cfg.Http.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Infow("startup", "status", "api router started", "host", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Http.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			server.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

func newLog(serviceName string) (*zap.SugaredLogger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	config.InitialFields = map[string]interface{}{
		"service": serviceName,
	}

	log, err := config.Build()
	if err != nil {
		return nil, err
	}

	return log.Sugar(), nil
}

func startTracing(serviceName, reporterURL string, probability float64) (*tracesdk.TracerProvider, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(reporterURL)))
	if err != nil {
		return nil, fmt.Errorf("creating new exporter: %w", err)
	}

	tp := tracesdk.NewTracerProvider(
		tracesdk.WithSampler(tracesdk.ParentBased(tracesdk.TraceIDRatioBased(probability))),
		// Always be sure to batch in production.
		tracesdk.WithBatcher(exp,
			tracesdk.WithMaxExportBatchSize(tracesdk.DefaultMaxExportBatchSize),
			tracesdk.WithBatchTimeout(tracesdk.DefaultScheduleDelay*time.Millisecond),
		),
		// Record information about this application in a Resource.
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("exporter", "jaeger"),
		)),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}
