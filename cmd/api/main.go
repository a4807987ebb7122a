package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"polaris/internal/auth"
	"polaris/internal/authority"
	"polaris/internal/db"
	"polaris/internal/mailer"
	"polaris/internal/ratelimiter"
	"polaris/internal/store"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	defaultRequests := 200
	defaultEnabled := false

	requestsPerTimeFrame := defaultRequests
	if val, exists := os.LookupEnv("RATELIMITER_REQUESTS_COUNT"); exists {
		if parsedVal, err := strconv.Atoi(val); err == nil {
			requestsPerTimeFrame = parsedVal
		} else {
			log.Println("Invalid RATELIMITER_REQUESTS_COUNT, defaulting to", defaultRequests)
		}
	}

	enabled := defaultEnabled
	if val, exists := os.LookupEnv("RATE_LIMITER_ENABLED"); exists {
		if parsedVal, err := strconv.ParseBool(val); err == nil {
			enabled = parsedVal
		} else {
			log.Println("Invalid RATE_LIMITER_ENABLED, defaulting to", defaultEnabled)
		}
	}

	return ratelimiter.Config{
		RequestsPerTimeFrame: requestsPerTimeFrame,
		TimeFrame:            5 * time.Second,
		Enabled:              enabled,
	}
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	level := zapcore.InfoLevel

	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)

	return zap.New(core).Sugar(), nil
}

var version = "1.0.0"

//	@title			Polaris API
//	@description	API for Polaris, a project-competition platform.

//	@contact.name	API Support
//	@contact.email	support@polaris.dev

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Fatalf("Error loading .env file: %v", err)
	}

	maxConnsStr := os.Getenv("DB_MAX_CONNS")
	maxConns, err := strconv.Atoi(maxConnsStr)
	if err != nil {
		log.Fatalf("Invalid value for DB_MAX_CONNS: %v", err)
	}

	smtpPortStr := os.Getenv("SMTP_PORT")
	smtpPort, err := strconv.Atoi(smtpPortStr)
	if err != nil {
		log.Fatalf("Invalid value for SMTP_PORT: %v", err)
	}

	permissionCacheTTL := 30 * time.Second
	if val, exists := os.LookupEnv("PERMISSION_CACHE_TTL"); exists {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			log.Fatalf("Invalid value for PERMISSION_CACHE_TTL: %v", err)
		}
		permissionCacheTTL = parsed
	}

	cfg := config{
		addr:        os.Getenv("ADDR"),
		env:         os.Getenv("ENV"),
		frontendURL: os.Getenv("FRONTEND_URL"),
		apiURL:      os.Getenv("EXTERNAL_URL"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxConns:    maxConns,
			maxIdleTime: os.Getenv("DB_MAX_IDLE_TIME"),
		},
		mail: mailConfig{
			fromEmail: os.Getenv("SMTP_FROM_EMAIL"),
			smtp: smtpConfig{
				host:     os.Getenv("SMTP_HOST"),
				port:     smtpPort,
				username: os.Getenv("SMTP_USERNAME"),
				password: os.Getenv("SMTP_PASSWORD"),
			},
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
			token: tokenConfig{
				secret:          os.Getenv("AUTH_TOKEN_SECRET"),
				refreshSecret:   os.Getenv("AUTH_TOKEN_REFRESH_SECRET"),
				accessTokenExp:  time.Hour * 24, // 1 day
				refreshTokenExp: time.Hour * 24 * 7,
				iss:             "Polaris",
			},
		},
		rateLimiter:        LoadRateLimiterConfig(),
		permissionCacheTTL: permissionCacheTTL,
	}

	// Logger
	logger, err := NewLogger()
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	// Database
	pool, err := db.New(context.Background(), cfg.db.addr, int32(cfg.db.maxConns), cfg.db.maxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	storage := store.NewStorage(pool)

	// Authority resolver, with role permissions cached for a short TTL. The
	// TTL bounds how long a revoked permission keeps working.
	resolver := authority.NewResolver(
		authority.NewCachedPermissionSource(storage.Roles, cfg.permissionCacheTTL),
		authority.EntitySources{
			Projects: storage.Projects,
			Events:   storage.Events,
			Reviews:  storage.Reviews,
			Profiles: storage.Profiles,
		},
	)

	// Cloudinary reads CLOUDINARY_URL from the environment.
	cld, err := cloudinary.New()
	if err != nil {
		logger.Fatalw("failed to initialize cloudinary", "error", err)
	}

	mailClient := mailer.NewSMTP(
		cfg.mail.smtp.host,
		cfg.mail.smtp.port,
		cfg.mail.smtp.username,
		cfg.mail.smtp.password,
		cfg.mail.fromEmail,
	)

	authenticator := auth.NewJWTAuthenticator(
		cfg.auth.token.secret,
		cfg.auth.token.refreshSecret,
		cfg.auth.token.iss,
		cfg.auth.token.iss,
		cfg.auth.token.accessTokenExp,
		cfg.auth.token.refreshTokenExp,
	)

	app := &application{
		config:        cfg,
		store:         storage,
		authority:     resolver,
		logger:        logger,
		cld:           cld,
		mailer:        mailClient,
		authenticator: authenticator,
		rateLimiter:   ratelimiter.NewFixedWindowLimiter(cfg.rateLimiter.RequestsPerTimeFrame, cfg.rateLimiter.TimeFrame),
	}

	mux := app.mount()
	logger.Fatal(app.run(mux))
}
