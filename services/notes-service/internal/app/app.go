package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/config"
	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/handler"
	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/repository"
	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/usecase"
	"github.com/vasapolrittideah/notes-api/shared/auth"
	"github.com/vasapolrittideah/notes-api/shared/discovery"
	"github.com/vasapolrittideah/notes-api/shared/mailer"
	"github.com/vasapolrittideah/notes-api/shared/middleware"
	"github.com/vasapolrittideah/notes-api/shared/provider"
	"github.com/vasapolrittideah/notes-api/shared/security"
	"github.com/vasapolrittideah/notes-api/shared/telemetry"
	"github.com/vasapolrittideah/notes-api/shared/utilities"
	"github.com/vasapolrittideah/notes-api/shared/validation"
)

const (
	mongoConnectTimeout = 10 * time.Second
	readHeaderTimeout   = 5 * time.Second
)

// App is the notes service process.
type App struct {
	cfg    *config.Config
	logger *zerolog.Logger
}

func New(cfg *config.Config, logger *zerolog.Logger) *App {
	return &App{cfg: cfg, logger: logger}
}

// Run serves the HTTP API and the gRPC health endpoint until ctx is cancelled,
// then shuts both down within the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	serviceName := a.cfg.Consul.ServiceName

	shutdownTracing, err := telemetry.Setup(ctx, a.cfg.OTel, serviceName)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer a.shutdown("tracing", shutdownTracing)

	client, err := a.connectMongo(ctx)
	if err != nil {
		return err
	}
	defer a.shutdown("mongo client", client.Disconnect)

	router, err := a.newRouter(ctx, client)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port)),
		Handler:           otelhttp.NewHandler(router, serviceName),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	grpcServer := grpc.NewServer()
	healthServer := utilities.RegisterHealthServer(grpcServer, serviceName)

	grpcListener, deregister, err := a.listenHealthGRPC()
	if err != nil {
		return err
	}
	defer deregister()
	grpcAddr := grpcListener.Addr().String()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("addr", httpServer.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.logger.Info().Str("addr", grpcAddr).Msg("grpc health server listening")
		if err := grpcServer.Serve(grpcListener); err != nil {
			return fmt.Errorf("grpc health server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutting down")

		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()

		return err
	})

	return g.Wait()
}

func (a *App) connectMongo(ctx context.Context) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(a.cfg.Mongo.URI).
		SetServerSelectionTimeout(mongoConnectTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to connect to mongo at %s: %w", a.cfg.Mongo.RedactedURI(), err)
	}

	a.logger.Info().Str("uri", a.cfg.Mongo.RedactedURI()).Str("database", a.cfg.Mongo.Database).Msg("connected to mongo")

	return client, nil
}

func (a *App) newRouter(ctx context.Context, client *mongo.Client) (http.Handler, error) {
	db := client.Database(a.cfg.Mongo.Database)

	userRepo := repository.NewUserMongoRepository(ctx, a.logger, db)
	identityRepo := repository.NewIdentityMongoRepository(ctx, a.logger, db)
	resetTokenRepo := repository.NewPasswordResetTokenMongoRepository(ctx, a.logger, db)
	noteRepo := repository.NewNoteMongoRepository(ctx, a.logger, db)

	smtpMailer, err := mailer.NewMailer(a.cfg.SMTP)
	if err != nil {
		return nil, err
	}

	validator, err := validation.New()
	if err != nil {
		return nil, err
	}

	jwtAuth := auth.NewJWTAuthenticator(auth.JWTConfig{
		Secret: a.cfg.Token.Secret,
		Issuer: a.cfg.Token.Issuer,
	})

	var google usecase.GoogleTokenVerifier
	if a.cfg.Google.ClientID != "" {
		google = provider.NewGoogleOAuthProvider(a.cfg.Google.ClientID)
	}

	hasher := security.NewArgon2Hasher()

	credentialUsecase := usecase.NewCredentialUsecase(userRepo, hasher, validator, a.logger)
	otpUsecase := usecase.NewOTPUsecase(userRepo, smtpMailer, usecase.OTPConfig{
		ExpiresIn:   a.cfg.OTP.ExpiresIn,
		MaxAttempts: a.cfg.OTP.MaxAttempts,
	}, a.logger)
	authUsecase := usecase.NewAuthUsecase(
		credentialUsecase,
		otpUsecase,
		userRepo,
		identityRepo,
		jwtAuth,
		google,
		usecase.SessionConfig{
			ExpiresIn:     a.cfg.Token.SessionExpiresIn,
			LongExpiresIn: a.cfg.Token.LongSessionExpiresIn,
		},
		a.logger,
	)
	passwordResetUsecase := usecase.NewPasswordResetUsecase(
		userRepo,
		resetTokenRepo,
		hasher,
		smtpMailer,
		usecase.PasswordResetConfig{
			ExpiresIn: a.cfg.PasswordReset.ExpiresIn,
			ResetURL:  a.cfg.PasswordReset.URL,
		},
		a.logger,
	)

	healthCheck := func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}

	return handler.NewRouter(handler.RouterParams{
		AuthUsecase:          authUsecase,
		PasswordResetUsecase: passwordResetUsecase,
		NoteUsecase:          usecase.NewNoteUsecase(noteRepo),
		AuthGateway:          middleware.NewAuthGateway(jwtAuth, a.logger),
		Validator:            validator,
		HealthCheck:          healthCheck,
		AllowedOrigins:       a.cfg.CORSAllowedOrigins,
		Logger:               a.logger,
	}), nil
}

// listenHealthGRPC opens the gRPC health listener and registers the service
// with Consul when enabled. The listener is closed if registration fails.
func (a *App) listenHealthGRPC() (net.Listener, func(), error) {
	grpcAddr := net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.HealthGRPCPort))
	listener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen on %s: %w", grpcAddr, err)
	}

	if !a.cfg.Consul.Enabled() {
		return listener, func() {}, nil
	}

	deregister, err := a.registerService()
	if err != nil {
		_ = listener.Close()
		return nil, nil, err
	}

	return listener, deregister, nil
}

func (a *App) registerService() (func(), error) {
	registrar, err := discovery.NewServiceRegistrar(a.cfg.Consul)
	if err != nil {
		return nil, err
	}

	serviceID, err := registrar.Register(a.cfg.Server.Port, a.cfg.Server.HealthGRPCPort, handler.HealthPath)
	if err != nil {
		return nil, err
	}

	a.logger.Info().Str("service_id", serviceID).Msg("registered with consul")

	return func() {
		if err := registrar.Deregister(serviceID); err != nil {
			a.logger.Error().Err(err).Msg("failed to deregister from consul")
		}
	}, nil
}

func (a *App) shutdown(name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		a.logger.Error().Err(err).Str("component", name).Msg("failed to shut down")
	}
}
