package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/packlane/authd/internal/cache"
	"github.com/packlane/authd/internal/config"
	oauthctrl "github.com/packlane/authd/internal/http/controllers/oauth"
	oidcctrl "github.com/packlane/authd/internal/http/controllers/oidc"
	"github.com/packlane/authd/internal/http/middlewares"
	"github.com/packlane/authd/internal/http/router"
	oauthsvc "github.com/packlane/authd/internal/http/services/oauth"
	oidcsvc "github.com/packlane/authd/internal/http/services/oidc"
	jwtx "github.com/packlane/authd/internal/jwt"
	"github.com/packlane/authd/internal/metrics"
	"github.com/packlane/authd/internal/observability/logger"
	"github.com/packlane/authd/internal/rate"
	"github.com/packlane/authd/internal/security/secrethash"
	tokens "github.com/packlane/authd/internal/security/token"
	"github.com/packlane/authd/internal/store"
	migrations "github.com/packlane/authd/migrations/postgres"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:           "authd",
		Short:         "OAuth2/OIDC authorization server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.example.yaml", "path to YAML config")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return migrate(cmd.Context(), cfg)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "authd:", err)
		os.Exit(1)
	}
}

func migrate(ctx context.Context, cfg *config.Config) error {
	if cfg.Storage.Driver != "postgres" {
		return errors.New("migrate requires the postgres storage driver")
	}
	pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	n, err := migrations.Apply(ctx, pool)
	if err != nil {
		return err
	}
	fmt.Printf("applied %d migration(s)\n", n)
	return nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       "info",
		ServiceName: "authd",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	st, err := store.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close()

	cc, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Driver,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Prefix,
	})
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer cc.Close()

	key, err := signingKey(cfg, log)
	if err != nil {
		return err
	}
	signer := jwtx.NewIssuer(cfg.Issuer, key)
	codec := tokens.NewCodec([]byte(cfg.Security.TokenHMACSecret))

	auth := &oauthsvc.ClientAuthenticator{Clients: st.Clients()}
	resolver := &oauthsvc.PrincipalResolver{Accounts: st.Accounts()}
	issuer := oauthsvc.NewIssuer(oauthsvc.IssuerDeps{
		Codec:      codec,
		Tokens:     st.Tokens(),
		Accounts:   st.Accounts(),
		Signer:     signer,
		AccessTTL:  config.Duration(cfg.Tokens.AccessTTL),
		RefreshTTL: config.Duration(cfg.Tokens.RefreshTTL),
		IDTokenTTL: config.Duration(cfg.Tokens.IDTokenTTL),
	})

	tokenSvc := oauthsvc.NewTokenService(auth,
		&oauthsvc.AuthCodeGrant{AuthCodes: st.AuthCodes(), Issuer: issuer},
		&oauthsvc.RefreshGrant{Tokens: st.Tokens(), Issuer: issuer},
		&oauthsvc.WebSessionGrant{
			Auth:     auth,
			Resolver: resolver,
			Sessions: st.Sessions(),
			Issuer:   issuer,
			Limiter:  webLimiter(cfg),
		},
		&oauthsvc.GitHubOIDCGrant{
			Verifier: oauthsvc.NewRemoteVerifier(cfg.Federation.TrustedIssuers, cfg.Federation.Audience),
			Accounts: st.Accounts(),
			Tokens:   st.Tokens(),
			Issuer:   issuer,
		},
	)

	authorizeSvc := &oauthsvc.AuthorizeService{
		Auth:         auth,
		Resolver:     resolver,
		Consents:     st.Consents(),
		AuthCodes:    st.AuthCodes(),
		Codec:        codec,
		Cache:        cc,
		CodeTTL:      config.Duration(cfg.Tokens.CodeTTL),
		ChallengeTTL: config.Duration(cfg.Consent.ChallengeTTL),
	}

	if err := metrics.RegisterOAuth(nil); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	handler := router.New(router.Deps{
		Authorize: &oauthctrl.AuthorizeController{
			Service:          authorizeSvc,
			ConsentUIBaseURL: cfg.Consent.UIBaseURL,
		},
		Token:      &oauthctrl.TokenController{Service: tokenSvc},
		Introspect: &oauthctrl.IntrospectController{Service: &oauthsvc.IntrospectService{Auth: auth, Tokens: st.Tokens(), Codec: codec}},
		Revoke:     &oauthctrl.RevokeController{Service: &oauthsvc.RevokeService{Auth: auth, Tokens: st.Tokens(), Codec: codec}},
		Register:   &oauthctrl.RegisterController{Service: &oauthsvc.RegisterService{Clients: st.Clients(), HashParams: secrethash.Default}},
		Discovery:  &oidcctrl.DiscoveryController{Service: oidcsvc.NewDiscoveryService(cfg.Issuer, signer)},
		Session:    &middlewares.SessionAuth{Sessions: st.Sessions(), Codec: codec},
		Store:      st,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", logger.String("addr", cfg.Server.Addr), logger.String("issuer", cfg.Issuer))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sweepExpiredCodes(gctx, st)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), config.Duration(cfg.Server.ShutdownTimeout))
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}

// signingKey loads the configured RSA key, or generates an ephemeral one
// outside prod so a bare checkout can start.
func signingKey(cfg *config.Config, log *zap.Logger) (*jwtx.SigningKey, error) {
	if cfg.Security.SigningKeyPath != "" {
		return jwtx.LoadSigningKey(cfg.Security.SigningKeyPath)
	}
	if cfg.IsProd() {
		return nil, errors.New("security.signing_key_path is required in prod")
	}
	log.Warn("no signing key configured, generating an ephemeral one")
	return jwtx.GenerateSigningKey()
}

func webLimiter(cfg *config.Config) rate.Limiter {
	if !cfg.Rate.Enabled {
		return rate.Unlimited{}
	}
	window := config.Duration(cfg.Rate.Web.Window)
	if cfg.Cache.Driver == "redis" {
		// The limiter talks to redis directly so its INCR windows stay
		// out of the cache client's key space.
		client := rdb.NewClient(&rdb.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		return rate.NewRedisLimiter(client, "rl:web:", cfg.Rate.Web.Limit, window)
	}
	return rate.NewMemoryLimiter(cfg.Rate.Web.Limit, window)
}

// sweepExpiredCodes deletes expired authorization codes periodically.
// Codes are single-use and short-lived; this only keeps the table small.
func sweepExpiredCodes(ctx context.Context, st store.Store) {
	t := time.NewTicker(5 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := st.AuthCodes().DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				logger.L().Warn("expired code sweep failed", logger.Err(err))
				continue
			}
			if n > 0 {
				logger.L().Debug("expired codes deleted", logger.Count(n))
			}
		}
	}
}
