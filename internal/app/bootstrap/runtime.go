package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cacheadapter "github.com/pagemarket/marketplace/internal/adapters/cache"
	eventadapter "github.com/pagemarket/marketplace/internal/adapters/events"
	httpadapter "github.com/pagemarket/marketplace/internal/adapters/http"
	"github.com/pagemarket/marketplace/internal/adapters/httpclient"
	"github.com/pagemarket/marketplace/internal/adapters/memstore"
	"github.com/pagemarket/marketplace/internal/adapters/postgres"
	"github.com/pagemarket/marketplace/internal/adapters/security"
	"github.com/pagemarket/marketplace/internal/application"
	"github.com/pagemarket/marketplace/internal/ports"
	"github.com/pagemarket/marketplace/internal/schema"
)

// Runtime is one wired service binary: an HTTP server plus, for the
// consuming services, a consumer loop bound to the event bus.
type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	consumer   *eventadapter.ConsumerLoop
	bus        ports.EventBus
	cleanupFn  func(context.Context)
}

// repoSet is the persistence surface a runtime picks from. Postgres-backed
// when a database URL is configured, in-memory otherwise.
type repoSet struct {
	Books     ports.BookRepository
	Sales     ports.SaleRepository
	Directory ports.DirectoryRepository
	News      ports.NewsRepository
	AuthUsers ports.AuthUserRepository
}

func newLogger(serviceID string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With("service", serviceID)
}

func newBus(cfg Config) (ports.EventBus, error) {
	switch cfg.BusKind {
	case BusRabbitMQ:
		return eventadapter.DialRabbit(cfg.BusURL)
	case BusKafka:
		return eventadapter.NewKafkaBroker(cfg.KafkaBrokers, cfg.ConsumerGroup)
	default:
		return eventadapter.NewInMemoryBroker(cfg.QueueBuffer), nil
	}
}

func openRepos(ctx context.Context, cfg Config) (repoSet, func(context.Context), error) {
	if cfg.DatabaseURL == "" {
		return repoSet{
			Books:     memstore.NewBookStore(),
			Sales:     memstore.NewSaleStore(),
			Directory: memstore.NewDirectoryStore(),
			News:      memstore.NewNewsStore(),
			AuthUsers: memstore.NewAuthUserStore(),
		}, func(context.Context) {}, nil
	}

	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return repoSet{}, nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return repoSet{}, nil, fmt.Errorf("gorm sql db: %w", err)
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return repoSet{}, nil, fmt.Errorf("run migrations: %w", err)
	}
	repos := postgres.NewRepositories(db)
	return repoSet{
		Books:     repos.Books,
		Sales:     repos.Sales,
		Directory: repos.Directory,
		News:      repos.News,
		AuthUsers: repos.AuthUsers,
	}, func(context.Context) { _ = sqlDB.Close() }, nil
}

func newHTTPServer(cfg Config, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// NewBookRuntime wires the book-server: a plain CRUD service, no bus.
func NewBookRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath, "book-server")
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.ServiceID)

	repos, cleanup, err := openRepos(ctx, cfg)
	if err != nil {
		return nil, err
	}
	tokens, err := security.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		cleanup(ctx)
		return nil, err
	}

	svc := application.NewBookService(logger, repos.Books)
	router := httpadapter.NewBookRouter(logger, httpadapter.NewBookHandler(svc), httpadapter.ParserValidator{Tokens: tokens})

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: newHTTPServer(cfg, router),
		cleanupFn:  cleanup,
	}, nil
}

// NewSaleRuntime wires the sale-server: the only writer of sale events.
func NewSaleRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath, "sale-server")
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.ServiceID)

	repos, cleanup, err := openRepos(ctx, cfg)
	if err != nil {
		return nil, err
	}
	bus, err := newBus(cfg)
	if err != nil {
		cleanup(ctx)
		return nil, fmt.Errorf("connect bus: %w", err)
	}
	tokens, err := security.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		cleanup(ctx)
		_ = bus.Close()
		return nil, err
	}

	books := httpclient.NewBookClient(cfg.BookServerURL)
	svc := application.NewSaleService(logger, repos.Sales, books, bus)
	router := httpadapter.NewSaleRouter(logger, httpadapter.NewSaleHandler(svc), httpadapter.ParserValidator{Tokens: tokens})

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: newHTTPServer(cfg, router),
		bus:        bus,
		cleanupFn:  cleanup,
	}, nil
}

// NewSellerRuntime wires the seller-server: a directory read-model fed by
// user-created, sale-created and sale-deleted.
func NewSellerRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	return newDirectoryRuntime(ctx, configPath, "seller-server", "sellers")
}

// NewUserRuntime wires the user-server. It keeps the same projection as the
// seller-server from its own queues, so the two drift independently.
func NewUserRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	return newDirectoryRuntime(ctx, configPath, "user-server", "users")
}

func newDirectoryRuntime(ctx context.Context, configPath, serviceID, resource string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath, serviceID)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.ServiceID)

	repos, cleanup, err := openRepos(ctx, cfg)
	if err != nil {
		return nil, err
	}
	bus, err := newBus(cfg)
	if err != nil {
		cleanup(ctx)
		return nil, fmt.Errorf("connect bus: %w", err)
	}

	svc := application.NewDirectoryService(logger, repos.Directory)
	consumer := eventadapter.NewConsumerLoop(logger, bus)
	consumer.On(schema.TopicUserCreated, svc.HandleUserCreated)
	consumer.On(schema.TopicSaleCreated, svc.HandleSaleCreated)
	consumer.On(schema.TopicSaleDeleted, svc.HandleSaleDeleted)

	router := httpadapter.NewDirectoryRouter(logger, httpadapter.NewDirectoryHandler(svc), resource)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: newHTTPServer(cfg, router),
		consumer:   consumer,
		bus:        bus,
		cleanupFn:  cleanup,
	}, nil
}

// NewNewsRuntime wires the news-server: the feed projection over all three
// sale topics.
func NewNewsRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath, "news-server")
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.ServiceID)

	repos, cleanup, err := openRepos(ctx, cfg)
	if err != nil {
		return nil, err
	}
	bus, err := newBus(cfg)
	if err != nil {
		cleanup(ctx)
		return nil, fmt.Errorf("connect bus: %w", err)
	}

	books := httpclient.NewBookClient(cfg.BookServerURL)
	svc := application.NewNewsService(logger, repos.News, books)
	consumer := eventadapter.NewConsumerLoop(logger, bus)
	consumer.On(schema.TopicSaleCreated, svc.HandleSaleCreated)
	consumer.On(schema.TopicSaleUpdated, svc.HandleSaleUpdated)
	consumer.On(schema.TopicSaleDeleted, svc.HandleSaleDeleted)

	router := httpadapter.NewNewsRouter(logger, httpadapter.NewNewsHandler(svc))

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: newHTTPServer(cfg, router),
		consumer:   consumer,
		bus:        bus,
		cleanupFn:  cleanup,
	}, nil
}

// NewGatewayRuntime wires the API gateway: accounts, sessions and the
// user-created announcement.
func NewGatewayRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath, "gateway")
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.ServiceID)

	repos, cleanup, err := openRepos(ctx, cfg)
	if err != nil {
		return nil, err
	}
	bus, err := newBus(cfg)
	if err != nil {
		cleanup(ctx)
		return nil, fmt.Errorf("connect bus: %w", err)
	}
	tokens, err := security.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		cleanup(ctx)
		_ = bus.Close()
		return nil, err
	}

	var revoked ports.RevocationStore
	closeRedis := func(context.Context) {}
	if cfg.RedisURL != "" {
		client, err := cacheadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			cleanup(ctx)
			_ = bus.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		revoked = cacheadapter.NewRedisRevocationStore(client, cfg.TokenTTL)
		closeRedis = func(context.Context) { _ = client.Close() }
	} else {
		revoked = cacheadapter.NewMemoryRevocationStore()
	}

	svc := application.NewAuthService(logger, repos.AuthUsers, security.NewBcryptHasher(cfg.BcryptCost), tokens, revoked, bus)
	router := httpadapter.NewGatewayRouter(logger, httpadapter.NewGatewayHandler(svc))

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: newHTTPServer(cfg, router),
		bus:        bus,
		cleanupFn: func(ctx context.Context) {
			closeRedis(ctx)
			cleanup(ctx)
		},
	}, nil
}

// RunAPI serves HTTP and, when the runtime has one, the consumer loop, until
// a shutdown signal or a server failure.
func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumerCtx, cancelConsumer := context.WithCancel(ctx)
	defer cancelConsumer()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	if r.consumer != nil {
		go func() {
			r.logger.Info("consumer loop started")
			if err := r.consumer.Run(consumerCtx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("consumer loop: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	cancelConsumer()
	if r.bus != nil {
		_ = r.bus.Close()
	}
	r.cleanupFn(shutdownCtx)
	return nil
}
