package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/goliatone/go-crosspost/internal/commands"
	crosspostcmd "github.com/goliatone/go-crosspost/internal/commands/crosspost"
	"github.com/goliatone/go-crosspost/internal/connector"
	"github.com/goliatone/go-crosspost/internal/domain"
	"github.com/goliatone/go-crosspost/internal/formatter"
	"github.com/goliatone/go-crosspost/internal/ledger"
	"github.com/goliatone/go-crosspost/internal/logging"
	"github.com/goliatone/go-crosspost/internal/logging/console"
	"github.com/goliatone/go-crosspost/internal/logging/gologger"
	"github.com/goliatone/go-crosspost/internal/notifier"
	"github.com/goliatone/go-crosspost/internal/orchestrator"
	"github.com/goliatone/go-crosspost/internal/publisher"
	"github.com/goliatone/go-crosspost/internal/runtimeconfig"
	"github.com/goliatone/go-crosspost/internal/secrets"
	"github.com/goliatone/go-crosspost/internal/webhook"
	"github.com/goliatone/go-crosspost/pkg/interfaces"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// App holds the wired service graph for one process.
type App struct {
	Config       runtimeconfig.Config
	Provider     interfaces.LoggerProvider
	DB           *bun.DB
	Ledger       *ledger.Service
	Publisher    *publisher.Publisher
	Orchestrator *orchestrator.Orchestrator
	Handler      *crosspostcmd.ProcessWorkItemHandler
	Poller       *connector.Poller
	Webhook      *webhook.Server
}

// New validates the config and wires every component: logging, storage,
// secrets, publishing, orchestration, detection, and the optional webhook.
func New(ctx context.Context, cfg runtimeconfig.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	provider, err := loggerProvider(cfg.Logging)
	if err != nil {
		return nil, err
	}

	db, err := openDatabase(cfg.Storage)
	if err != nil {
		return nil, err
	}
	if err := ledger.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	repo, err := ledgerRepository(db, cfg.Storage)
	if err != nil {
		db.Close()
		return nil, err
	}
	ledgerSvc := ledger.NewService(repo,
		ledger.WithLogger(logging.LedgerLogger(provider)))

	secretCache := secrets.NewCache(secretStore(cfg.Secrets))

	pub := publisher.New(secretCache,
		publisher.WithDryRun(cfg.Workflow.DryRun),
		publisher.WithLogger(logging.PublisherLogger(provider)))

	targets, err := platformTargets(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	orchOpts := []orchestrator.Option{
		orchestrator.WithLogger(logging.OrchestratorLogger(provider)),
		orchestrator.WithTimeout(cfg.Workflow.Timeout.Std()),
		orchestrator.WithCanonicalPlatform(domain.NormalizePlatformID(cfg.Canonical)),
	}
	if cfg.Notifications.Enabled {
		sender := notifier.NewLogSender(logging.NotifierLogger(provider))
		outcome, err := notifier.New(sender, cfg.Notifications.Recipient,
			notifier.WithLogger(logging.NotifierLogger(provider)))
		if err != nil {
			db.Close()
			return nil, err
		}
		orchOpts = append(orchOpts, orchestrator.WithNotifier(outcome))
	}

	orch, err := orchestrator.New(ledgerSvc, pub, cfg.Blog.BaseURL, targets, orchOpts...)
	if err != nil {
		db.Close()
		return nil, err
	}

	handler := crosspostcmd.NewProcessWorkItemHandler(orch,
		commands.CommandLogger(provider, "workitem"),
		commands.WithTimeout[crosspostcmd.ProcessWorkItemCommand](cfg.Workflow.Timeout.Std()),
		commands.WithTelemetry(commands.DefaultTelemetry[crosspostcmd.ProcessWorkItemCommand](
			commands.CommandLogger(provider, "telemetry"))))

	source, err := connector.NewGitHub(connector.Config{
		Owner:           cfg.Source.Owner,
		Repo:            cfg.Source.Repo,
		Branch:          cfg.Source.Branch,
		ContentPath:     cfg.Source.ContentPath,
		CommitPrefix:    cfg.Source.CommitPrefix,
		Tolerance:       cfg.Source.Tolerance.Std(),
		Token:           cfg.Source.Token,
		SendStatusEmail: cfg.Source.SendStatusEmail,
	}, connector.WithLogger(logging.ConnectorLogger(provider)))
	if err != nil {
		db.Close()
		return nil, err
	}

	poller := connector.NewPoller(source, orch,
		connector.WithInterval(cfg.Source.PollInterval.Std()),
		connector.WithPollerLogger(logging.ConnectorLogger(provider)))

	app := &App{
		Config:       cfg,
		Provider:     provider,
		DB:           db,
		Ledger:       ledgerSvc,
		Publisher:    pub,
		Orchestrator: orch,
		Handler:      handler,
		Poller:       poller,
	}

	if cfg.Webhook.Enabled {
		app.Webhook = webhook.NewServer(orch,
			webhook.WithLogger(logging.WebhookLogger(provider)),
			webhook.WithSharedToken(cfg.Webhook.Token))
	}
	return app, nil
}

// Close releases held resources.
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

func loggerProvider(cfg runtimeconfig.LoggingConfig) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gologger":
		return gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
		})
	default:
		level := consoleLevel(cfg.Level)
		return console.NewProvider(console.Options{MinLevel: &level}), nil
	}
}

func consoleLevel(level string) console.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return console.LevelTrace
	case "debug":
		return console.LevelDebug
	case "warn", "warning":
		return console.LevelWarn
	case "error":
		return console.LevelError
	case "fatal":
		return console.LevelFatal
	default:
		return console.LevelInfo
	}
}

func openDatabase(cfg runtimeconfig.StorageConfig) (*bun.DB, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "postgres":
		sqlDB, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: open postgres: %w", err)
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		sqlDB, err := sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: open sqlite: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	}
}

func ledgerRepository(db *bun.DB, cfg runtimeconfig.StorageConfig) (ledger.Repository, error) {
	if cfg.CacheTTL.Std() <= 0 {
		return ledger.NewBunRepository(db), nil
	}
	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = cfg.CacheTTL.Std()
	cacheService, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: cache service: %w", err)
	}
	return ledger.NewBunRepositoryWithCache(db, cacheService, repocache.NewDefaultKeySerializer()), nil
}

func secretStore(cfg runtimeconfig.SecretsConfig) interfaces.SecretStore {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "static":
		return secrets.Static(cfg.Static)
	default:
		return secrets.EnvStore{Prefix: cfg.EnvPrefix}
	}
}

func platformTargets(cfg runtimeconfig.Config) ([]orchestrator.Target, error) {
	enabled := cfg.EnabledPlatforms()
	targets := make([]orchestrator.Target, 0, len(enabled))
	for _, platform := range enabled {
		variant, err := formatter.ForVariant(platform.Name, formatter.VariantConfig{
			OrganizationID: platform.OrganizationID,
			PublicationID:  platform.PublicationID,
			BlogBaseURL:    cfg.Blog.BaseURL,
			MaxTags:        platform.MaxTags(),
		})
		if err != nil {
			return nil, err
		}

		method := platform.Method
		if method == "" {
			method = "POST"
		}
		targets = append(targets, orchestrator.Target{
			Formatter: variant,
			Request: publisher.Request{
				Method:  method,
				BaseURL: platform.BaseURL,
				Headers: platform.Headers,
				Query:   platform.Query,
				Auth:    platform.Auth.Descriptor(),
			},
		})
	}
	return targets, nil
}
