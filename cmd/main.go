package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"browserAgent/internal/agent"
	"browserAgent/internal/browser"
	"browserAgent/internal/cli"
	"browserAgent/internal/cli/commands"
	"browserAgent/internal/config"
	"browserAgent/internal/database"
	"browserAgent/internal/llm"
	"browserAgent/internal/logger"
	"browserAgent/internal/metrics"
	"browserAgent/internal/observe"
	"browserAgent/internal/sanitizer"
	"browserAgent/internal/security"
	"browserAgent/internal/server"
	"browserAgent/internal/tools"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const historyFile = ".browser-agent-history"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, _ := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newRootCmd собирает команды и привязывает флаги к viper.
func newRootCmd() (*cobra.Command, *viper.Viper) {
	v := viper.New()

	root := &cobra.Command{
		Use:          "browser-agent",
		Short:        "LLM-агент, который выполняет задачи в браузере",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v, "")
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "YAML-файл конфигурации")
	flags.String("provider", "", "вендор модели: openai, anthropic или gemini")
	flags.Bool("headless", false, "запускать браузер без окна")
	flags.String("browser-engine", "", "chromium или firefox")
	flags.String("profile-dir", "", "каталог профиля браузера")
	flags.String("screenshot-dir", "", "каталог скриншотов")
	flags.Int("max-steps", 0, "лимит ходов исполнителя на задачу")
	flags.Int("observe-max-elements", 0, "сколько элементов собирать в наблюдение")
	flags.String("log-level", "", "debug, info, warn или error")
	flags.String("metrics-addr", "", "адрес /metrics и /health, например :9090")
	flags.String("journal-driver", "", "журнал задач: sqlite или postgres")
	flags.String("journal-dsn", "", "строка подключения к журналу")

	for key, flag := range map[string]string{
		config.KeyConfigFile:      "config",
		config.KeyProvider:        "provider",
		config.KeyHeadless:        "headless",
		config.KeyBrowserEngine:   "browser-engine",
		config.KeyProfileDir:      "profile-dir",
		config.KeyScreenshotDir:   "screenshot-dir",
		config.KeyMaxSteps:        "max-steps",
		config.KeyObserveElements: "observe-max-elements",
		config.KeyLogLevel:        "log-level",
		config.KeyMetricsAddr:     "metrics-addr",
		config.KeyJournalDriver:   "journal-driver",
		config.KeyJournalDSN:      "journal-dsn",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(&cobra.Command{
		Use:   "run <задача>",
		Short: "Выполнить одну задачу и выйти",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v, strings.Join(args, " "))
		},
	})
	return root, v
}

// run поднимает зависимости и запускает REPL. Непустой task выполняется один раз без REPL.
func run(ctx context.Context, v *viper.Viper, task string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logger.Env, cfg.Logger.Level, logger.Options{File: cfg.Logger.File})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	san := sanitizer.New()
	m := metrics.New()

	var repo *database.TaskRepository
	db, err := database.Open(cfg.Journal, log)
	switch {
	case errors.Is(err, database.ErrDisabled):
		log.Debug("Журнал выключен")
	case err != nil:
		return err
	default:
		defer db.Close(log)
		repo = database.NewTaskRepository(db.DB)
	}

	if cfg.Metrics.Addr != "" {
		srv := server.New(cfg.Metrics.Addr, m.Handler(), log)
		if repo != nil {
			srv.WithJournal(repo)
		}
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := srv.Run(ctx); err != nil {
				log.Error("Сервер метрик остановлен", zap.Error(err))
			}
		}()
		defer func() {
			cancel()
			<-done
		}()
	}

	provider, err := newProvider(ctx, cfg, log, repo, m, san)
	if err != nil {
		log.Error("Модель недоступна", zap.Error(err))
		return err
	}

	br := browser.New(browser.Config{
		Engine:          cfg.Browser.Engine,
		Headless:        cfg.Browser.Headless,
		UserDataDir:     cfg.Browser.ProfileDir,
		ScreenshotDir:   cfg.Browser.ScreenshotDir,
		BrowsersPath:    cfg.Browser.BrowsersPath,
		Display:         cfg.Browser.Display,
		Timeout:         cfg.Browser.Timeout,
		NavigateTimeout: cfg.Browser.NavigateTimeout,
	})
	if err := br.Launch(ctx); err != nil {
		log.Error("Ошибка запуска браузера", zap.Error(err))
		return err
	}
	defer func() {
		if err := br.Close(); err != nil {
			log.Warn("Ошибка закрытия браузера", zap.Error(err))
		}
	}()
	log.Info("Браузер запущен",
		zap.String("engine", cfg.Browser.Engine),
		zap.Bool("headless", cfg.Browser.Headless),
		zap.String("profile", cfg.Browser.ProfileDir))

	console := cli.NewConsole(historyFile)
	defer console.Close()

	observer := observe.NewObserver(observe.Options{
		MaxElements:   cfg.Agent.ObserveMaxElements,
		ScreenshotDir: cfg.Browser.ScreenshotDir,
	})
	executor := tools.NewExecutor(tools.Config{ActionTimeout: cfg.Browser.ActionTimeout}, log)
	gate := security.NewGate(console, log).WithMetrics(m)

	newRunner := func() commands.Runner {
		deps := agent.Deps{
			Browser:   br,
			Provider:  provider,
			Observer:  observer,
			Executor:  executor,
			Gate:      gate,
			Log:       log,
			Metrics:   m,
			Reporter:  cli.NewReporter(console.Out()),
			Sanitizer: san,
		}
		if repo != nil {
			deps.Store = repo
		}
		return agent.New(deps, agent.Config{MaxSteps: cfg.Agent.MaxSteps})
	}

	cliDeps := cli.Deps{
		Console:   console,
		Browser:   br,
		Provider:  provider,
		NewRunner: newRunner,
		Log:       log,
	}
	if repo != nil {
		cliDeps.Journal = repo
	}
	app := cli.New(cliDeps)

	if task != "" {
		app.RunTask(ctx, task)
		return nil
	}
	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newProvider создает адаптер вендора с лимитами, повторами, метриками и журналом.
func newProvider(ctx context.Context, cfg *config.Cfg, log *logger.Zap, repo *database.TaskRepository, m *metrics.Metrics, san *sanitizer.DataSanitizer) (llm.Provider, error) {
	vendor := func(v config.Vendor) llm.VendorConfig {
		return llm.VendorConfig{APIKey: v.APIKey, Model: v.Model, BaseURL: v.BaseURL, MaxTokens: cfg.LLM.MaxTokens}
	}
	p, err := llm.New(ctx, llm.Config{
		Provider:  cfg.LLM.Provider,
		OpenAI:    vendor(cfg.LLM.OpenAI),
		Anthropic: vendor(cfg.LLM.Anthropic),
		Gemini:    vendor(cfg.LLM.Gemini),
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания провайдера %s: %w", cfg.LLM.Provider, err)
	}

	opts := llm.InstrumentOptions{
		Log:        log,
		Limiter:    llm.NewRateLimiter(cfg.LLM.RequestsPerMinute, cfg.LLM.TokensPerHour),
		Counter:    llm.NewTiktokenCounter(""),
		MaxTokens:  cfg.LLM.MaxTokens,
		Retries:    cfg.LLM.Retries,
		RetryDelay: cfg.LLM.RetryDelay,
		Metrics:    m,
		Sanitizer:  san,
	}
	if repo != nil {
		opts.Journal = repo
	}
	log.Info("Модель выбрана", zap.String("vendor", p.Vendor()), zap.String("model", p.Model()))
	return llm.Instrument(p, opts), nil
}
