// jornada registers workdays on the ViveOrange HR portal. The default
// mode is a Telegram bot; --tui opens a terminal dashboard and --run
// executes a single operation and exits.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/pflag"

	"github.com/mrivasf/jornada/internal/bot"
	"github.com/mrivasf/jornada/internal/calendar"
	"github.com/mrivasf/jornada/internal/config"
	"github.com/mrivasf/jornada/internal/pipeline"
	"github.com/mrivasf/jornada/internal/portal"
	"github.com/mrivasf/jornada/internal/secrets"
	"github.com/mrivasf/jornada/internal/store"
	"github.com/mrivasf/jornada/internal/tui"
	"github.com/mrivasf/jornada/internal/workday"
)

var version = "1.3.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath       string
		dataDir          string
		useTUI           bool
		runOp            string
		runDate          string
		force            bool
		generateIdentity bool
		encryptSecrets   string
		showVersion      bool
	)

	flags := pflag.NewFlagSet("jornada", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "path to config.yaml (default: <data-dir>/config.yaml)")
	flags.StringVar(&dataDir, "data-dir", "", "data directory (default: ~/.config/jornada)")
	flags.BoolVar(&useTUI, "tui", false, "open the terminal dashboard instead of the bot")
	flags.StringVar(&runOp, "run", "", "run one operation and exit: INFO, INFOP or DIA")
	flags.StringVar(&runDate, "date", "HOY", "day for --run DIA: HOY, AYER or YYYYMMDD")
	flags.BoolVar(&force, "force", false, "with --run DIA, register days that would not normally be registered")
	flags.BoolVar(&generateIdentity, "generate-identity", false, "create a new age identity and exit")
	flags.StringVar(&encryptSecrets, "encrypt-secrets", "", "encrypt the given plaintext secrets YAML and exit")
	flags.BoolVar(&showVersion, "version", false, "print version and exit")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("jornada %s\n", version)
		return nil
	}

	if dataDir == "" {
		dir, err := config.DefaultDataDir()
		if err != nil {
			return fmt.Errorf("resolve data dir: %w", err)
		}
		dataDir = dir
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if configPath == "" {
		configPath = dataDir + "/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.ApplyDataDir(dataDir)

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if generateIdentity {
		identity, err := secrets.GenerateIdentity(cfg.IdentityFile)
		if err != nil {
			return err
		}
		fmt.Printf("identity written to %s\npublic key: %s\n", cfg.IdentityFile, identity.Recipient())
		return nil
	}
	if encryptSecrets != "" {
		if err := secrets.Encrypt(encryptSecrets, cfg.SecretsFile, cfg.IdentityFile); err != nil {
			return err
		}
		fmt.Printf("secrets encrypted to %s\n", cfg.SecretsFile)
		return nil
	}

	sec, err := secrets.Load(cfg.SecretsFile, cfg.IdentityFile)
	if err != nil {
		return fmt.Errorf("load secrets: %w", err)
	}

	cal, err := calendar.Load(cfg.HolidaysFile)
	if err != nil {
		return fmt.Errorf("load holiday calendar: %w", err)
	}

	db, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	pipe, err := pipeline.New(pipeline.Config{
		Config: cfg,
		Credentials: portal.Credentials{
			Username:     sec.HRUsername,
			Password:     sec.HRPassword,
			EmployeeCode: sec.EmployeeCode,
		},
		Classifier: &calendar.Classifier{
			Calendar:     cal,
			Region:       cfg.Region,
			TeleworkDays: cfg.Schedule.TeleworkDays,
		},
		Store:  db,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	switch {
	case useTUI:
		return runTUI(pipe, db, cfg)
	case runOp != "":
		return runOnce(pipe, cfg, runOp, runDate, force)
	default:
		return runBot(pipe, sec, cfg, logger)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func runTUI(pipe *pipeline.Pipeline, db *store.Store, cfg *config.Config) error {
	app := tui.NewApp(pipe, db, cfg.Location())
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func runOnce(pipe *pipeline.Pipeline, cfg *config.Config, op, date string, force bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch strings.ToUpper(op) {
	case "INFO", "INFOP":
		report, err := pipe.WeeklyReport(ctx, strings.ToUpper(op) == "INFOP")
		if err != nil {
			return err
		}
		fmt.Println(report.TelegramMessage())
		return nil

	case "DIA":
		day, err := workday.ParseDay(strings.ToUpper(date), time.Now().In(cfg.Location()))
		if err != nil {
			return err
		}
		cls := pipe.Classify(day)
		fmt.Println(cls.Message)
		if !cls.Register && !force {
			fmt.Println("No se registra este día.")
			return nil
		}
		result, report, err := pipe.RegisterDay(ctx, pipe.PlanRegistration(day, cls.Type))
		if err != nil {
			return err
		}
		fmt.Println(result.TelegramMessage())
		if report != nil {
			fmt.Println(report.TelegramMessage())
		}
		return nil
	}
	return fmt.Errorf("unknown operation %q: expected INFO, INFOP or DIA", op)
}

func runBot(pipe *pipeline.Pipeline, sec *secrets.Secrets, cfg *config.Config, logger *slog.Logger) error {
	api, err := tgbotapi.NewBotAPI(sec.BotToken)
	if err != nil {
		return fmt.Errorf("connect to Telegram: %w", err)
	}
	logger.Info("bot connected", "username", api.Self.UserName, "version", version)

	b, err := bot.New(bot.Config{
		API:               api,
		ChatID:            sec.ChatID,
		Runner:            pipe,
		Version:           version,
		Location:          cfg.Location(),
		MessagesPerMinute: cfg.MessagesPerMinute,
		Logger:            logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	b.Run(ctx, updates)
	logger.Info("bot stopped")
	return nil
}
