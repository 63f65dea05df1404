package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"aitrade-engine/internal/auth"
	"aitrade-engine/internal/config"
	"aitrade-engine/internal/engine"
	"aitrade-engine/internal/feed"
	"aitrade-engine/internal/metrics"
	"aitrade-engine/internal/orderlog"
	"aitrade-engine/internal/outcome"
	"aitrade-engine/internal/permission"
	"aitrade-engine/internal/storage"
	"aitrade-engine/internal/trade"
	"aitrade-engine/internal/wallet"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openStore(ctx context.Context) (storage.Store, func(), error) {
	switch a.Config.Storage.Backend {
	case "redis":
		store, err := storage.NewRedisStore(ctx, storage.RedisOptions{
			Addr:     a.Config.Storage.Redis.Addr,
			Password: a.Config.Storage.Redis.Password,
			DB:       a.Config.Storage.Redis.DB,
			Prefix:   a.Config.Storage.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case "memory":
		store := storage.NewMemoryStore()
		return store, func() {}, nil
	default:
		store, err := storage.NewSQLiteStore(a.Config.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
}

func (a *App) newRecorder(ctx context.Context) (orderlog.Recorder, func(), error) {
	if a.Config.OrderLog.DSN == "" {
		a.Logger.Debug().Msg("orderlog.dsn not configured; remote mirror disabled")
		return orderlog.Nop{}, func() {}, nil
	}
	pool, err := orderlog.NewPool(ctx, orderlog.Options{
		DSN:     a.Config.OrderLog.DSN,
		Timeout: a.Config.OrderLog.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	recorder := orderlog.NewPGRecorder(pool, a.Config.OrderLog.Timeout, a.Logger)
	return recorder, recorder.Close, nil
}

func (a *App) engineOptions() engine.Options {
	return engine.Options{
		AnalysisDuration: a.Config.Engine.AnalysisDuration,
		RunDuration:      a.Config.Engine.RunDuration,
		TickInterval:     a.Config.Engine.TickInterval,
		MaxPoints:        a.Config.Engine.MaxPoints,
	}
}

func (a *App) curveConfig() outcome.Config {
	curve := outcome.DefaultConfig()
	curve.WinSpreadLow = a.Config.Engine.WinSpreadLow
	curve.WinSpreadHigh = a.Config.Engine.WinSpreadHigh
	curve.LossSpreadLow = a.Config.Engine.LossSpreadLow
	curve.LossSpreadHigh = a.Config.Engine.LossSpreadHigh
	curve.WaveCycles = a.Config.Engine.WaveCycles
	curve.WaveAmplitude = a.Config.Engine.WaveAmplitude
	curve.NoiseAmplitude = a.Config.Engine.NoiseAmplitude
	return curve
}

// RunOptions configure one interactive session round.
type RunOptions struct {
	Side      trade.Side
	Asset     string
	Amount    decimal.Decimal
	AutoClaim bool
}

// Run recovers any persisted session, otherwise starts a new round, and
// drives it to settlement or to the claim prompt.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	recorder, closeRecorder, err := a.newRecorder(ctx)
	if err != nil {
		return err
	}
	defer closeRecorder()

	var m *metrics.Metrics
	if a.Config.Metrics.Enabled {
		m = metrics.New()
		go func() {
			if err := m.Serve(ctx, a.Config.Metrics.Listen); err != nil {
				a.Logger.Error().Err(err).Msg("metrics listener failed")
			}
		}()
	}

	var hub *feed.Hub
	if a.Config.Feed.Enabled {
		hub = feed.NewHub(a.Logger)
		go func() {
			if err := hub.Serve(ctx, a.Config.Feed.Listen); err != nil {
				a.Logger.Error().Err(err).Msg("feed listener failed")
			}
		}()
	}

	eng := engine.New(a.engineOptions(), a.curveConfig(), a.Config.Engine.RandomWinProbability, engine.Deps{
		Wallet: wallet.NewClient(wallet.ClientOptions{
			BaseURL:   a.Config.Wallet.BaseURL,
			Timeout:   a.Config.Wallet.Timeout,
			UserAgent: a.Config.App.Name,
		}, a.Logger),
		Permissions: permission.NewClient(permission.ClientOptions{
			BaseURL:   a.Config.Permission.BaseURL,
			Timeout:   a.Config.Permission.Timeout,
			UserAgent: a.Config.App.Name,
		}, a.Logger),
		Store:    store,
		Recorder: recorder,
		Hub:      hub,
		Metrics:  m,
		Auth:     auth.Static{ID: a.Config.App.UserID},
	}, a.Logger)

	recovered, err := eng.Recover(ctx)
	if err != nil {
		return err
	}
	if recovered {
		a.Logger.Info().Msg("resuming persisted session")
	} else {
		if _, err := eng.Start(ctx, engine.StartRequest{
			Side:       opts.Side,
			Asset:      opts.Asset,
			AmountUSDT: opts.Amount,
		}); err != nil {
			return err
		}
	}

	return a.driveSession(ctx, eng, opts.AutoClaim)
}

// driveSession runs the lifecycle and resolves the claim step.
func (a *App) driveSession(ctx context.Context, eng *engine.Engine, autoClaim bool) error {
	if err := eng.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			a.Logger.Info().Msg("interrupted; session remains recoverable")
			return nil
		}
		return err
	}

	sess := eng.Session()
	if sess == nil {
		// Losing sessions auto-settle inside Run.
		fmt.Fprintln(os.Stdout, "session settled")
		return nil
	}

	fmt.Fprintf(os.Stdout, "session claimable: profit %s USDT\n", sess.CurrentProfitUSDT.StringFixed(2))
	if !autoClaim {
		fmt.Fprintln(os.Stdout, "run again with --claim to credit the wallet")
		return nil
	}

	if err := eng.Claim(ctx); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "profit claimed")
	return nil
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// ExportOptions hold parameters for exporting a settled session's curve.
type ExportOptions struct {
	SessionID string
	CSVPath   string
	PNGPath   string
	MaxPoints int
}

// SimulateOptions configure an offline round.
type SimulateOptions struct {
	Side   trade.Side
	Asset  string
	Amount decimal.Decimal
	Mode   permission.Mode
	Fast   bool
}

func msTime(ms int64) time.Time {
	return trade.MSTime(ms)
}
