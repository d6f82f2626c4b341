package main

import (
	"fmt"

	"github.com/defistate/uniswapv3-sdk-go/cmd/quoter/config"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/router"
	"github.com/defistate/uniswapv3-sdk-go/snapshot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app carries what every command needs, built from the merged configuration.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	market   *snapshot.Market
	router   *router.Router
	slippage *uniswapv3.Percent
	raw      bool
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	s, err := snapshot.Load(cfg.Snapshot)
	if err != nil {
		return nil, err
	}
	market, err := snapshot.NewMarket(s, sugared(logger, "snapshot"))
	if err != nil {
		return nil, err
	}
	logger.Debug("snapshot loaded",
		zap.String("path", cfg.Snapshot),
		zap.String("factory", s.Factory),
		zap.Int("pools", len(s.Pools)),
	)

	r, err := router.New(&router.Config{
		Logger:        sugared(logger, "router"),
		Registry:      prometheus.NewRegistry(),
		MaxNumResults: cfg.MaxResults,
		MaxHops:       cfg.MaxHops,
		Concurrency:   cfg.Concurrency,
	})
	if err != nil {
		return nil, err
	}

	raw, _ := cmd.Flags().GetBool("raw")
	return &app{
		cfg:      cfg,
		logger:   logger,
		market:   market,
		router:   r,
		slippage: uniswapv3.NewPercentFromDecimal(cfg.Slippage.Shift(-2)),
		raw:      raw,
	}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// zapLogger adapts a sugared zap logger to the key/value Logger used by the library packages.
type zapLogger struct {
	s *zap.SugaredLogger
}

func sugared(l *zap.Logger, component string) zapLogger {
	return zapLogger{s: l.Sugar().With("component", component)}
}

func (l zapLogger) Debug(msg string, args ...any) { l.s.Debugw(msg, args...) }
func (l zapLogger) Info(msg string, args ...any)  { l.s.Infow(msg, args...) }
func (l zapLogger) Warn(msg string, args ...any)  { l.s.Warnw(msg, args...) }
func (l zapLogger) Error(msg string, args ...any) { l.s.Errorw(msg, args...) }
