// Package app wires the browser engine, portal reader and use cases from config.
package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/transparencia/internal/browser"
	"github.com/kailas-cloud/transparencia/internal/browser/playwright"
	"github.com/kailas-cloud/transparencia/internal/config"
	"github.com/kailas-cloud/transparencia/internal/repository/portal"
	collectuc "github.com/kailas-cloud/transparencia/internal/usecase/collect"
	healthuc "github.com/kailas-cloud/transparencia/internal/usecase/health"
)

// App holds the running components.
type App struct {
	Engine  *playwright.Engine
	Collect *collectuc.Service
	Health  *healthuc.Service
}

// New starts the browser engine and builds the use cases.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	engine, err := playwright.New(EngineConfig(cfg, logger))
	if err != nil {
		return nil, fmt.Errorf("start browser engine: %w", err)
	}

	portalCfg := PortalConfig(cfg)
	collect := collectuc.New(engine, func(s browser.Session) collectuc.Portal {
		return portal.New(s, portalCfg)
	}).WithDetailConcurrency(cfg.Portal.DetailConcurrency)

	return &App{
		Engine:  engine,
		Collect: collect,
		Health:  healthuc.New(engine),
	}, nil
}

// Close stops the browser engine.
func (a *App) Close() error {
	return a.Engine.Close()
}

// EngineConfig maps the browser section to the playwright engine settings.
func EngineConfig(cfg config.Config, logger *zap.Logger) *playwright.Config {
	return &playwright.Config{
		Engine:         cfg.Browser.Engine,
		Headless:       cfg.Browser.IsHeadless(),
		Install:        cfg.Browser.Install,
		MaxSessions:    cfg.Browser.MaxSessions,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		Locale:         cfg.Browser.Locale,
		DefaultTimeout: float64(cfg.Browser.DefaultTimeoutMs),
		Logger:         logger,
	}
}

// PortalConfig maps the portal section to the portal reader settings.
func PortalConfig(cfg config.Config) portal.Config {
	p := cfg.Portal
	return portal.Config{
		BaseURL:           p.BaseURL,
		NavigationTimeout: float64(p.NavigationTimeoutMs),
		ActionTimeout:     float64(p.ActionTimeoutMs),
		ResponseTimeout:   float64(p.ResponseTimeoutMs),
		TypeDelay:         float64(p.TypeDelayMs),
		ClickDelay:        float64(p.ClickDelayMs),
		StabilizeInterval: time.Duration(p.StabilizeIntervalMs) * time.Millisecond,
		StabilizePolls:    p.StabilizePolls,
		StabilizeTimeout:  time.Duration(p.StabilizeTimeoutMs) * time.Millisecond,
		SettleDelay:       time.Duration(p.SettleDelayMs) * time.Millisecond,
	}
}
