// Package playwright implements the browser capability with playwright-go.
package playwright

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	playwright "github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kailas-cloud/transparencia/internal/browser"
	"github.com/kailas-cloud/transparencia/internal/metrics"
)

// Supported engines.
const (
	EngineFirefox  = "firefox"
	EngineChromium = "chromium"
	EngineWebKit   = "webkit"
)

// Default values for sessions.
const (
	DefaultTimeout        = 30000.0 // 30 seconds in milliseconds
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)

// Config holds the engine settings.
type Config struct {
	Engine         string
	Headless       bool
	Install        bool
	MaxSessions    int
	ViewportWidth  int
	ViewportHeight int
	Locale         string
	DefaultTimeout float64 // milliseconds
	Logger         *zap.Logger
}

// Engine launches one isolated browser per acquired session.
type Engine struct {
	mu      sync.RWMutex
	pw      *playwright.Playwright
	cfg     Config
	slots   *semaphore.Weighted
	logger  *zap.Logger
	stopped bool
}

// New starts the playwright driver. With cfg.Install the driver and the
// configured browser are downloaded first.
func New(cfg *Config) (*Engine, error) {
	c := *cfg
	if c.Engine == "" {
		c.Engine = EngineFirefox
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = DefaultViewportWidth
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = DefaultViewportHeight
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = DefaultTimeout
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	opts := &playwright.RunOptions{
		Browsers: []string{c.Engine},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if c.Install {
		if err := playwright.Install(opts); err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	e := &Engine{pw: pw, cfg: c, logger: c.Logger}
	if c.MaxSessions > 0 {
		e.slots = semaphore.NewWeighted(int64(c.MaxSessions))
	}
	return e, nil
}

// Acquire launches a browser, opens a context and its primary page.
// Cancelling ctx releases the session.
func (e *Engine) Acquire(ctx context.Context) (browser.Session, error) {
	if e.slots != nil {
		if err := e.slots.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("wait for browser slot: %w", err)
		}
	}

	s, err := e.open()
	if err != nil {
		e.freeSlot()
		return nil, err
	}

	e.bind(ctx, s)
	e.logger.Debug("Browser session acquired", zap.String("session", s.id), zap.String("engine", e.cfg.Engine))
	return s, nil
}

// bind ties s to the engine: its release frees the slot taken for it, and
// a done ctx releases it.
func (e *Engine) bind(ctx context.Context, s *Session) {
	metrics.BrowserSessionsActive.Inc()
	s.onRelease = func() {
		metrics.BrowserSessionsActive.Dec()
		e.freeSlot()
	}
	stop := context.AfterFunc(ctx, func() {
		if err := s.Release(); err != nil {
			e.logger.Warn("Release on cancel failed", zap.String("session", s.id), zap.Error(err))
		}
	})
	s.setStop(stop)
}

func (e *Engine) open() (*Session, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.stopped {
		return nil, fmt.Errorf("engine stopped: %w", browser.ErrClosed)
	}

	bt, err := e.browserType()
	if err != nil {
		return nil, err
	}

	b, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(e.cfg.Headless),
	})
	if err != nil {
		return nil, wrapErr("launch browser", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  e.cfg.ViewportWidth,
			Height: e.cfg.ViewportHeight,
		},
	}
	if e.cfg.Locale != "" {
		contextOpts.Locale = playwright.String(e.cfg.Locale)
	}
	bctx, err := b.NewContext(contextOpts)
	if err != nil {
		_ = b.Close()
		return nil, wrapErr("create context", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = b.Close()
		return nil, wrapErr("create page", err)
	}
	page.SetDefaultTimeout(e.cfg.DefaultTimeout)

	return &Session{
		id:      uuid.NewString(),
		browser: b,
		context: bctx,
		page:    &Page{page: page},
		timeout: e.cfg.DefaultTimeout,
	}, nil
}

func (e *Engine) browserType() (playwright.BrowserType, error) {
	switch e.cfg.Engine {
	case EngineFirefox:
		return e.pw.Firefox, nil
	case EngineChromium:
		return e.pw.Chromium, nil
	case EngineWebKit:
		return e.pw.WebKit, nil
	default:
		return nil, fmt.Errorf("unknown browser engine %q", e.cfg.Engine)
	}
}

func (e *Engine) freeSlot() {
	if e.slots != nil {
		e.slots.Release(1)
	}
}

// HealthCheck reports whether the playwright driver is running.
func (e *Engine) HealthCheck(_ context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.stopped || e.pw == nil {
		return fmt.Errorf("playwright driver: %w", browser.ErrClosed)
	}
	return nil
}

// Close stops the playwright driver. Sessions still open are closed by it.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return nil
	}
	e.stopped = true
	if err := e.pw.Stop(); err != nil {
		return fmt.Errorf("stop playwright: %w", err)
	}
	return nil
}
