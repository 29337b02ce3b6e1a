package playwright

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	playwright "github.com/playwright-community/playwright-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kailas-cloud/transparencia/internal/metrics"
)

// --- Mocks ---

type fakeContext struct {
	playwright.BrowserContext
	closes atomic.Int32
	err    error
}

func (c *fakeContext) Close(...playwright.BrowserContextCloseOptions) error {
	c.closes.Add(1)
	return c.err
}

type fakeBrowser struct {
	playwright.Browser
	closes atomic.Int32
	err    error
}

func (b *fakeBrowser) Close(...playwright.BrowserCloseOptions) error {
	b.closes.Add(1)
	return b.err
}

func newFakeSession(ctxErr, browserErr error) (*Session, *fakeContext, *fakeBrowser) {
	bctx := &fakeContext{err: ctxErr}
	b := &fakeBrowser{err: browserErr}
	return &Session{id: "test", context: bctx, browser: b}, bctx, b
}

// newSlottedEngine returns an engine with one slot, already taken.
func newSlottedEngine(t *testing.T) *Engine {
	t.Helper()
	e := &Engine{logger: zap.NewNop(), slots: semaphore.NewWeighted(1)}
	if !e.slots.TryAcquire(1) {
		t.Fatal("slot not available")
	}
	return e
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

// --- Tests ---

func TestSession_ConcurrentReleaseAndCancel(t *testing.T) {
	e := newSlottedEngine(t)
	gaugeBefore := testutil.ToFloat64(metrics.BrowserSessionsActive)

	ctx, cancel := context.WithCancel(context.Background())
	s, bctx, b := newFakeSession(errors.New("ctx gone"), nil)
	e.bind(ctx, s)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.Release()
		}()
	}
	cancel()
	wg.Wait()

	if n := bctx.closes.Load(); n != 1 {
		t.Errorf("context closed %d times, want 1", n)
	}
	if n := b.closes.Load(); n != 1 {
		t.Errorf("browser closed %d times, want 1", n)
	}
	for i, err := range errs {
		if err == nil || err.Error() != "close context: ctx gone" {
			t.Errorf("Release #%d = %v, want close context error", i, err)
		}
	}
	if !e.slots.TryAcquire(1) {
		t.Error("slot not freed by release")
	}
	if got := testutil.ToFloat64(metrics.BrowserSessionsActive); got != gaugeBefore {
		t.Errorf("active sessions gauge = %v, want %v", got, gaugeBefore)
	}
}

func TestSession_ReleasedOnCancel(t *testing.T) {
	e := newSlottedEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	s, bctx, b := newFakeSession(nil, nil)
	e.bind(ctx, s)

	if bctx.closes.Load() != 0 {
		t.Fatal("session released before cancel")
	}
	cancel()

	waitFor(t, func() bool { return b.closes.Load() == 1 })
	waitFor(t, func() bool { return e.slots.TryAcquire(1) })
	if err := s.Release(); err != nil {
		t.Errorf("Release after cancel = %v, want nil", err)
	}
	if n := bctx.closes.Load(); n != 1 {
		t.Errorf("context closed %d times, want 1", n)
	}
}

func TestSession_BoundToDoneContext(t *testing.T) {
	e := newSlottedEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, bctx, _ := newFakeSession(nil, nil)
	e.bind(ctx, s)

	waitFor(t, func() bool { return bctx.closes.Load() == 1 })
	waitFor(t, func() bool { return e.slots.TryAcquire(1) })
}

func TestSession_ReleaseKeepsFirstError(t *testing.T) {
	s, bctx, b := newFakeSession(errors.New("ctx gone"), errors.New("browser gone"))
	var hooks atomic.Int32
	s.onRelease = func() { hooks.Add(1) }

	first := s.Release()
	if first == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"close context: ctx gone", "close browser: browser gone"} {
		if !strings.Contains(first.Error(), want) {
			t.Errorf("error %q missing %q", first, want)
		}
	}

	for range 3 {
		if err := s.Release(); err != first {
			t.Errorf("repeat Release = %v, want first error", err)
		}
	}
	if bctx.closes.Load() != 1 || b.closes.Load() != 1 {
		t.Errorf("closes context=%d browser=%d, want 1/1", bctx.closes.Load(), b.closes.Load())
	}
	if n := hooks.Load(); n != 1 {
		t.Errorf("onRelease fired %d times, want 1", n)
	}
}

func TestSession_ReleaseWithoutBinding(t *testing.T) {
	s, _, _ := newFakeSession(nil, nil)
	if err := s.Release(); err != nil {
		t.Errorf("Release = %v, want nil", err)
	}
}
