package playwright

import (
	"errors"
	"fmt"

	playwright "github.com/playwright-community/playwright-go"

	"github.com/kailas-cloud/transparencia/internal/browser"
)

// wrapErr maps engine errors onto the browser sentinels.
func wrapErr(op string, err error) error {
	switch {
	case errors.Is(err, playwright.ErrTimeout):
		return fmt.Errorf("%s: %w: %w", op, browser.ErrTimeout, err)
	case errors.Is(err, playwright.ErrTargetClosed):
		return fmt.Errorf("%s: %w: %w", op, browser.ErrClosed, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// optionalMs returns nil for non-positive values so the engine default applies.
func optionalMs(ms float64) *float64 {
	if ms <= 0 {
		return nil
	}
	return &ms
}
