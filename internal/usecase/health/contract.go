package health

import "context"

// BrowserChecker checks that the browser engine can serve sessions.
type BrowserChecker interface {
	HealthCheck(ctx context.Context) error
}
