package checker

import (
	"context"

	"github.com/hazz-dev/sitepulse/internal/config"
)

// Checker performs a single health check against a target.
type Checker interface {
	Check(ctx context.Context, target config.Target) CheckResult
}
