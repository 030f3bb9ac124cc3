package policy

import (
	"errors"
	"fmt"
)

var ErrDemoMode = errors.New("action disabled in demo mode")

// Guard decides whether a destructive action may run.
type Guard interface {
	Allow(action string) error
}

type demoGuard struct {
	enabled bool
}

func NewGuard(demoMode bool) Guard {
	return demoGuard{enabled: demoMode}
}

func (g demoGuard) Allow(action string) error {
	if g.enabled {
		return fmt.Errorf("%s: %w", action, ErrDemoMode)
	}
	return nil
}
