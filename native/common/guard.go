package common

import (
	"fmt"

	ferrors "farmercore/core/errors"
)

// PauseView exposes whether a module currently refuses to proceed.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard fails with ErrPaused when module is paused. A nil view or an empty
// module name never blocks.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return fmt.Errorf("%s: %w", module, ferrors.ErrPaused)
	}
	return nil
}
