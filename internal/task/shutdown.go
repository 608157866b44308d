package task

import (
	"errors"
	"time"
)

// Stopper is anything with a bounded-timeout stop, such as the executor pool.
type Stopper interface {
	Stop(timeout time.Duration) error
}

// ShutdownAll tears down the manager and any shared pools, each bounded by
// timeout. Intended to run once at process exit; do not call it on a manager
// you do not own, since it permanently stops shared state other consumers may
// depend on. Safe to call multiple times.
func ShutdownAll(mgr *Manager, timeout time.Duration, stoppers ...Stopper) error {
	var errs []error
	if mgr != nil {
		if err := mgr.Shutdown(timeout); err != nil {
			errs = append(errs, err)
		}
	}
	for _, s := range stoppers {
		if err := s.Stop(timeout); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
