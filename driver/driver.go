// Package driver defines the abstract GPU backend surface the
// render graph in rdg is built against. No concrete backend ships
// in this module: a platform-specific implementation registers
// itself from its own init function; the host process opens the
// driver it selects and hands the resulting GPU to the render graph
// executor.
package driver

import (
	"errors"
	"sync"

	"github.com/forge-engine/forge/internal/logx"
)

// Driver loads and unloads a concrete GPU backend.
type Driver interface {
	// Open initializes the driver.
	// If it succeeds, further calls with the same receiver
	// have no effect and must return the same GPU instance.
	// Callers should assume that Open is not safe for
	// parallel execution.
	Open() (GPU, error)

	// Name returns the name of the driver.
	// It must not cause the driver to be opened.
	Name() string

	// Close deinitializes the driver.
	// Closing a driver that is not open has no effect.
	// Callers should assume that Close is not safe for
	// parallel execution.
	Close()
}

// ErrNotInstalled means that a platform-specific library
// required for the driver to work is not present in the
// system.
var ErrNotInstalled = errors.New("driver: missing required library")

// ErrNoDevice means that no suitable device could be
// found.
var ErrNoDevice = errors.New("driver: no suitable device found")

// ErrNoHostMemory means that host memory could not be
// allocated.
var ErrNoHostMemory = errors.New("driver: out of host memory")

// ErrNoDeviceMemory means that device memory could not
// be allocated.
var ErrNoDeviceMemory = errors.New("driver: out of device memory")

// ErrFatal means that the driver is in an unrecoverable state.
// Upon encountering it, the render graph executor must destroy
// everything it created through the driver's GPU and then call
// Close. It may call Open again to reinitialize the driver for
// further use.
var ErrFatal = errors.New("driver: fatal error")

// Drivers returns the registered Drivers. Backend packages register
// themselves from an init function; the host process selects one of
// the returned Drivers, calls Open on it and passes the GPU to
// rdg.NewExecutor. Backends that never register are never
// considered.
func Drivers() []Driver {
	mu.Lock()
	defer mu.Unlock()
	drv := make([]Driver, len(drivers))
	copy(drv, drivers)
	return drv
}

// Register registers a backend Driver. Implementations call
// Register exactly once, from an init function. A driver with the
// same name already registered is replaced by drv.
func Register(drv Driver) {
	mu.Lock()
	defer mu.Unlock()
	for i := range drivers {
		if drivers[i].Name() == drv.Name() {
			drivers[i] = drv
			logx.Default().Warn("driver replaced", "name", drv.Name())
			return
		}
	}
	drivers = append(drivers, drv)
	logx.Default().Info("driver registered", "name", drv.Name())
}

// Variables used for driver registration.
var (
	// NOTE: Currently, this mutex is unnecessary.
	mu      sync.Mutex
	drivers []Driver = make([]Driver, 0, 1)
)
