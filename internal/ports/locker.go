package ports

import (
	"context"
	"fmt"
)

// VehicleLocker grants exclusive access to a named resource (e.g. "vehicle:42").
// The returned release func must be called exactly once.
type VehicleLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

func VehicleLockKey(id int64) string { return fmt.Sprintf("vehicle:%d", id) }

func RouteLockKey(id int64) string { return fmt.Sprintf("route:%d", id) }
