package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotReady is returned when a query or stage runs before its
// prerequisite data has been produced. This is a contract violation by the
// caller, not a transient condition.
var ErrNotReady = errors.New("pipeline results not ready")

// ErrLoadInProgress is returned when a load is requested while another load
// is already running. Loads are serialized; readers keep the previous
// snapshot until the new one is swapped in.
var ErrLoadInProgress = errors.New("data load already in progress")

// EnvironmentNotFoundError is returned when a composition is requested for
// an environment that is absent from the aggregate set, either because it
// never existed or because it fell below the min-samples threshold.
type EnvironmentNotFoundError struct {
	Name      string
	Available []string
}

func (e *EnvironmentNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("environment %q not found", e.Name)
	}
	return fmt.Sprintf("environment %q not found; available include: %s",
		e.Name, strings.Join(e.Available, ", "))
}
