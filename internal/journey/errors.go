package journey

import (
	"errors"
	"fmt"

	"github.com/xkilldash9x/decoy-cli/internal/interact"
)

// ErrInputError marks unusable operator input, such as a missing or empty
// URL list. It is fatal: the process reports it and exits before any worker
// starts.
var ErrInputError = errors.New("invalid input")

// SessionFault wraps a launch, navigation, or protocol failure. The
// supervisor treats it like a not-actionable step: count the run as failed,
// cool down, go again.
type SessionFault struct {
	Phase string
	Err   error
}

func (f *SessionFault) Error() string {
	return fmt.Sprintf("session fault during %s: %v", f.Phase, f.Err)
}

func (f *SessionFault) Unwrap() error { return f.Err }

// Classify normalizes any error out of RunOnce into the run taxonomy.
// Input errors and exhausted steps pass through unchanged; everything else
// becomes a SessionFault.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInputError) || errors.Is(err, interact.ErrNotActionable) {
		return err
	}
	var fault *SessionFault
	if errors.As(err, &fault) {
		return err
	}
	return &SessionFault{Phase: "run", Err: err}
}
