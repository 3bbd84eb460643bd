package syncer

import (
	"fmt"
	"io"
	"os"
)

// Materializer produces a target file from its source. Implementations must be
// safe for concurrent use; every call operates on a distinct target path.
type Materializer interface {
	Materialize(source, target string) error
	// Name identifies the strategy for logs and reports.
	Name() string
}

// NewMaterializer resolves a validated Strategy to its implementation. An
// unknown strategy is a configuration error, caught before any worker runs.
func NewMaterializer(strategy Strategy) (Materializer, error) {
	switch strategy {
	case StrategyCopy:
		return copyMaterializer{}, nil
	case StrategyLink:
		return linkMaterializer{}, nil
	default:
		return nil, fmt.Errorf("%w: invalid strategy '%s' (use 'copy' or 'link')", ErrConfigValidation, strategy)
	}
}

// replaceTarget clears any pre-existing file at target so the strategy never
// collides with a stale copy or link.
func replaceTarget(target string) error {
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

type copyMaterializer struct{}

func (copyMaterializer) Name() string { return string(StrategyCopy) }

func (copyMaterializer) Materialize(source, target string) error {
	if err := replaceTarget(target); err != nil {
		return err
	}
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(target)
		return err
	}
	return out.Close()
}

type linkMaterializer struct{}

func (linkMaterializer) Name() string { return string(StrategyLink) }

func (linkMaterializer) Materialize(source, target string) error {
	if err := replaceTarget(target); err != nil {
		return err
	}
	return os.Symlink(source, target)
}
