package neat

import (
	"errors"

	"github.com/baldhumanity/neatgen/neat/nn"
)

// Sentinel errors returned (wrapped) by the engine. Callers match them with
// errors.Is; none of them is recoverable inside a generation.
var (
	// ErrConfig reports an invalid configuration value.
	ErrConfig = errors.New("config error")
	// ErrCycle reports a link graph that is no longer acyclic.
	ErrCycle = nn.ErrCycle
	// ErrInputSize reports an evaluation with the wrong number of inputs.
	ErrInputSize = nn.ErrInputSize
	// ErrLinkNotFound reports a missing link or innovation lookup.
	ErrLinkNotFound = errors.New("link not found")
	// ErrParentSelection reports a fitness-proportionate draw that could not be resolved.
	ErrParentSelection = errors.New("parent selection failed")
	// ErrInvalidFitness reports a negative, NaN or infinite genome fitness.
	ErrInvalidFitness = errors.New("invalid fitness")
	// ErrExtinction reports that no species survived maintenance.
	ErrExtinction = errors.New("population extinct")
)
