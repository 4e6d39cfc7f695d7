package diagnostics

import (
	"slices"

	"erlfix/internal/diag"
)

// Registry is an ordered table of rules. The order fixes the order rule
// output is concatenated in before the final sort.
type Registry struct {
	descriptors []Descriptor
}

func NewRegistry(descriptors ...Descriptor) *Registry {
	return &Registry{descriptors: slices.Clone(descriptors)}
}

// DefaultRegistry holds every native rule.
func DefaultRegistry() *Registry {
	return NewRegistry(
		moduleMismatch,
		redundantAssignment,
		compileWarnMissingSpec,
		unspecificInclude,
		inefficientLast,
		expressionCanBeSimplified,
	)
}

func (r *Registry) All() []Descriptor {
	return slices.Clone(r.descriptors)
}

func (r *Registry) Lookup(code diag.Code) (Descriptor, bool) {
	for _, d := range r.descriptors {
		if d.Code == code {
			return d, true
		}
	}
	return Descriptor{}, false
}

func (r *Registry) Len() int {
	return len(r.descriptors)
}
