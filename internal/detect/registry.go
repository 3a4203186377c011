package detect

import (
	"fmt"

	"github.com/edgescan/edgescan/internal/snapshot"
)

// Registry is an ordered, named collection of detectors. It is constructed
// once at startup, validated, and read-only afterwards, so it can be shared
// across all evaluation goroutines without locking. It is passed into the
// evaluation entry point explicitly rather than living in package state, so
// parallel tests can run with different detector sets.
type Registry struct {
	ordered []Detector
	byType  map[string]Detector
}

// NewRegistry builds a registry from the given detectors in order. Detector
// types must be unique and factor weights must be positive.
func NewRegistry(detectors ...Detector) (*Registry, error) {
	r := &Registry{
		ordered: make([]Detector, 0, len(detectors)),
		byType:  make(map[string]Detector, len(detectors)),
	}
	for _, d := range detectors {
		if d.Type() == "" {
			return nil, fmt.Errorf("detector with empty type")
		}
		if _, dup := r.byType[d.Type()]; dup {
			return nil, fmt.Errorf("duplicate detector type %q", d.Type())
		}
		for _, f := range d.Factors() {
			if f.Weight <= 0 {
				return nil, fmt.Errorf("detector %s: factor %q has non-positive weight %.3f", d.Type(), f.Name, f.Weight)
			}
			if f.Evaluate == nil {
				return nil, fmt.Errorf("detector %s: factor %q has nil evaluate", d.Type(), f.Name)
			}
		}
		r.ordered = append(r.ordered, d)
		r.byType[d.Type()] = d
	}
	return r, nil
}

// All returns the registered detectors in registration order.
func (r *Registry) All() []Detector {
	return r.ordered
}

// Get looks up a detector by its type id.
func (r *Registry) Get(detectorType string) (Detector, bool) {
	d, ok := r.byType[detectorType]
	return d, ok
}

// Len returns the number of registered detectors.
func (r *Registry) Len() int {
	return len(r.ordered)
}

// ForAssetClass returns the detectors applicable to the given asset class,
// in registration order.
func (r *Registry) ForAssetClass(class snapshot.AssetClass) []Detector {
	var out []Detector
	for _, d := range r.ordered {
		if detectorServes(d, class) {
			out = append(out, d)
		}
	}
	return out
}

// ForSnapshot returns the detectors that can evaluate the snapshot: matching
// asset class, and skipping options-data detectors when the snapshot carries
// no options-derived features.
func (r *Registry) ForSnapshot(s *snapshot.Snapshot) []Detector {
	var out []Detector
	for _, d := range r.ordered {
		if !detectorServes(d, s.AssetClass) {
			continue
		}
		if d.RequiresOptionsData() && !s.HasOptionsData() {
			continue
		}
		out = append(out, d)
	}
	return out
}

func detectorServes(d Detector, class snapshot.AssetClass) bool {
	classes := d.AssetClasses()
	if len(classes) == 0 {
		return true
	}
	for _, c := range classes {
		if c == class {
			return true
		}
	}
	return false
}
