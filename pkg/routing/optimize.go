package routing

import (
	"slices"

	"github.com/newtron-network/routeaudit/pkg/util"
)

// StepKind names the rule that produced a Step.
type StepKind string

const (
	// StepRedundant removes a literal duplicate.
	StepRedundant StepKind = "redundant"
	// StepContiguous merges two sibling subnets into their supernet.
	StepContiguous StepKind = "contiguous"
	// StepContained drops an entry already implied by a wider one.
	StepContained StepKind = "contained"
)

// AddrRange is a dotted-quad first/last address pair.
type AddrRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ContiguousDetail records the sibling destinations that were merged.
type ContiguousDetail struct {
	Bits         [2]string `json:"bits"`
	PrefixLength int       `json:"prefix_length"`
}

// ContainedDetail records the ranges of the kept and the dropped entry.
type ContainedDetail struct {
	Outer AddrRange `json:"outer"`
	Inner AddrRange `json:"inner"`
}

// Step is one rewrite performed by the optimizer. Snapshot is the whole
// working table right after the rewrite.
type Step struct {
	Kind       StepKind          `json:"kind"`
	Affected   []Entry           `json:"affected"`
	Result     Entry             `json:"result"`
	Contiguous *ContiguousDetail `json:"contiguous,omitempty"`
	Contained  *ContainedDetail  `json:"contained,omitempty"`
	Snapshot   []Entry           `json:"snapshot"`
}

// rule returns the rewritten working list and the step describing it, or
// ok=false when it has nothing to rewrite.
type rule func(work []Entry) (next []Entry, step Step, ok bool)

// rules in priority order. A lower rule only runs when none above it applies.
var rules = []rule{redundantRule, contiguousRule, containedRule}

// Optimize proposes a smaller table with the same forwarding behavior. The
// live table is not modified; the returned steps describe every rewrite in
// the order it was applied.
func (t *Table) Optimize() []Step {
	steps := Optimize(t.entries)
	util.WithTable(t.name).Debugf("optimize: %d entries, %d steps", len(t.entries), len(steps))
	return steps
}

// Optimize rewrites a private copy of entries to a fixed point. After each
// rewrite the scan restarts from the highest-priority rule, and every rule
// takes the first match in (i, j) list order, so the trace depends only on
// the input order. Each rewrite removes exactly one entry, bounding the run
// to len(entries)-1 steps.
func Optimize(entries []Entry) []Step {
	work := slices.Clone(entries)
	var steps []Step

	for {
		applied := false
		for _, r := range rules {
			next, step, ok := r(work)
			if !ok {
				continue
			}
			work = next
			step.Snapshot = slices.Clone(work)
			steps = append(steps, step)
			util.WithOperation("optimize").Debugf("step %d: %s -> %s", len(steps), step.Kind, step.Result)
			applied = true
			break
		}
		if !applied {
			return steps
		}
	}
}

func redundantRule(work []Entry) ([]Entry, Step, bool) {
	for i := 0; i < len(work); i++ {
		for j := i + 1; j < len(work); j++ {
			a, b := work[i], work[j]
			if a.Interface != b.Interface || !a.sameKey(b) {
				continue
			}
			return replacePair(work, i, j, a), Step{
				Kind:     StepRedundant,
				Affected: []Entry{a, b},
				Result:   a,
			}, true
		}
	}
	return work, Step{}, false
}

func contiguousRule(work []Entry) ([]Entry, Step, bool) {
	for i := 0; i < len(work); i++ {
		for j := i + 1; j < len(work); j++ {
			a, b := work[i], work[j]
			if a.Interface != b.Interface || a.Mask != b.Mask || !a.Destination.IsBuddyOf(b.Destination, a.Mask) {
				continue
			}
			merged := Entry{
				Destination: a.Destination.Min(b.Destination),
				Mask:        a.Mask.ShortenPrefixBy(1),
				Interface:   a.Interface,
				NextHop:     a.NextHop,
			}
			return replacePair(work, i, j, merged), Step{
				Kind:     StepContiguous,
				Affected: []Entry{a, b},
				Result:   merged,
				Contiguous: &ContiguousDetail{
					Bits:         [2]string{a.Destination.BitString(), b.Destination.BitString()},
					PrefixLength: a.Mask.PrefixLength(),
				},
			}, true
		}
	}
	return work, Step{}, false
}

func containedRule(work []Entry) ([]Entry, Step, bool) {
	for i := 0; i < len(work); i++ {
		for j := i + 1; j < len(work); j++ {
			for _, pair := range [2][2]int{{i, j}, {j, i}} {
				outer, inner := pair[0], pair[1]
				if !contains(work, outer, inner) {
					continue
				}
				o, in := work[outer], work[inner]
				return slices.Delete(slices.Clone(work), inner, inner+1), Step{
					Kind:     StepContained,
					Affected: []Entry{in},
					Result:   o,
					Contained: &ContainedDetail{
						Outer: AddrRange{Start: o.Destination.String(), End: o.LastAddress().String()},
						Inner: AddrRange{Start: in.Destination.String(), End: in.LastAddress().String()},
					},
				}, true
			}
		}
	}
	return work, Step{}, false
}

// contains reports whether work[inner] can be dropped in favor of work[outer].
func contains(work []Entry, outer, inner int) bool {
	o, in := work[outer], work[inner]
	if o.Interface != in.Interface || !o.Mask.IsLessSpecificThan(in.Mask) || !o.covers(in) {
		return false
	}
	for k, third := range work {
		if k == outer || k == inner || third.Interface == in.Interface {
			continue
		}
		// third would take over inner's range once inner is gone
		if third.Mask.IsMoreSpecificThan(o.Mask) && third.covers(in) {
			return false
		}
		// third carves a differently routed hole out of inner
		if third.Mask.IsMoreSpecificThan(in.Mask) && in.covers(third) {
			return false
		}
	}
	return true
}

// replacePair removes work[i] and work[j] (i < j) and appends e, leaving
// work itself untouched.
func replacePair(work []Entry, i, j int, e Entry) []Entry {
	next := make([]Entry, 0, len(work)-1)
	next = append(next, work[:i]...)
	next = append(next, work[i+1:j]...)
	next = append(next, work[j+1:]...)
	return append(next, e)
}
