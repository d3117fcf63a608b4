package routing

import (
	"slices"

	"github.com/newtron-network/routeaudit/pkg/ipaddr"
	"github.com/newtron-network/routeaudit/pkg/util"
)

// Table is an insertion-ordered set of routing entries. Every entry passed
// validation when it was added, so the table always satisfies:
//   - no two entries share (destination, mask) with a different interface or next hop
//   - interface and next hop form a bijection across the table
//   - interfaces are non-negative
//
// Table does no locking; callers that mix writes with lookups from several
// goroutines must serialize access.
type Table struct {
	name    string
	entries []Entry
}

// NewTable creates an empty table. The name is only used for logging.
func NewTable(name string) *Table {
	return &Table{name: name}
}

// Name returns the table's name.
func (t *Table) Name() string {
	return t.name
}

// AddEntry validates and appends a route. On error the table is unchanged.
func (t *Table) AddEntry(dest, mask ipaddr.Addr, iface int, nextHop ipaddr.Value) error {
	return t.AddRoute(Entry{Destination: dest, Mask: mask, Interface: iface, NextHop: nextHop})
}

// AddRoute is AddEntry taking a ready-made Entry.
func (t *Table) AddRoute(e Entry) error {
	if err := t.validate(e); err != nil {
		util.WithTable(t.name).Debugf("rejected %s: %v", e, err)
		return err
	}
	t.entries = append(t.entries, e)
	return nil
}

// validate checks e against the table's invariants, in order: interface
// range, (destination, mask) conflicts, then the interface/next-hop pairing.
func (t *Table) validate(e Entry) error {
	if e.Interface < 0 {
		return util.NewEntryError(e.String(), "", util.ErrInvalidOutputInterface)
	}

	for _, existing := range t.entries {
		if existing.sameKey(e) && (existing.Interface != e.Interface || !existing.NextHop.Equal(e.NextHop)) {
			return util.NewEntryError(e.String(), existing.String(), util.ErrDuplicateEntryConflict)
		}
	}

	for _, existing := range t.entries {
		sameIface := existing.Interface == e.Interface
		sameHop := existing.NextHop.Equal(e.NextHop)
		if sameIface != sameHop {
			return util.NewEntryError(e.String(), existing.String(), util.ErrInterfaceNextHopMismatch)
		}
	}

	return nil
}

// Entries returns a copy of the entries in insertion order.
func (t *Table) Entries() []Entry {
	return slices.Clone(t.entries)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}
