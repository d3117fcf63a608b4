package routing

import (
	"fmt"
	"net/netip"

	"github.com/gaissmai/bart"

	"github.com/newtron-network/routeaudit/pkg/ipaddr"
	"github.com/newtron-network/routeaudit/pkg/util"
)

// ForwardingError reports the first probed address whose output interface
// differs between two tables. An interface of -1 means no route.
type ForwardingError struct {
	Addr   string
	Before int
	After  int
}

func (e *ForwardingError) Error() string {
	return fmt.Sprintf("%v: %s resolves to interface %d before and %d after", util.ErrForwardingChanged, e.Addr, e.Before, e.After)
}

func (e *ForwardingError) Unwrap() error {
	return util.ErrForwardingChanged
}

// Verify checks that before and after forward every IPv4 address to the
// same interface. Lookup results only change at network boundaries, so it
// is enough to probe the first address of every network, the address just
// past its end, and 0.0.0.0.
func Verify(before, after []Entry) error {
	want, got := newFIB(before), newFIB(after)

	for _, probe := range boundaries(before, after) {
		ip := netip.AddrFrom4(probe.Octets())
		w, wok := want.Lookup(ip)
		g, gok := got.Lookup(ip)
		if !wok {
			w = -1
		}
		if !gok {
			g = -1
		}
		if w != g {
			return &ForwardingError{Addr: probe.String(), Before: w, After: g}
		}
	}
	return nil
}

// VerifySteps checks the final snapshot of an optimizer run against the
// table it started from.
func VerifySteps(start []Entry, steps []Step) error {
	if len(steps) == 0 {
		return nil
	}
	return Verify(start, steps[len(steps)-1].Snapshot)
}

// newFIB indexes entries by prefix. For repeated prefixes the first entry is
// kept, matching Resolve's tie-break.
func newFIB(entries []Entry) *bart.Table[int] {
	fib := new(bart.Table[int])
	seen := make(map[netip.Prefix]bool, len(entries))
	for _, e := range entries {
		pfx := e.Prefix()
		if seen[pfx] {
			continue
		}
		seen[pfx] = true
		fib.Insert(pfx, e.Interface)
	}
	return fib
}

func boundaries(tables ...[]Entry) []ipaddr.Addr {
	seen := map[ipaddr.Addr]bool{0: true}
	probes := []ipaddr.Addr{0}
	add := func(a ipaddr.Addr) {
		if !seen[a] {
			seen[a] = true
			probes = append(probes, a)
		}
	}
	for _, entries := range tables {
		for _, e := range entries {
			// lookup only honors the mask's leading ones
			mask, _ := ipaddr.MaskFromLength(e.Mask.PrefixLength())
			add(e.Destination & mask)
			if last := e.Destination.LastAddress(mask); last != ^ipaddr.Addr(0) {
				add(last + 1)
			}
		}
	}
	return probes
}
