package routing

import (
	"github.com/newtron-network/routeaudit/pkg/ipaddr"
	"github.com/newtron-network/routeaudit/pkg/util"
)

// Resolve returns the entry with the longest prefix covering query.
//
// When several entries match at the same maximal prefix length the one
// inserted first wins. Such a tie needs two entries for the same network;
// with host bits cleared that is the same (destination, mask) key, which
// validation only admits as an exact copy. Destinations that carry host bits
// (10.0.0.1/8 next to 10.0.0.2/8) can still tie.
func (t *Table) Resolve(query ipaddr.Addr) (Entry, error) {
	best, bestLen := -1, -1
	for i, e := range t.entries {
		n, ok := e.Destination.MatchWithinPrefix(query, e.Mask)
		if ok && n > bestLen {
			best, bestLen = i, n
		}
	}
	if best < 0 {
		return Entry{}, &util.LookupError{Destination: query.String()}
	}
	return t.entries[best], nil
}

// NextHopInterface returns the output interface for query by longest-prefix
// match, or ErrNoRouteToDestination.
func (t *Table) NextHopInterface(query ipaddr.Addr) (int, error) {
	e, err := t.Resolve(query)
	if err != nil {
		return 0, err
	}
	return e.Interface, nil
}
