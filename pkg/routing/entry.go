// Package routing implements a static IPv4 routing table: validated inserts,
// longest-prefix-match lookup, and an optimizer that proposes a smaller table
// with the same forwarding behavior.
package routing

import (
	"fmt"
	"net/netip"

	"github.com/newtron-network/routeaudit/pkg/ipaddr"
)

// Entry is one configured route.
type Entry struct {
	Destination ipaddr.Addr  `json:"destination"`
	Mask        ipaddr.Addr  `json:"mask"`
	Interface   int          `json:"interface"`
	NextHop     ipaddr.Value `json:"next_hop"`
}

// String renders the entry as "dest/len dev N via hop".
func (e Entry) String() string {
	return fmt.Sprintf("%s/%d dev %d via %s", e.Destination, e.Mask.PrefixLength(), e.Interface, e.NextHop)
}

// Prefix returns the entry's network as a masked prefix.
func (e Entry) Prefix() netip.Prefix {
	return e.Destination.Prefix(e.Mask)
}

// LastAddress returns the broadcast address of the entry's network.
func (e Entry) LastAddress() ipaddr.Addr {
	return e.Destination.LastAddress(e.Mask)
}

// sameKey reports whether e and other configure the same (destination, mask).
func (e Entry) sameKey(other Entry) bool {
	return e.Destination == other.Destination && e.Mask == other.Mask
}

// covers reports whether e's network contains all of other's.
func (e Entry) covers(other Entry) bool {
	return e.Destination.RangeContains(e.Mask, other.Destination, other.Mask)
}
