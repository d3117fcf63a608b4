package routing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/newtron-network/routeaudit/pkg/ipaddr"
)

// route builds an entry from "a.b.c.d/len" notation.
func route(t *testing.T, prefix string, iface int, nextHop string) Entry {
	t.Helper()
	dest, mask, err := ipaddr.ParsePrefix(prefix)
	require.NoError(t, err)
	return Entry{Destination: dest, Mask: mask, Interface: iface, NextHop: ipaddr.MustParse(nextHop)}
}

// mustAdd inserts a route and fails the test if validation rejects it.
func mustAdd(t *testing.T, tbl *Table, prefix string, iface int, nextHop string) {
	t.Helper()
	require.NoError(t, tbl.AddRoute(route(t, prefix, iface, nextHop)))
}

func setDefaultGateway(t *testing.T, tbl *Table, iface int, nextHop string) {
	t.Helper()
	mustAdd(t, tbl, "0.0.0.0/0", iface, nextHop)
}

func addr(s string) ipaddr.Addr {
	return ipaddr.MustParseAddr(s)
}
