package configdb

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/newtron-network/routeaudit/pkg/ipaddr"
	"github.com/newtron-network/routeaudit/pkg/routing"
	"github.com/newtron-network/routeaudit/pkg/util"
)

// ErrUnsupportedRoute marks STATIC_ROUTE entries a single-path table cannot hold.
var ErrUnsupportedRoute = errors.New("unsupported static route")

// SkippedRoute is a STATIC_ROUTE entry that was not loaded, and why.
type SkippedRoute struct {
	Key string
	Err error
}

func (s SkippedRoute) String() string {
	return fmt.Sprintf("%s: %v", s.Key, s.Err)
}

// SplitRouteKey splits a STATIC_ROUTE key into VRF and prefix.
// Keys without a VRF component belong to DefaultVRF.
func SplitRouteKey(key string) (vrf, prefix string) {
	if i := strings.LastIndex(key, "|"); i >= 0 {
		return key[:i], key[i+1:]
	}
	return DefaultVRF, key
}

type candidate struct {
	key   string
	entry routing.Entry
}

// BuildTable converts the STATIC_ROUTE entries of one VRF into a routing
// table. Routes are inserted ordered by destination, then prefix length.
// Entries that cannot be represented or that the table rejects are returned
// as skipped rather than failing the whole load.
func BuildTable(name, vrf string, routes map[string]StaticRouteEntry) (*routing.Table, []SkippedRoute) {
	if vrf == "" {
		vrf = DefaultVRF
	}

	var skipped []SkippedRoute
	var cands []candidate
	for key, sr := range routes {
		v, prefix := SplitRouteKey(key)
		if v != vrf {
			continue
		}
		e, err := toEntry(prefix, sr)
		if err != nil {
			skipped = append(skipped, SkippedRoute{Key: key, Err: err})
			continue
		}
		cands = append(cands, candidate{key: key, entry: e})
	}

	slices.SortFunc(cands, func(a, b candidate) int {
		if c := cmp.Compare(a.entry.Destination, b.entry.Destination); c != 0 {
			return c
		}
		if c := cmp.Compare(a.entry.Mask.PrefixLength(), b.entry.Mask.PrefixLength()); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})

	tbl := routing.NewTable(name)
	for _, c := range cands {
		if err := tbl.AddRoute(c.entry); err != nil {
			skipped = append(skipped, SkippedRoute{Key: c.key, Err: err})
		}
	}

	slices.SortFunc(skipped, func(a, b SkippedRoute) int { return cmp.Compare(a.Key, b.Key) })
	for _, s := range skipped {
		util.WithTable(name).Debugf("skipping static route %s", s)
	}
	return tbl, skipped
}

func toEntry(prefix string, sr StaticRouteEntry) (routing.Entry, error) {
	var e routing.Entry

	if sr.Blackhole == "true" {
		return e, fmt.Errorf("%w: blackhole", ErrUnsupportedRoute)
	}
	if sr.NextHopVRF != "" {
		return e, fmt.Errorf("%w: next hop in vrf %s", ErrUnsupportedRoute, sr.NextHopVRF)
	}
	if strings.Contains(sr.NextHop, ",") || strings.Contains(sr.Interface, ",") {
		return e, fmt.Errorf("%w: multiple next hops", ErrUnsupportedRoute)
	}
	if sr.Interface == "" {
		return e, fmt.Errorf("%w: no ifname", ErrUnsupportedRoute)
	}

	dest, mask, err := ipaddr.ParsePrefix(prefix)
	if err != nil {
		return e, err
	}
	iface, err := util.InterfaceIndex(sr.Interface)
	if err != nil {
		return e, err
	}

	hop := ipaddr.OnLink
	if sr.NextHop != "" {
		if hop, err = ipaddr.Parse(sr.NextHop); err != nil {
			return e, err
		}
	}

	return routing.Entry{Destination: dest, Mask: mask, Interface: iface, NextHop: hop}, nil
}

// LoadTable reads STATIC_ROUTE from the device and builds the table for vrf.
func (c *Client) LoadTable(ctx context.Context, name, vrf string) (*routing.Table, []SkippedRoute, error) {
	routes, err := c.StaticRoutes(ctx)
	if err != nil {
		return nil, nil, err
	}
	tbl, skipped := BuildTable(name, vrf, routes)
	util.WithTable(name).Debugf("loaded %d of %d static routes from %s", tbl.Len(), len(routes), c.Addr())
	return tbl, skipped, nil
}
