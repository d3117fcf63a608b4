package configdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newtron-network/routeaudit/pkg/ipaddr"
	"github.com/newtron-network/routeaudit/pkg/util"
)

func TestSplitRouteKey(t *testing.T) {
	tests := []struct {
		key        string
		wantVRF    string
		wantPrefix string
	}{
		{"10.0.0.0/8", "default", "10.0.0.0/8"},
		{"default|10.0.0.0/8", "default", "10.0.0.0/8"},
		{"Vrf-red|192.168.0.0/24", "Vrf-red", "192.168.0.0/24"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			vrf, prefix := SplitRouteKey(tt.key)
			assert.Equal(t, tt.wantVRF, vrf)
			assert.Equal(t, tt.wantPrefix, prefix)
		})
	}
}

func TestBuildTable(t *testing.T) {
	routes := map[string]StaticRouteEntry{
		"192.168.1.0/24":        {NextHop: "10.1.0.1", Interface: "Ethernet4"},
		"192.168.0.0/24":        {NextHop: "10.1.0.1", Interface: "Ethernet4"},
		"default|0.0.0.0/0":     {NextHop: "10.0.0.1", Interface: "Ethernet0"},
		"10.9.0.0/16":           {Interface: "Ethernet8"},
		"Vrf-red|172.16.0.0/12": {NextHop: "10.2.0.1", Interface: "Ethernet12"},
		"10.10.0.0/16":          {Blackhole: "true"},
		"10.11.0.0/16":          {NextHop: "10.1.0.1,10.0.0.1", Interface: "Ethernet4,Ethernet0"},
		"10.12.0.0/16":          {NextHop: "10.3.0.1", Interface: "Ethernet16", NextHopVRF: "Vrf-blue"},
		"10.13.0.0/16":          {NextHop: "10.0.0.1"},
		"10.14.0.0/16":          {NextHop: "10.9.9.9", Interface: "Ethernet0"},
		"10.15.0.0/33":          {NextHop: "10.0.0.1", Interface: "Ethernet0"},
		"10.16.0.0/16":          {NextHop: "10.0.0.1", Interface: "mgmt"},
	}

	tbl, skipped := BuildTable("leaf1", "", routes)
	assert.Equal(t, "leaf1", tbl.Name())

	var got []string
	for _, e := range tbl.Entries() {
		got = append(got, e.String())
	}
	assert.Equal(t, []string{
		"0.0.0.0/0 dev 0 via 10.0.0.1",
		"10.9.0.0/16 dev 8 via On-link",
		"192.168.0.0/24 dev 4 via 10.1.0.1",
		"192.168.1.0/24 dev 4 via 10.1.0.1",
	}, got, "sorted by destination")

	reasons := map[string]error{}
	for _, s := range skipped {
		reasons[s.Key] = s.Err
	}
	require.Len(t, reasons, 7)
	assert.ErrorIs(t, reasons["10.10.0.0/16"], ErrUnsupportedRoute)
	assert.ErrorIs(t, reasons["10.11.0.0/16"], ErrUnsupportedRoute)
	assert.ErrorIs(t, reasons["10.12.0.0/16"], ErrUnsupportedRoute)
	assert.ErrorIs(t, reasons["10.13.0.0/16"], ErrUnsupportedRoute)
	assert.ErrorIs(t, reasons["10.14.0.0/16"], util.ErrInterfaceNextHopMismatch)
	assert.ErrorIs(t, reasons["10.15.0.0/33"], util.ErrInvalidAddressFormat)
	assert.Error(t, reasons["10.16.0.0/16"])
	assert.Equal(t, "10.10.0.0/16", skipped[0].Key, "skipped sorted by key")
}

func TestBuildTable_VRF(t *testing.T) {
	routes := map[string]StaticRouteEntry{
		"10.0.0.0/8":            {NextHop: "10.0.0.1", Interface: "Ethernet0"},
		"Vrf-red|172.16.0.0/12": {NextHop: "10.2.0.1", Interface: "Ethernet12"},
	}

	tbl, skipped := BuildTable("leaf1", "Vrf-red", routes)
	assert.Empty(t, skipped)
	require.Equal(t, 1, tbl.Len())

	iface, err := tbl.NextHopInterface(ipaddr.MustParseAddr("172.20.1.1"))
	require.NoError(t, err)
	assert.Equal(t, 12, iface)
}

func TestStaticRouteEntry_Fields(t *testing.T) {
	e := StaticRouteEntry{NextHop: "10.0.0.1", Interface: "Ethernet0"}
	assert.Equal(t, map[string]string{"nexthop": "10.0.0.1", "ifname": "Ethernet0"}, e.Fields())
	assert.Equal(t, e, staticRouteFromHash(e.Fields()))
}
