// Package configdb reads static routes from a SONiC device's CONFIG_DB
// (Redis database 4) and loads them into a routing table.
package configdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
)

// ConfigDB database index on a SONiC device.
const ConfigDBIndex = 4

// StaticRouteTable is the CONFIG_DB table holding static routes.
const StaticRouteTable = "STATIC_ROUTE"

// DefaultVRF is used for STATIC_ROUTE keys that carry no VRF component.
const DefaultVRF = "default"

// StaticRouteEntry represents a static route in CONFIG_DB's STATIC_ROUTE table.
// NextHop and Interface may hold comma-separated lists (ECMP).
type StaticRouteEntry struct {
	NextHop    string `json:"nexthop,omitempty"`
	Interface  string `json:"ifname,omitempty"`
	Distance   string `json:"distance,omitempty"`
	NextHopVRF string `json:"nexthop-vrf,omitempty"`
	Blackhole  string `json:"blackhole,omitempty"`
}

func staticRouteFromHash(vals map[string]string) StaticRouteEntry {
	return StaticRouteEntry{
		NextHop:    vals["nexthop"],
		Interface:  vals["ifname"],
		Distance:   vals["distance"],
		NextHopVRF: vals["nexthop-vrf"],
		Blackhole:  vals["blackhole"],
	}
}

// Fields renders the entry as a CONFIG_DB hash, omitting empty fields.
func (e StaticRouteEntry) Fields() map[string]string {
	fields := map[string]string{}
	for k, v := range map[string]string{
		"nexthop":     e.NextHop,
		"ifname":      e.Interface,
		"distance":    e.Distance,
		"nexthop-vrf": e.NextHopVRF,
		"blackhole":   e.Blackhole,
	} {
		if v != "" {
			fields[k] = v
		}
	}
	return fields
}

// Client wraps a Redis client for CONFIG_DB access.
type Client struct {
	client *redis.Client
}

// NewClient creates a CONFIG_DB client for the Redis server at addr.
func NewClient(addr string) *Client {
	return &Client{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   ConfigDBIndex,
		}),
	}
}

// Connect tests the connection.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connecting to CONFIG_DB at %s: %w", c.client.Options().Addr, err)
	}
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Addr returns the Redis address the client talks to.
func (c *Client) Addr() string {
	return c.client.Options().Addr
}

// StaticRoutes reads every STATIC_ROUTE entry, keyed by the part of the
// Redis key after "STATIC_ROUTE|" (either "prefix" or "vrf|prefix").
func (c *Client) StaticRoutes(ctx context.Context) (map[string]StaticRouteEntry, error) {
	keys, err := c.client.Keys(ctx, StaticRouteTable+"|*").Result()
	if err != nil {
		return nil, fmt.Errorf("listing %s keys: %w", StaticRouteTable, err)
	}

	routes := make(map[string]StaticRouteEntry, len(keys))
	for _, key := range keys {
		vals, err := c.client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
		routes[strings.TrimPrefix(key, StaticRouteTable+"|")] = staticRouteFromHash(vals)
	}
	return routes, nil
}

// SetStaticRoute writes one STATIC_ROUTE entry.
func (c *Client) SetStaticRoute(ctx context.Context, key string, e StaticRouteEntry) error {
	fields := e.Fields()
	if len(fields) == 0 {
		return fmt.Errorf("static route %s has no fields", key)
	}
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return c.client.HSet(ctx, StaticRouteTable+"|"+key, args...).Err()
}
