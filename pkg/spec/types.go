// Package spec reads and writes routing-table specification files (YAML).
package spec

// TableSpecFile describes one static routing table.
//
//	name: core-rtr
//	routes:
//	  - prefix: 192.168.0.0/24
//	    interface: 1
//	    next_hop: 1.1.1.1
//	  - destination: 0.0.0.0
//	    mask: 0.0.0.0
//	    interface: 0
//	    next_hop: on-link
type TableSpecFile struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Routes      []RouteSpec `yaml:"routes"`
}

// RouteSpec is one route. Either Prefix (CIDR notation) or Destination plus
// Mask (dotted quads) must be given.
type RouteSpec struct {
	Prefix      string `yaml:"prefix,omitempty"`
	Destination string `yaml:"destination,omitempty"`
	Mask        string `yaml:"mask,omitempty"`
	Interface   *int   `yaml:"interface"`
	NextHop     string `yaml:"next_hop"`
}
