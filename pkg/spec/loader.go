package spec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/newtron-network/routeaudit/pkg/ipaddr"
	"github.com/newtron-network/routeaudit/pkg/routing"
	"github.com/newtron-network/routeaudit/pkg/util"
)

// LoadTable reads a table spec file and builds a validated routing table.
func LoadTable(path string) (*routing.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading table spec %s: %w", path, err)
	}

	f, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("parsing table spec %s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	tbl, err := f.Build()
	if err != nil {
		return nil, fmt.Errorf("loading table %s: %w", f.Name, err)
	}
	util.WithTable(tbl.Name()).Debugf("loaded %d routes from %s", tbl.Len(), path)
	return tbl, nil
}

// ParseTable decodes YAML into a TableSpecFile without validating routes.
func ParseTable(data []byte) (*TableSpecFile, error) {
	var f TableSpecFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Build parses every route and inserts it into a new table in file order.
// Malformed routes are all reported together; the first route rejected by
// the table's invariants stops the build.
func (f *TableSpecFile) Build() (*routing.Table, error) {
	entries := make([]routing.Entry, 0, len(f.Routes))
	v := &util.ValidationBuilder{}
	for i, r := range f.Routes {
		e, err := r.entry()
		if err != nil {
			v.AddErrorf("route %d: %v", i, err)
			continue
		}
		entries = append(entries, e)
	}
	if err := v.Build(); err != nil {
		return nil, err
	}

	tbl := routing.NewTable(f.Name)
	for i, e := range entries {
		if err := tbl.AddRoute(e); err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}
	}
	return tbl, nil
}

func (r RouteSpec) entry() (routing.Entry, error) {
	var e routing.Entry
	var err error

	switch {
	case r.Prefix != "" && (r.Destination != "" || r.Mask != ""):
		return e, fmt.Errorf("prefix and destination/mask are mutually exclusive")
	case r.Prefix != "":
		if e.Destination, e.Mask, err = ipaddr.ParsePrefix(r.Prefix); err != nil {
			return e, err
		}
	case r.Destination != "" && r.Mask != "":
		if e.Destination, err = ipaddr.ParseAddr(r.Destination); err != nil {
			return e, fmt.Errorf("destination: %w", err)
		}
		if e.Mask, err = ipaddr.ParseAddr(r.Mask); err != nil {
			return e, fmt.Errorf("mask: %w", err)
		}
	default:
		return e, fmt.Errorf("prefix or destination and mask required")
	}

	if r.Interface == nil {
		return e, fmt.Errorf("interface required")
	}
	e.Interface = *r.Interface

	if r.NextHop == "" {
		return e, fmt.Errorf("next_hop required")
	}
	if e.NextHop, err = ipaddr.Parse(r.NextHop); err != nil {
		return e, fmt.Errorf("next_hop: %w", err)
	}
	return e, nil
}

// FromEntries renders entries back into spec form. Contiguous masks use
// prefix notation; any other mask is written as destination and mask.
func FromEntries(name string, entries []routing.Entry) *TableSpecFile {
	f := &TableSpecFile{Name: name, Routes: make([]RouteSpec, 0, len(entries))}
	for _, e := range entries {
		iface := e.Interface
		r := RouteSpec{Interface: &iface, NextHop: e.NextHop.String()}
		if mask, _ := ipaddr.MaskFromLength(e.Mask.PrefixLength()); mask == e.Mask {
			r.Prefix = fmt.Sprintf("%s/%d", e.Destination, e.Mask.PrefixLength())
		} else {
			r.Destination, r.Mask = e.Destination.String(), e.Mask.String()
		}
		f.Routes = append(f.Routes, r)
	}
	return f
}

// Save writes the spec file as YAML, creating parent directories. A file
// that would not load back into a table is not written.
func (f *TableSpecFile) Save(path string) error {
	if _, err := f.Build(); err != nil {
		return fmt.Errorf("table %s would not load: %w", f.Name, err)
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
