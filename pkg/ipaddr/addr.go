// Package ipaddr implements the 32-bit IPv4 address/mask value used by the
// routing table, with the bit arithmetic needed for prefix comparison,
// containment and mask manipulation.
//
// Addresses and masks share one representation (Addr). Values that may also
// be the "on-link" next-hop sentinel are carried as Value; the only way to do
// arithmetic on a Value is through Value.Addr, which rejects the sentinel.
package ipaddr

import (
	"fmt"
	"math/bits"
	"net/netip"
	"strconv"
	"strings"

	"github.com/newtron-network/routeaudit/pkg/util"
)

// Addr is a numeric IPv4 quantity: a host address, a subnet mask or a next hop.
type Addr uint32

const allOnes Addr = 0xFFFFFFFF

// FromOctets builds an Addr from its four octets, most significant first.
func FromOctets(a, b, c, d byte) Addr {
	return Addr(uint32(a)<<24 | uint32(b)<<16 | uint32(c)<<8 | uint32(d))
}

// MaskFromLength returns the contiguous mask with n leading one bits.
func MaskFromLength(n int) (Addr, error) {
	if n < 0 || n > 32 {
		return 0, util.NewAddressError("mask", strconv.Itoa(n), util.ErrInvalidAddressFormat)
	}
	if n == 0 {
		return 0, nil
	}
	return allOnes << (32 - n), nil
}

// ParseAddr parses a dotted-quad address. The on-link literal is rejected
// with ErrOnLinkUnsupported since it has no numeric value.
func ParseAddr(s string) (Addr, error) {
	v, err := Parse(s)
	if err != nil {
		return 0, err
	}
	return v.Addr()
}

// MustParseAddr is like ParseAddr but panics on error. Intended for constants
// and tests.
func MustParseAddr(s string) Addr {
	a, err := ParseAddr(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ParsePrefix parses "a.b.c.d/n" into a destination and its mask.
func ParsePrefix(s string) (dest, mask Addr, err error) {
	ip, n, ok := util.SplitIPMask(s)
	if !ok {
		return 0, 0, util.NewAddressError("parse-prefix", s, util.ErrInvalidAddressFormat)
	}
	if dest, err = ParseAddr(ip); err != nil {
		return 0, 0, err
	}
	if mask, err = MaskFromLength(n); err != nil {
		return 0, 0, util.NewAddressError("parse-prefix", s, util.ErrInvalidAddressFormat)
	}
	return dest, mask, nil
}

// Octets returns the four octets, most significant first.
func (a Addr) Octets() [4]byte {
	return [4]byte{byte(a >> 24), byte(a >> 16), byte(a >> 8), byte(a)}
}

// String returns the dotted-quad form.
func (a Addr) String() string {
	o := a.Octets()
	return fmt.Sprintf("%d.%d.%d.%d", o[0], o[1], o[2], o[3])
}

// BitString returns the 32-character big-endian binary form.
func (a Addr) BitString() string {
	return fmt.Sprintf("%032b", uint32(a))
}

// MatchLength counts the leading bits a and other agree on, scanning from
// the most significant bit. Identical values match on all 32.
func (a Addr) MatchLength(other Addr) int {
	return bits.LeadingZeros32(uint32(a ^ other))
}

// PrefixLength is the number of leading one bits when a is used as a mask.
func (a Addr) PrefixLength() int {
	return a.MatchLength(allOnes)
}

// MatchWithinPrefix reports mask's prefix length if a and query agree on at
// least that many leading bits.
func (a Addr) MatchWithinPrefix(query, mask Addr) (int, bool) {
	n := mask.PrefixLength()
	if a.MatchLength(query) < n {
		return 0, false
	}
	return n, true
}

// IsBuddyOf reports whether a and other are sibling subnets under mask, that
// is they differ first in the last bit of the prefix.
func (a Addr) IsBuddyOf(other, mask Addr) bool {
	return a.MatchLength(other) == mask.PrefixLength()-1
}

// Min returns the numerically smaller of a and other.
func (a Addr) Min(other Addr) Addr {
	return min(a, other)
}

// ShortenPrefixBy returns a mask n bits shorter than a, clamped to [0,32].
func (a Addr) ShortenPrefixBy(n int) Addr {
	length := max(min(a.PrefixLength()-n, 32), 0)
	m, _ := MaskFromLength(length)
	return m
}

// IsLessSpecificThan compares prefix lengths of two masks.
func (a Addr) IsLessSpecificThan(other Addr) bool {
	return a.PrefixLength() < other.PrefixLength()
}

// IsMoreSpecificThan compares prefix lengths of two masks.
func (a Addr) IsMoreSpecificThan(other Addr) bool {
	return a.PrefixLength() > other.PrefixLength()
}

// RangeContains reports whether the network a/selfMask covers every address
// of other/otherMask.
func (a Addr) RangeContains(selfMask, other, otherMask Addr) bool {
	lo, hi := a&selfMask, a|^selfMask
	otherLo, otherHi := other&otherMask, other|^otherMask
	return otherLo >= lo && otherHi <= hi
}

// LastAddress returns the broadcast address of a under mask.
func (a Addr) LastAddress(mask Addr) Addr {
	return a | ^mask
}

// Prefix converts a/mask into a masked netip.Prefix of mask's prefix length.
func (a Addr) Prefix(mask Addr) netip.Prefix {
	return netip.PrefixFrom(netip.AddrFrom4(a.Octets()), mask.PrefixLength()).Masked()
}

// Value is either a numeric Addr or the OnLink sentinel.
type Value struct {
	addr   Addr
	onLink bool
}

// OnLink designates a next hop reachable directly on the local link.
var OnLink = Value{onLink: true}

// Numeric wraps a as a Value.
func Numeric(a Addr) Value {
	return Value{addr: a}
}

// Parse accepts four dot-separated decimal octets or, in any case, the
// literal "on-link".
func Parse(s string) (Value, error) {
	text := strings.TrimSpace(s)
	if strings.EqualFold(text, "on-link") {
		return OnLink, nil
	}

	parts := strings.Split(text, ".")
	if len(parts) != 4 {
		return Value{}, util.NewAddressError("parse", s, util.ErrInvalidAddressFormat)
	}
	var octets [4]byte
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return Value{}, util.NewAddressError("parse", s, util.ErrInvalidAddressFormat)
		}
		octets[i] = byte(n)
	}
	return Numeric(FromOctets(octets[0], octets[1], octets[2], octets[3])), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Value {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsOnLink reports whether v is the on-link sentinel.
func (v Value) IsOnLink() bool {
	return v.onLink
}

// Addr returns the numeric value, or ErrOnLinkUnsupported for OnLink.
func (v Value) Addr() (Addr, error) {
	if v.onLink {
		return 0, util.NewAddressError("numeric", "", util.ErrOnLinkUnsupported)
	}
	return v.addr, nil
}

// Equal compares numeric values; OnLink equals only OnLink.
func (v Value) Equal(other Value) bool {
	if v.onLink || other.onLink {
		return v.onLink == other.onLink
	}
	return v.addr == other.addr
}

func (v Value) String() string {
	if v.onLink {
		return "On-link"
	}
	return v.addr.String()
}

// MarshalText renders v the way String does.
func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText parses text with Parse.
func (v *Value) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalText renders a in dotted-quad form.
func (a Addr) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses a dotted-quad address.
func (a *Addr) UnmarshalText(text []byte) error {
	parsed, err := ParseAddr(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
