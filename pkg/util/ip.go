package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var parseInterfaceRegexp = regexp.MustCompile(`^([a-zA-Z-]*)(\d+)$`)

// SplitIPMask splits a CIDR notation into IP and mask length.
// Returns ok=false if there is no "/len" suffix or it is not a number.
func SplitIPMask(cidr string) (ip string, maskLen int, ok bool) {
	parts := strings.Split(strings.TrimSpace(cidr), "/")
	if len(parts) != 2 {
		return cidr, 0, false
	}
	maskLen, err := strconv.Atoi(parts[1])
	if err != nil {
		return parts[0], 0, false
	}
	return parts[0], maskLen, true
}

// InterfaceIndex extracts the numeric output interface from an interface name.
// Ethernet4 -> 4, eth0 -> 0, 12 -> 12.
func InterfaceIndex(name string) (int, error) {
	matches := parseInterfaceRegexp.FindStringSubmatch(strings.TrimSpace(name))
	if len(matches) != 3 {
		return 0, fmt.Errorf("interface %q has no numeric index", name)
	}
	return strconv.Atoi(matches[2])
}
