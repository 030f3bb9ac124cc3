package allocation

import "net/netip"

// Category buckets an allocation IP for selection priority.
type Category string

const (
	Localhost Category = "localhost"
	Wildcard  Category = "wildcard"
	LinkLocal Category = "link_local"
	Private   Category = "private"
	Public    Category = "public"
)

// Categories lists every category in summary order.
var Categories = []Category{Public, Private, Wildcard, Localhost, LinkLocal}

// Priority is the category order used to pick an allocation. Categories
// missing from it, link-local always among them, are never picked.
type Priority []Category

var (
	// DefaultPriority binds loopback addresses only when nothing else is free.
	DefaultPriority = Priority{Public, Private, Wildcard, Localhost}
	// StrictPriority never binds loopback addresses.
	StrictPriority = Priority{Public, Private, Wildcard}
)

var (
	privateV4 = []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("172.16.0.0/12"),
		netip.MustParsePrefix("192.168.0.0/16"),
	}
	linkLocalV6   = netip.MustParsePrefix("fe80::/10")
	uniqueLocalV6 = netip.MustParsePrefix("fc00::/7")
)

// Classify maps an IP string to exactly one category. Strings that are not
// addresses at all are treated as public.
func Classify(ip string) Category {
	switch ip {
	case "127.0.0.1", "::1", "localhost":
		return Localhost
	case "0.0.0.0", "::":
		return Wildcard
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return Public
	}
	addr = addr.Unmap().WithZone("")

	if addr.Is4() {
		for _, p := range privateV4 {
			if p.Contains(addr) {
				return Private
			}
		}
		return Public
	}
	if linkLocalV6.Contains(addr) {
		return LinkLocal
	}
	if uniqueLocalV6.Contains(addr) {
		return Private
	}
	return Public
}
