package labutil

import (
	"net"
	"net/netip"
	"strings"

	cidr "github.com/apparentlymart/go-cidr/cidr"
	"github.com/pkg/errors"
	"go4.org/netipx"
)

// Returns the address part of an address specified in the CIDR notation.
// The address without a prefix length is returned as is.
func StripPrefixLength(address string) string {
	if before, _, found := strings.Cut(address, "/"); found {
		return before
	}
	return address
}

// Parses an IPv4 prefix and returns it in its canonical, masked form.
// Host bits set in the specified prefix are cleared, e.g., 10.0.0.1/24
// becomes 10.0.0.0/24.
func ParseIPv4Prefix(prefix string) (netip.Prefix, error) {
	parsed, err := netip.ParsePrefix(strings.TrimSpace(prefix))
	if err != nil {
		return netip.Prefix{}, errors.Wrapf(err, "invalid prefix %s", prefix)
	}
	if !parsed.Addr().Is4() {
		return netip.Prefix{}, errors.Errorf("prefix %s is not an IPv4 prefix", prefix)
	}
	return parsed.Masked(), nil
}

// Converts the prefix to the standard library network representation
// used by the go-cidr functions.
func PrefixToIPNet(prefix netip.Prefix) *net.IPNet {
	return netipx.PrefixIPNet(prefix.Masked())
}

// Converts the standard library network representation to the prefix.
// The second returned value is false when the conversion is impossible.
func IPNetToPrefix(network *net.IPNet) (netip.Prefix, bool) {
	if network == nil {
		return netip.Prefix{}, false
	}
	prefix, ok := netipx.FromStdIPNet(network)
	if !ok {
		return netip.Prefix{}, false
	}
	return prefix.Masked(), true
}

// Returns the number of addresses in the prefix that can be assigned to
// interfaces. The network and broadcast addresses are excluded except
// for the /31 and /32 prefixes.
func UsableHostCount(prefix netip.Prefix) uint64 {
	count := cidr.AddressCount(PrefixToIPNet(prefix))
	if prefix.Bits() >= prefix.Addr().BitLen()-1 {
		return count
	}
	return count - 2
}

// Returns the n-th usable address within the prefix, counting from 1 for
// the first address after the network address. For the /31 and /32
// prefixes the counting starts from the network address itself.
func UsableHost(prefix netip.Prefix, n int) (netip.Addr, error) {
	if n < 1 || uint64(n) > UsableHostCount(prefix) {
		return netip.Addr{}, errors.Errorf("host %d is out of the usable range of %s", n, prefix)
	}
	offset := n
	if prefix.Bits() >= prefix.Addr().BitLen()-1 {
		offset = n - 1
	}
	ip, err := cidr.Host(PrefixToIPNet(prefix), offset)
	if err != nil {
		return netip.Addr{}, errors.WithStack(err)
	}
	addr, ok := netipx.FromStdIP(ip)
	if !ok {
		return netip.Addr{}, errors.Errorf("invalid host address %s in %s", ip, prefix)
	}
	return addr, nil
}

// Returns the longest prefix length, not longer than maxLen, whose block
// holds at least the given number of usable addresses. It returns false
// when no IPv4 block can hold that many addresses.
func PrefixLenForHosts(hosts int, maxLen int) (int, bool) {
	for bits := maxLen; bits >= 0; bits-- {
		prefix := netip.PrefixFrom(netip.IPv4Unspecified(), bits)
		if UsableHostCount(prefix) >= uint64(hosts) {
			return bits, true
		}
	}
	return 0, false
}
