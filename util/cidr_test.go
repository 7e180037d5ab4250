package labutil

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

// Test that the prefix length is stripped from an address.
func TestStripPrefixLength(t *testing.T) {
	require.Equal(t, "10.0.0.1", StripPrefixLength("10.0.0.1/24"))
	require.Equal(t, "10.0.0.1", StripPrefixLength("10.0.0.1"))
	require.Empty(t, StripPrefixLength(""))
}

// Test that IPv4 prefixes are parsed and masked.
func TestParseIPv4Prefix(t *testing.T) {
	prefix, err := ParseIPv4Prefix("10.0.1.7/24")
	require.NoError(t, err)
	require.Equal(t, "10.0.1.0/24", prefix.String())

	prefix, err = ParseIPv4Prefix(" 192.0.2.0/30 ")
	require.NoError(t, err)
	require.Equal(t, "192.0.2.0/30", prefix.String())
}

// Test that invalid and non-IPv4 prefixes are rejected.
func TestParseIPv4PrefixInvalid(t *testing.T) {
	_, err := ParseIPv4Prefix("10.0.1.7")
	require.ErrorContains(t, err, "invalid prefix 10.0.1.7")

	_, err = ParseIPv4Prefix("2001:db8::/64")
	require.ErrorContains(t, err, "is not an IPv4 prefix")
}

// Test conversion between the prefix and the standard library network.
func TestPrefixIPNetConversion(t *testing.T) {
	network := PrefixToIPNet(netip.MustParsePrefix("10.1.0.0/16"))
	require.Equal(t, "10.1.0.0/16", network.String())

	prefix, ok := IPNetToPrefix(network)
	require.True(t, ok)
	require.Equal(t, "10.1.0.0/16", prefix.String())

	_, ok = IPNetToPrefix(nil)
	require.False(t, ok)
}

// Test the number of usable addresses for typical prefix lengths.
func TestUsableHostCount(t *testing.T) {
	require.EqualValues(t, 254, UsableHostCount(netip.MustParsePrefix("10.0.0.0/24")))
	require.EqualValues(t, 2, UsableHostCount(netip.MustParsePrefix("10.0.0.0/30")))
	require.EqualValues(t, 2, UsableHostCount(netip.MustParsePrefix("10.0.0.0/31")))
	require.EqualValues(t, 1, UsableHostCount(netip.MustParsePrefix("10.0.0.1/32")))
}

// Test that the usable hosts are counted from the first address after
// the network address.
func TestUsableHost(t *testing.T) {
	prefix := netip.MustParsePrefix("10.0.0.4/30")

	addr, err := UsableHost(prefix, 1)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.5", addr.String())

	addr, err = UsableHost(prefix, 2)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.6", addr.String())

	_, err = UsableHost(prefix, 3)
	require.ErrorContains(t, err, "out of the usable range")

	addr, err = UsableHost(netip.MustParsePrefix("192.168.255.7/32"), 1)
	require.NoError(t, err)
	require.Equal(t, "192.168.255.7", addr.String())
}

// Test selecting the prefix length for a number of hosts.
func TestPrefixLenForHosts(t *testing.T) {
	bits, ok := PrefixLenForHosts(2, 30)
	require.True(t, ok)
	require.Equal(t, 30, bits)

	bits, ok = PrefixLenForHosts(10, 24)
	require.True(t, ok)
	require.Equal(t, 24, bits)

	bits, ok = PrefixLenForHosts(300, 24)
	require.True(t, ok)
	require.Equal(t, 23, bits)
}
