package addressing

import (
	"net/netip"

	"github.com/pkg/errors"

	labutil "github.com/sciro24/Kathara-labGenerator/util"
)

// Default allocation options.
const (
	DefaultBase         = "10.0.0.0/16"
	DefaultLANPrefixLen = 24
	DefaultP2PPrefixLen = 30
	DefaultLoopbackPool = "192.168.255.0/24"
)

// Address allocation options.
type Options struct {
	// Address budget the link subnets are carved from.
	Base string
	// Prefix length of a LAN subnet. A LAN with more members than the
	// block holds gets a shorter prefix.
	LANPrefixLen int
	// Prefix length of a point-to-point subnet.
	P2PPrefixLen int
	// Pool the router loopback addresses are taken from.
	LoopbackPool string
}

// Returns the default allocation options.
func DefaultOptions() Options {
	return Options{
		Base:         DefaultBase,
		LANPrefixLen: DefaultLANPrefixLen,
		P2PPrefixLen: DefaultP2PPrefixLen,
		LoopbackPool: DefaultLoopbackPool,
	}
}

// Options with the parsed prefixes.
type parsedOptions struct {
	base         netip.Prefix
	lanBits      int
	p2pBits      int
	loopbackPool netip.Prefix
}

// Fills the unset options with defaults and parses them.
func (o Options) parse() (*parsedOptions, error) {
	defaults := DefaultOptions()
	if o.Base == "" {
		o.Base = defaults.Base
	}
	if o.LANPrefixLen == 0 {
		o.LANPrefixLen = defaults.LANPrefixLen
	}
	if o.P2PPrefixLen == 0 {
		o.P2PPrefixLen = defaults.P2PPrefixLen
	}
	if o.LoopbackPool == "" {
		o.LoopbackPool = defaults.LoopbackPool
	}

	base, err := labutil.ParseIPv4Prefix(o.Base)
	if err != nil {
		return nil, errors.WithMessage(err, "invalid address budget")
	}
	pool, err := labutil.ParseIPv4Prefix(o.LoopbackPool)
	if err != nil {
		return nil, errors.WithMessage(err, "invalid loopback pool")
	}
	for _, bits := range []int{o.LANPrefixLen, o.P2PPrefixLen} {
		if bits < base.Bits() || bits > 32 {
			return nil, errors.Errorf("prefix length /%d does not fit in the address budget %s", bits, base)
		}
	}
	return &parsedOptions{
		base:         base,
		lanBits:      o.LANPrefixLen,
		p2pBits:      o.P2PPrefixLen,
		loopbackPool: pool,
	}, nil
}
