package routingcfg

import (
	"net/netip"

	"github.com/pkg/errors"

	"github.com/sciro24/Kathara-labGenerator/topology"
	labutil "github.com/sciro24/Kathara-labGenerator/util"
)

// Validates the static routes. The next hop must lie in the subnet of the
// egress interface. A route without the egress interface gets the first
// interface whose subnet holds the next hop. The invalid routes are
// recorded and left out.
func (b *builder) buildStatic(router *topology.Device, config *RouterConfig) error {
	for _, route := range router.Routing.Static {
		destination, err := labutil.ParseIPv4Prefix(route.Destination)
		if err != nil {
			return errors.WithMessage(err, "invalid static route destination")
		}
		nextHop, err := netip.ParseAddr(labutil.StripPrefixLength(route.NextHop))
		if err != nil {
			return errors.Wrapf(err, "invalid next hop of static route %s", route.Destination)
		}

		if route.Egress != nil {
			egress := *route.Egress
			if router.Interface(egress) == nil {
				b.record(NewUnknownInterfaceError(router.ID, topology.ProtocolStatic, egress))
				continue
			}
			if !config.subnetOf(egress).Contains(nextHop) {
				b.record(NewUnreachableStaticGatewayError(router.ID, destination.String(), nextHop.String(),
					topology.InterfaceName(egress)))
				continue
			}
			config.Static = append(config.Static, StaticRoute{Destination: destination, NextHop: nextHop, Interface: egress})
			continue
		}

		found := false
		for _, iface := range config.Interfaces {
			if iface.Address.Masked().Contains(nextHop) {
				config.Static = append(config.Static, StaticRoute{Destination: destination, NextHop: nextHop, Interface: iface.Index})
				found = true
				break
			}
		}
		if !found {
			b.record(NewUnreachableStaticGatewayError(router.ID, destination.String(), nextHop.String(), ""))
		}
	}
	return nil
}

// Returns the subnet of the interface or an invalid prefix when the
// interface has no address.
func (c *RouterConfig) subnetOf(index int) netip.Prefix {
	for _, iface := range c.Interfaces {
		if iface.Index == index {
			return iface.Address.Masked()
		}
	}
	return netip.Prefix{}
}
