package addressing

import (
	"fmt"
	"net/netip"

	cidr "github.com/apparentlymart/go-cidr/cidr"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go4.org/netipx"

	"github.com/sciro24/Kathara-labGenerator/topology"
	labutil "github.com/sciro24/Kathara-labGenerator/util"
)

// Carves the link subnets sequentially from the address budget. The
// cursor only moves forward, so an issued block is never reused.
type carver struct {
	base      netip.Prefix
	cursor    netip.Addr
	exhausted bool
	// Blocks issued verbatim from the manual overrides.
	overrides *netipx.IPSet
}

// Returns the next free block of the given prefix length aligned to its
// size. It returns false when the budget has no such block left.
func (c *carver) next(bits int) (netip.Prefix, bool) {
	if c.exhausted || bits < c.base.Bits() {
		return netip.Prefix{}, false
	}
	candidate := netip.PrefixFrom(c.cursor, bits).Masked()
	if candidate.Addr().Less(c.cursor) {
		var ok bool
		if candidate, ok = nextSubnet(candidate, bits); !ok {
			return netip.Prefix{}, false
		}
	}
	for {
		if !c.base.Contains(candidate.Addr()) {
			return netip.Prefix{}, false
		}
		if !c.overrides.OverlapsPrefix(candidate) {
			return candidate, true
		}
		var ok bool
		if candidate, ok = nextSubnet(candidate, bits); !ok {
			return netip.Prefix{}, false
		}
	}
}

// Moves the cursor past the issued block.
func (c *carver) issue(block netip.Prefix) {
	following := netipx.PrefixLastIP(block).Next()
	if !following.IsValid() || !c.base.Contains(following) {
		c.exhausted = true
		return
	}
	c.cursor = following
}

// Returns the block of the given length following the block.
func nextSubnet(block netip.Prefix, bits int) (netip.Prefix, bool) {
	network, overflow := cidr.NextSubnet(labutil.PrefixToIPNet(block), bits)
	if overflow {
		return netip.Prefix{}, false
	}
	return labutil.IPNetToPrefix(network)
}

// Allocates the subnets of the links, the addresses of the interfaces and
// the loopback addresses of the routers. The allocation is deterministic:
// the links are visited in the creation order, the routers in the
// insertion order.
//
// The manual overrides are issued first. Then the remaining links get
// blocks carved sequentially from the budget: a point-to-point link gets
// a block of the point-to-point length and a LAN a block of the LAN
// length, widened when the members do not fit. Within a link the
// designated gateway gets the first usable address and the remaining
// members the following addresses in the member order.
//
// An error is returned only for unusable input. The conflicts and the
// exhaustion of the budget are recorded in the plan errors.
func Allocate(model *topology.Model, options Options) (*Plan, error) {
	if model == nil {
		return nil, errors.New("topology is nil")
	}
	parsed, err := options.parse()
	if err != nil {
		return nil, err
	}
	if err = model.ValidateStructure(); err != nil {
		return nil, err
	}

	plan := newPlan()
	allocateLoopbacks := true
	if parsed.base.Overlaps(parsed.loopbackPool) {
		plan.Errors = append(plan.Errors, NewAddressConflictError("", parsed.loopbackPool.String(),
			fmt.Sprintf("the loopback pool overlaps the address budget %s", parsed.base)))
		allocateLoopbacks = false
	}

	subnets := make(map[*topology.Link]netip.Prefix)

	// Pass 1: the manual overrides.
	var overrides netipx.IPSetBuilder
	var issued []issuedOverride
	for _, link := range model.Links() {
		if link.Subnet == "" {
			continue
		}
		subnet, err := labutil.ParseIPv4Prefix(link.Subnet)
		if err != nil {
			plan.Errors = append(plan.Errors, NewAddressConflictError(link.Name, link.Subnet, err.Error()))
			continue
		}
		if labutil.UsableHostCount(subnet) < uint64(len(link.Members)) {
			plan.Errors = append(plan.Errors, NewAddressConflictError(link.Name, subnet.String(),
				fmt.Sprintf("the subnet is too small for %d members", len(link.Members))))
			continue
		}
		if conflict := overlappingOverride(issued, subnet); conflict != "" {
			plan.Errors = append(plan.Errors, NewAddressConflictError(link.Name, subnet.String(),
				fmt.Sprintf("the subnet overlaps the subnet of link %s", conflict)))
			continue
		}
		if subnet.Overlaps(parsed.loopbackPool) {
			plan.Errors = append(plan.Errors, NewAddressConflictError(link.Name, subnet.String(),
				fmt.Sprintf("the subnet overlaps the loopback pool %s", parsed.loopbackPool)))
			continue
		}
		issued = append(issued, issuedOverride{link: link.Name, subnet: subnet})
		overrides.AddPrefix(subnet)
		subnets[link] = subnet
	}
	overrideSet, err := overrides.IPSet()
	if err != nil {
		return nil, errors.Wrap(err, "cannot build the set of the subnet overrides")
	}

	// Pass 2: the remaining links.
	blocks := &carver{base: parsed.base, cursor: parsed.base.Addr(), overrides: overrideSet}
	for _, link := range model.Links() {
		if link.Subnet != "" {
			continue
		}
		bits := parsed.lanBits
		if link.IsPointToPoint() {
			bits = parsed.p2pBits
		}
		if labutil.UsableHostCount(netip.PrefixFrom(parsed.base.Addr(), bits)) < uint64(len(link.Members)) {
			if widened, ok := labutil.PrefixLenForHosts(len(link.Members), bits); ok {
				bits = widened
			}
		}
		block, ok := blocks.next(bits)
		if !ok {
			plan.Errors = append(plan.Errors, NewAddressSpaceExhaustedError(link.Name, bits, parsed.base.String()))
			continue
		}
		blocks.issue(block)
		subnets[link] = block
	}

	// Member addresses in the link creation order.
	for _, link := range model.Links() {
		subnet, ok := subnets[link]
		if !ok {
			continue
		}
		if err = plan.addLink(link, subnet, link.Subnet != ""); err != nil {
			return nil, err
		}
	}

	if allocateLoopbacks {
		for i, router := range model.Routers() {
			address, err := labutil.UsableHost(parsed.loopbackPool, i+1)
			if err != nil {
				plan.Errors = append(plan.Errors, NewAddressSpaceExhaustedError(router.ID, 32, parsed.loopbackPool.String()))
				continue
			}
			plan.loopbacks[router.ID] = address
		}
	}

	for _, device := range model.Devices() {
		if device.IsRouter() {
			continue
		}
		if route, ok := plan.findDefaultRoute(device); ok {
			plan.routes[device.ID] = route
		}
	}

	log.WithFields(log.Fields{
		"links":     len(plan.links),
		"loopbacks": len(plan.loopbacks),
		"errors":    len(plan.Errors),
	}).Debug("Allocated addresses")
	return plan, nil
}

// Override issued for a link.
type issuedOverride struct {
	link   string
	subnet netip.Prefix
}

// Returns the name of the first link whose override overlaps the subnet.
func overlappingOverride(issued []issuedOverride, subnet netip.Prefix) string {
	for _, override := range issued {
		if override.subnet.Overlaps(subnet) {
			return override.link
		}
	}
	return ""
}

// Assigns the member addresses of the link within the subnet.
func (p *Plan) addLink(link *topology.Link, subnet netip.Prefix, override bool) error {
	linkPlan := &LinkPlan{
		Name:     link.Name,
		Subnet:   subnet,
		Override: override,
	}

	members := make([]*topology.Interface, 0, len(link.Members))
	gateway := link.DesignatedGateway()
	if gateway != nil {
		members = append(members, gateway)
		linkPlan.GatewayDevice = gateway.Device.ID
	}
	for _, member := range link.Members {
		if member != gateway {
			members = append(members, member)
		}
	}

	addresses := make(map[*topology.Interface]netip.Prefix, len(members))
	for i, member := range members {
		host, err := labutil.UsableHost(subnet, i+1)
		if err != nil {
			return errors.WithMessagef(err, "cannot address link %s", link.Name)
		}
		addresses[member] = netip.PrefixFrom(host, subnet.Bits())
		if member == gateway {
			linkPlan.Gateway = host
		}
	}

	for _, member := range link.Members {
		address := addresses[member]
		linkPlan.Members = append(linkPlan.Members, MemberAddress{Ref: member.Ref(), Address: address})
		p.addresses[member.Ref()] = address
	}
	p.links = append(p.links, linkPlan)
	p.byName[link.Name] = linkPlan

	log.WithFields(log.Fields{
		"link":    link.Name,
		"subnet":  subnet,
		"gateway": linkPlan.GatewayDevice,
	}).Debug("Allocated link subnet")
	return nil
}

// Finds the default route of the end system. An explicit gateway device
// is looked up on the links of the device in the interface order.
// Otherwise the designated gateway of the link of the first interface is
// used.
func (p *Plan) findDefaultRoute(device *topology.Device) (DefaultRoute, bool) {
	if device.Gateway == "" {
		if len(device.Interfaces) == 0 || device.Interfaces[0].Link == nil {
			return DefaultRoute{}, false
		}
		linkPlan := p.byName[device.Interfaces[0].Link.Name]
		if linkPlan == nil || !linkPlan.Gateway.IsValid() || linkPlan.GatewayDevice == device.ID {
			return DefaultRoute{}, false
		}
		return DefaultRoute{Via: linkPlan.Gateway, Interface: 0}, true
	}
	for _, iface := range device.Interfaces {
		if iface.Link == nil {
			continue
		}
		if member := iface.Link.Member(device.Gateway); member != nil {
			if address, ok := p.addresses[member.Ref()]; ok {
				return DefaultRoute{Via: address.Addr(), Interface: iface.Index}, true
			}
		}
	}
	return DefaultRoute{}, false
}
