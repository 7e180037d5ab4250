package addressing

import (
	"net/netip"

	"github.com/sciro24/Kathara-labGenerator/topology"
)

// Address of a link member.
type MemberAddress struct {
	Ref topology.InterfaceRef
	// Interface address with the subnet prefix length.
	Address netip.Prefix
}

// Addressing of a single link.
type LinkPlan struct {
	Name   string
	Subnet netip.Prefix
	// True when the subnet comes from the manual override.
	Override bool
	// Device holding the first usable address. It is empty when the link
	// has no designated gateway.
	GatewayDevice string
	// Address of the designated gateway.
	Gateway netip.Addr
	// Member addresses in the member order of the link.
	Members []MemberAddress
}

// Default route of an end system.
type DefaultRoute struct {
	Via       netip.Addr
	Interface int
}

// Result of the address allocation. It is derived state: a new plan is
// computed for every compile run and never patched.
type Plan struct {
	links     []*LinkPlan
	byName    map[string]*LinkPlan
	addresses map[topology.InterfaceRef]netip.Prefix
	loopbacks map[string]netip.Addr
	routes    map[string]DefaultRoute
	// Problems found during the allocation. The links they concern are
	// left without a subnet.
	Errors []error
}

// Creates an empty plan.
func newPlan() *Plan {
	return &Plan{
		byName:    make(map[string]*LinkPlan),
		addresses: make(map[topology.InterfaceRef]netip.Prefix),
		loopbacks: make(map[string]netip.Addr),
		routes:    make(map[string]DefaultRoute),
	}
}

// Returns the plans of the allocated links in the link creation order.
func (p *Plan) Links() []*LinkPlan {
	return p.links
}

// Returns the plan of the link or nil if the link was not allocated.
func (p *Plan) Link(name string) *LinkPlan {
	return p.byName[name]
}

// Returns the subnet of the link.
func (p *Plan) Subnet(link string) (netip.Prefix, bool) {
	linkPlan, ok := p.byName[link]
	if !ok {
		return netip.Prefix{}, false
	}
	return linkPlan.Subnet, true
}

// Returns the interface address with the subnet prefix length.
func (p *Plan) Address(ref topology.InterfaceRef) (netip.Prefix, bool) {
	address, ok := p.addresses[ref]
	return address, ok
}

// Returns the address of the designated gateway of the link.
func (p *Plan) Gateway(link string) (netip.Addr, bool) {
	linkPlan, ok := p.byName[link]
	if !ok || !linkPlan.Gateway.IsValid() {
		return netip.Addr{}, false
	}
	return linkPlan.Gateway, true
}

// Returns the loopback address of the router.
func (p *Plan) Loopback(router string) (netip.Addr, bool) {
	address, ok := p.loopbacks[router]
	return address, ok
}

// Returns the default route of the end system.
func (p *Plan) DefaultRoute(device string) (DefaultRoute, bool) {
	route, ok := p.routes[device]
	return route, ok
}

// Returns the address a device is known by: the address of its first
// interface, or the loopback of a router without interfaces.
func (p *Plan) PrimaryAddress(device *topology.Device) (netip.Addr, bool) {
	if len(device.Interfaces) > 0 {
		address, ok := p.Address(device.Interfaces[0].Ref())
		return address.Addr(), ok
	}
	return p.Loopback(device.ID)
}

// Returns the first address of the device within the subnet.
func (p *Plan) AddressIn(device *topology.Device, subnet netip.Prefix) (netip.Addr, bool) {
	for _, iface := range device.Interfaces {
		if address, ok := p.Address(iface.Ref()); ok && subnet.Contains(address.Addr()) {
			return address.Addr(), true
		}
	}
	return netip.Addr{}, false
}
