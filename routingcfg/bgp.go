package routingcfg

import (
	"fmt"
	"net/netip"
	"slices"

	"github.com/sciro24/Kathara-labGenerator/topology"
)

// Name of the loopback interface used as the session source.
const loopbackInterface = "lo"

// Returns the AS number of the router or false when BGP is not enabled.
func routerASN(device *topology.Device) (uint32, bool) {
	if device == nil || !device.IsRouter() || !device.Routing.Enabled(topology.ProtocolBGP) || device.Routing.BGP == nil {
		return 0, false
	}
	return device.Routing.BGP.ASN, true
}

// Creates the session with the peer router.
func newNeighbor(asn uint32, peer *topology.Device, peerASN uint32, address netip.Addr) *Neighbor {
	sessionType := SessionExternal
	if asn == peerASN {
		sessionType = SessionInternal
	}
	return &Neighbor{
		Peer:        peer.ID,
		Address:     address,
		RemoteAS:    peerASN,
		Type:        sessionType,
		Description: fmt.Sprintf("Router %s", peer.ID),
	}
}

// Derives the BGP process. Every directly linked router running BGP
// becomes a neighbor, so the sessions between linked routers are
// configured on both ends. The declared sessions are appended as they
// are. The connected subnets are announced without aggregation.
func (b *builder) buildBGP(router *topology.Device, config *RouterConfig) {
	asn, _ := routerASN(router)
	process := &BGPProcess{ASN: asn}
	known := make(map[netip.Addr]bool)

	for _, iface := range router.Interfaces {
		if iface.Link == nil {
			continue
		}
		subnet, ok := b.plan.Subnet(iface.Link.Name)
		if !ok {
			continue
		}
		if !slices.Contains(process.Networks, subnet) {
			process.Networks = append(process.Networks, subnet)
		}
		for _, member := range iface.Link.Members {
			if member.Device == router {
				continue
			}
			peerASN, ok := routerASN(member.Device)
			if !ok {
				continue
			}
			address, ok := b.plan.Address(member.Ref())
			if !ok || known[address.Addr()] {
				continue
			}
			known[address.Addr()] = true
			process.Neighbors = append(process.Neighbors, newNeighbor(asn, member.Device, peerASN, address.Addr()))
		}
	}

	if router.Routing.BGP != nil {
		for _, declared := range router.Routing.BGP.Neighbors {
			neighbor, err := b.declaredNeighbor(router, asn, declared)
			if err != nil {
				b.record(err)
				continue
			}
			if known[neighbor.Address] {
				continue
			}
			known[neighbor.Address] = true
			process.Neighbors = append(process.Neighbors, neighbor)
		}
	}

	order := make(map[string]int)
	for i, device := range b.model.Devices() {
		order[device.ID] = i
	}
	slices.SortStableFunc(process.Neighbors, func(a, b *Neighbor) int {
		if order[a.Peer] != order[b.Peer] {
			return order[a.Peer] - order[b.Peer]
		}
		return a.Address.Compare(b.Address)
	})
	config.BGP = process
}

// Creates the declared session. The session over the loopbacks targets
// the peer loopback. Otherwise the peer address on the first shared link
// is used, falling back to the loopback when the routers share no link.
func (b *builder) declaredNeighbor(router *topology.Device, asn uint32, declared topology.DeclaredNeighbor) (*Neighbor, error) {
	peer := b.model.Device(declared.Peer)
	peerASN, ok := routerASN(peer)
	if !ok || peer == router {
		return nil, NewUnknownNeighborError(router.ID, declared.Peer)
	}

	var address netip.Addr
	if declared.UpdateSource != topology.UpdateSourceLoopback {
		for _, iface := range router.Interfaces {
			if iface.Link == nil {
				continue
			}
			if member := iface.Link.Member(peer.ID); member != nil {
				if peerAddress, ok := b.plan.Address(member.Ref()); ok {
					address = peerAddress.Addr()
					break
				}
			}
		}
	}
	updateSource := ""
	if !address.IsValid() {
		loopback, ok := b.plan.Loopback(peer.ID)
		if !ok {
			return nil, NewUnknownNeighborError(router.ID, declared.Peer)
		}
		address = loopback
		updateSource = loopbackInterface
	}

	neighbor := newNeighbor(asn, peer, peerASN, address)
	neighbor.Declared = true
	neighbor.UpdateSource = updateSource
	return neighbor, nil
}

// Returns the errors of the sessions with no reciprocal session on the
// peer router. A session is reciprocal when the peer has a session to the
// address the router sources the session from, with the AS number of the
// router, and sourced from the address the router targets. The sessions
// over loopbacks are matched by the loopback addresses.
func CheckSymmetry(config *Config) []error {
	var errs []error
	for _, router := range config.Routers {
		if router.BGP == nil {
			continue
		}
		for _, neighbor := range router.BGP.Neighbors {
			if !isReciprocated(config, router, neighbor) {
				errs = append(errs, NewAsymmetricNeighborError(router.Router, neighbor.Peer, neighbor.Address, neighbor.RemoteAS))
			}
		}
	}
	return errs
}

// Checks if the peer of the neighbor has a matching session back.
func isReciprocated(config *Config, router *RouterConfig, neighbor *Neighbor) bool {
	peer := config.Router(neighbor.Peer)
	if peer == nil || peer.BGP == nil || peer.BGP.ASN != neighbor.RemoteAS {
		return false
	}
	for _, back := range peer.BGP.NeighborsOf(router.Router) {
		if back.RemoteAS != router.BGP.ASN {
			continue
		}
		if router.sources(neighbor, back.Address) && peer.sources(back, neighbor.Address) {
			return true
		}
	}
	return false
}

// Checks if the session with the neighbor is sourced from the address.
// The loopback sessions are sourced from the router ID. The other
// sessions are sourced from the interface in the subnet of the neighbor.
func (c *RouterConfig) sources(neighbor *Neighbor, address netip.Addr) bool {
	if neighbor.UpdateSource == loopbackInterface {
		return c.RouterID.IsValid() && c.RouterID == address
	}
	for _, iface := range c.Interfaces {
		if iface.Address.Addr() == address && iface.Address.Contains(neighbor.Address) {
			return true
		}
	}
	return false
}
