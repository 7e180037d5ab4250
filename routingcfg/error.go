package routingcfg

import (
	"fmt"
	"net/netip"

	"github.com/sciro24/Kathara-labGenerator/topology"
)

// An error recorded when a BGP session configured on one router has no
// matching session on the peer router.
type AsymmetricNeighborError struct {
	router   string
	peer     string
	address  netip.Addr
	remoteAS uint32
}

// Create new instance of the AsymmetricNeighborError.
func NewAsymmetricNeighborError(router, peer string, address netip.Addr, remoteAS uint32) error {
	return &AsymmetricNeighborError{router: router, peer: peer, address: address, remoteAS: remoteAS}
}

// Returns error string.
func (e AsymmetricNeighborError) Error() string {
	return fmt.Sprintf("router %s has BGP neighbor %s (router %s, AS %d) without a reciprocal session",
		e.router, e.address, e.peer, e.remoteAS)
}

// Returns the error kind.
func (e AsymmetricNeighborError) Kind() topology.ErrorKind {
	return topology.ErrorKindAsymmetricNeighbor
}

// Returns the router and the peer.
func (e AsymmetricNeighborError) Refs() []string {
	return []string{e.router, e.peer}
}

// An error recorded when the next hop of a static route is outside the
// subnets of the router interfaces.
type UnreachableStaticGatewayError struct {
	router      string
	destination string
	nextHop     string
	egress      string
}

// Create new instance of the UnreachableStaticGatewayError. The egress
// is empty when the route does not name the interface.
func NewUnreachableStaticGatewayError(router, destination, nextHop, egress string) error {
	return &UnreachableStaticGatewayError{router: router, destination: destination, nextHop: nextHop, egress: egress}
}

// Returns error string.
func (e UnreachableStaticGatewayError) Error() string {
	if e.egress != "" {
		return fmt.Sprintf("next hop %s of static route %s on router %s is outside the subnet of %s",
			e.nextHop, e.destination, e.router, e.egress)
	}
	return fmt.Sprintf("next hop %s of static route %s on router %s is not in any connected subnet",
		e.nextHop, e.destination, e.router)
}

// Returns the error kind.
func (e UnreachableStaticGatewayError) Kind() topology.ErrorKind {
	return topology.ErrorKindUnreachableStaticGateway
}

// Returns the router and the route references.
func (e UnreachableStaticGatewayError) Refs() []string {
	return []string{e.router, e.destination, e.nextHop}
}

// An error recorded when a protocol setting names an interface the router
// does not have.
type UnknownInterfaceError struct {
	router   string
	protocol topology.Protocol
	index    int
}

// Create new instance of the UnknownInterfaceError.
func NewUnknownInterfaceError(router string, protocol topology.Protocol, index int) error {
	return &UnknownInterfaceError{router: router, protocol: protocol, index: index}
}

// Returns error string.
func (e UnknownInterfaceError) Error() string {
	return fmt.Sprintf("%s configuration of router %s references non-existent interface %s",
		e.protocol, e.router, topology.InterfaceName(e.index))
}

// Returns the error kind.
func (e UnknownInterfaceError) Kind() topology.ErrorKind {
	return topology.ErrorKindUnknownInterface
}

// Returns the interface reference.
func (e UnknownInterfaceError) Refs() []string {
	return []string{topology.Ref(e.router, e.index).String()}
}

// An error returned when a policy or a declaration names a router that is
// not a BGP neighbor.
type UnknownNeighborError struct {
	router   string
	neighbor string
}

// Create new instance of the UnknownNeighborError.
func NewUnknownNeighborError(router, neighbor string) error {
	return &UnknownNeighborError{router: router, neighbor: neighbor}
}

// Returns error string.
func (e UnknownNeighborError) Error() string {
	return fmt.Sprintf("router %s has no BGP neighbor %s", e.router, e.neighbor)
}

// Returns the error kind.
func (e UnknownNeighborError) Kind() topology.ErrorKind {
	return topology.ErrorKindUnknownNeighbor
}

// Returns the router and the neighbor.
func (e UnknownNeighborError) Refs() []string {
	return []string{e.router, e.neighbor}
}
