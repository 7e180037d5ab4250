package review

import (
	"fmt"
	"net/netip"

	"github.com/sciro24/Kathara-labGenerator/topology"
)

// An error returned when a protocol announces a network that is not
// attached to any interface of the router.
type UnattachedNetworkError struct {
	router   string
	protocol topology.Protocol
	network  netip.Prefix
}

// Create new instance of the UnattachedNetworkError.
func NewUnattachedNetworkError(router string, protocol topology.Protocol, network netip.Prefix) error {
	return &UnattachedNetworkError{router: router, protocol: protocol, network: network}
}

// Returns error string.
func (e UnattachedNetworkError) Error() string {
	return fmt.Sprintf("%s network %s of router %s is not attached to any of its interfaces",
		e.protocol, e.network, e.router)
}

// Returns the error kind.
func (e UnattachedNetworkError) Kind() topology.ErrorKind {
	return topology.ErrorKindUnknownInterface
}

// Returns the router and the network.
func (e UnattachedNetworkError) Refs() []string {
	return []string{e.router, e.network.String()}
}
