package routingcfg

import (
	"net/netip"

	"github.com/sciro24/Kathara-labGenerator/topology"
)

// Type of a BGP session.
type SessionType string

// BGP session types.
const (
	SessionInternal SessionType = "internal"
	SessionExternal SessionType = "external"
)

// Routing configuration of all routers.
type Config struct {
	Routers []*RouterConfig
	// Problems found while deriving the configuration.
	Errors []error
}

// Returns the configuration of the router or nil.
func (c *Config) Router(id string) *RouterConfig {
	for _, router := range c.Routers {
		if router.Router == id {
			return router
		}
	}
	return nil
}

// Attaches the policy to the router configuration.
func (c *Config) Refine(router string, policy topology.Policy) error {
	routerConfig := c.Router(router)
	if routerConfig == nil {
		return topology.NewUnknownDeviceError(router)
	}
	return routerConfig.Refine(policy)
}

// Routing daemons of the routing suite.
type Daemons struct {
	Zebra  bool
	BGP    bool
	OSPF   bool
	RIP    bool
	Static bool
}

// Configuration of a router interface.
type InterfaceConfig struct {
	Index   int
	Address netip.Prefix
	// OSPF cost. Zero means the default.
	OSPFCost uint32
}

// Returns the interface name.
func (c InterfaceConfig) Name() string {
	return topology.InterfaceName(c.Index)
}

// Configuration of a single router.
type RouterConfig struct {
	Router   string
	RouterID netip.Addr
	// False for the routers with static routes only. They are configured
	// by the startup script alone.
	UsesFRR    bool
	Daemons    Daemons
	Interfaces []InterfaceConfig
	BGP        *BGPProcess
	OSPF       *OSPFProcess
	RIP        *RIPProcess
	Static     []StaticRoute
}

// BGP process of a router.
type BGPProcess struct {
	ASN       uint32
	Neighbors []*Neighbor
	// Connected subnets announced as they are.
	Networks    []netip.Prefix
	PrefixLists []*PrefixList
	AccessLists []*AccessList
	RouteMaps   []*RouteMap
}

// Returns the neighbors of the peer router.
func (p *BGPProcess) NeighborsOf(peer string) []*Neighbor {
	var neighbors []*Neighbor
	for _, neighbor := range p.Neighbors {
		if neighbor.Peer == peer {
			neighbors = append(neighbors, neighbor)
		}
	}
	return neighbors
}

// BGP session with a neighbor router.
type Neighbor struct {
	Peer        string
	Address     netip.Addr
	RemoteAS    uint32
	Type        SessionType
	Description string
	// True for the sessions declared explicitly.
	Declared bool
	// Interface the session is sourced from, e.g., lo.
	UpdateSource string
	// Prefix lists filtering the routes from and to the neighbor.
	PrefixLists []NeighborFilter
	// Route maps applied to the routes from and to the neighbor.
	RouteMaps []NeighborFilter
	// Business relationship with the neighbor, if any.
	Relation topology.Relation
}

// Returns the prefix list applied in the direction.
func (n *Neighbor) prefixList(direction topology.Direction) string {
	for _, filter := range n.PrefixLists {
		if filter.Direction == direction {
			return filter.Name
		}
	}
	return ""
}

// Returns the route map applied in the direction.
func (n *Neighbor) routeMap(direction topology.Direction) string {
	for _, filter := range n.RouteMaps {
		if filter.Direction == direction {
			return filter.Name
		}
	}
	return ""
}

// Filter attached to a neighbor.
type NeighborFilter struct {
	Name      string
	Direction topology.Direction
}

// Prefix list denying the Deny prefixes and then permitting the Permit
// prefixes. The remaining routes are permitted when PermitAny is set and
// denied otherwise.
type PrefixList struct {
	Name      string
	Deny      []netip.Prefix
	Permit    []netip.Prefix
	PermitAny bool
}

// Numbered access list denying the listed prefixes and permitting
// everything else.
type AccessList struct {
	ID   int
	Deny []netip.Prefix
}

// Single permit entry route map.
type RouteMap struct {
	Name     string
	Sequence int
	// Access list the routes must pass. Zero means no match clause.
	MatchAccessList int
	// Local preference set on the routes. Zero means not set.
	LocalPreference uint32
	// MED set on the routes. Zero means not set.
	Metric uint32
}

// OSPF process of a router.
type OSPFProcess struct {
	Networks  []OSPFNetwork
	StubAreas []string
}

// OSPF network statement.
type OSPFNetwork struct {
	Prefix netip.Prefix
	Area   string
}

// RIP process of a router.
type RIPProcess struct {
	Networks []netip.Prefix
}

// Validated static route.
type StaticRoute struct {
	Destination netip.Prefix
	NextHop     netip.Addr
	Interface   int
}

// Returns the egress interface name.
func (r StaticRoute) InterfaceName() string {
	return topology.InterfaceName(r.Interface)
}
