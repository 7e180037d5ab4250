package topology

import (
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Routing protocol enabled on a router.
type Protocol string

// Supported routing protocols.
const (
	ProtocolBGP    Protocol = "bgp"
	ProtocolOSPF   Protocol = "ospf"
	ProtocolRIP    Protocol = "rip"
	ProtocolStatic Protocol = "static"
)

// Parses the protocol name. The "statico" alias is accepted for the lab
// descriptions written in Italian.
func ParseProtocol(name string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bgp":
		return ProtocolBGP, nil
	case "ospf":
		return ProtocolOSPF, nil
	case "rip":
		return ProtocolRIP, nil
	case "static", "statico":
		return ProtocolStatic, nil
	default:
		return "", errors.Errorf("unknown routing protocol '%s'", name)
	}
}

// The BGP session source used by a declared neighbor.
const UpdateSourceLoopback = "loopback"

// Routing configuration of a router.
type RoutingConfig struct {
	Protocols []Protocol    `yaml:"protocols,omitempty" json:"protocols,omitempty" xml:"protocols>protocol,omitempty" validate:"dive,oneof=bgp ospf rip static"`
	BGP       *BGPConfig    `yaml:"bgp,omitempty" json:"bgp,omitempty" xml:"bgp,omitempty"`
	OSPF      *OSPFConfig   `yaml:"ospf,omitempty" json:"ospf,omitempty" xml:"ospf,omitempty"`
	RIP       *RIPConfig    `yaml:"rip,omitempty" json:"rip,omitempty" xml:"rip,omitempty"`
	Static    []StaticRoute `yaml:"static,omitempty" json:"static,omitempty" xml:"static>route,omitempty" validate:"dive"`
}

// Enables the protocols. Already enabled protocols are ignored.
func (c *RoutingConfig) Enable(protocols ...Protocol) {
	for _, protocol := range protocols {
		if !c.Enabled(protocol) {
			c.Protocols = append(c.Protocols, protocol)
		}
	}
}

// Disables the protocol.
func (c *RoutingConfig) Disable(protocol Protocol) {
	c.Protocols = slices.DeleteFunc(c.Protocols, func(p Protocol) bool {
		return p == protocol
	})
}

// Checks if the protocol is enabled.
func (c *RoutingConfig) Enabled(protocol Protocol) bool {
	return c != nil && slices.Contains(c.Protocols, protocol)
}

// Checks if the router uses only static routes. Such routers are
// configured without the routing suite.
func (c *RoutingConfig) StaticOnly() bool {
	return c != nil && len(c.Protocols) == 1 && c.Protocols[0] == ProtocolStatic
}

// Enables BGP with the given AS number and returns its configuration.
func (c *RoutingConfig) EnableBGP(asn uint32) *BGPConfig {
	c.Enable(ProtocolBGP)
	if c.BGP == nil {
		c.BGP = &BGPConfig{}
	}
	c.BGP.ASN = asn
	return c.BGP
}

// Enables OSPF and returns its configuration.
func (c *RoutingConfig) EnableOSPF() *OSPFConfig {
	c.Enable(ProtocolOSPF)
	if c.OSPF == nil {
		c.OSPF = &OSPFConfig{}
	}
	return c.OSPF
}

// Enables RIP on the given interfaces, or on all connected interfaces
// when none are given, and returns its configuration.
func (c *RoutingConfig) EnableRIP(interfaces ...int) *RIPConfig {
	c.Enable(ProtocolRIP)
	if c.RIP == nil {
		c.RIP = &RIPConfig{}
	}
	c.RIP.Interfaces = append(c.RIP.Interfaces, interfaces...)
	return c.RIP
}

// Enables static routing and appends the route.
func (c *RoutingConfig) AddStaticRoute(route StaticRoute) {
	c.Enable(ProtocolStatic)
	c.Static = append(c.Static, route)
}

// Returns a deep copy of the configuration.
func (c *RoutingConfig) Clone() *RoutingConfig {
	if c == nil {
		return nil
	}
	clone := &RoutingConfig{
		Protocols: slices.Clone(c.Protocols),
		Static:    slices.Clone(c.Static),
	}
	for i, route := range clone.Static {
		if route.Egress != nil {
			egress := *route.Egress
			clone.Static[i].Egress = &egress
		}
	}
	if c.BGP != nil {
		clone.BGP = &BGPConfig{
			ASN:       c.BGP.ASN,
			Neighbors: slices.Clone(c.BGP.Neighbors),
			Policies:  slices.Clone(c.BGP.Policies),
		}
		for i, policy := range clone.BGP.Policies {
			clone.BGP.Policies[i].Announce = slices.Clone(policy.Announce)
		}
	}
	if c.OSPF != nil {
		clone.OSPF = &OSPFConfig{
			Areas:     slices.Clone(c.OSPF.Areas),
			StubAreas: slices.Clone(c.OSPF.StubAreas),
			Costs:     slices.Clone(c.OSPF.Costs),
		}
	}
	if c.RIP != nil {
		clone.RIP = &RIPConfig{Interfaces: slices.Clone(c.RIP.Interfaces)}
	}
	return clone
}

// Removes the settings of the removed interface and shifts the indexes
// of the following interfaces. RIP is disabled when its last listed
// interface is removed. A static route leaving through the removed
// interface falls back to the next hop lookup.
func (c *RoutingConfig) forgetInterface(index int) {
	if c == nil {
		return
	}
	if c.OSPF != nil {
		c.OSPF.Areas = slices.DeleteFunc(c.OSPF.Areas, func(a InterfaceArea) bool {
			return a.Interface == index
		})
		for i := range c.OSPF.Areas {
			c.OSPF.Areas[i].Interface = shiftIndex(c.OSPF.Areas[i].Interface, index)
		}
		c.OSPF.Costs = slices.DeleteFunc(c.OSPF.Costs, func(cost InterfaceCost) bool {
			return cost.Interface == index
		})
		for i := range c.OSPF.Costs {
			c.OSPF.Costs[i].Interface = shiftIndex(c.OSPF.Costs[i].Interface, index)
		}
	}
	if c.RIP != nil && len(c.RIP.Interfaces) > 0 {
		c.RIP.Interfaces = slices.DeleteFunc(c.RIP.Interfaces, func(i int) bool {
			return i == index
		})
		if len(c.RIP.Interfaces) == 0 {
			c.RIP = nil
			c.Disable(ProtocolRIP)
		}
		if c.RIP != nil {
			for i := range c.RIP.Interfaces {
				c.RIP.Interfaces[i] = shiftIndex(c.RIP.Interfaces[i], index)
			}
		}
	}
	for i := range c.Static {
		egress := c.Static[i].Egress
		switch {
		case egress == nil:
		case *egress == index:
			c.Static[i].Egress = nil
		default:
			shifted := shiftIndex(*egress, index)
			c.Static[i].Egress = &shifted
		}
	}
}

// Returns the index after the removal of the interface at removed.
func shiftIndex(index, removed int) int {
	if index > removed {
		return index - 1
	}
	return index
}

// Removes the BGP declarations and policies naming the device.
func (c *RoutingConfig) forgetPeer(id string) {
	if c == nil || c.BGP == nil {
		return
	}
	c.BGP.Neighbors = slices.DeleteFunc(c.BGP.Neighbors, func(n DeclaredNeighbor) bool {
		return n.Peer == id
	})
	c.BGP.Policies = slices.DeleteFunc(c.BGP.Policies, func(p Policy) bool {
		return p.Neighbor == id
	})
}

// BGP configuration of a router.
type BGPConfig struct {
	ASN       uint32             `yaml:"asn" json:"asn" xml:"asn,attr" validate:"required"`
	Neighbors []DeclaredNeighbor `yaml:"neighbors,omitempty" json:"neighbors,omitempty" xml:"neighbor,omitempty" validate:"dive"`
	Policies  []Policy           `yaml:"policies,omitempty" json:"policies,omitempty" xml:"policy,omitempty" validate:"dive"`
}

// Declares an explicit BGP session with the peer router.
func (c *BGPConfig) Declare(peer string, updateSource string) {
	c.Neighbors = append(c.Neighbors, DeclaredNeighbor{Peer: peer, UpdateSource: updateSource})
}

// Explicit BGP session declared by the user. Unlike the sessions between
// directly linked routers, the declarations are not mirrored on the peer.
type DeclaredNeighbor struct {
	Peer         string `yaml:"peer" json:"peer" xml:"peer,attr" validate:"required"`
	UpdateSource string `yaml:"update-source,omitempty" json:"update-source,omitempty" xml:"update-source,attr,omitempty" validate:"omitempty,oneof=loopback"`
}

// Kind of a BGP policy attached to a neighbor.
type PolicyKind string

// Supported policy kinds.
const (
	PolicyPrefixList      PolicyKind = "prefix-list"
	PolicyLocalPreference PolicyKind = "local-preference"
	PolicyMED             PolicyKind = "med"
	PolicyAccessList      PolicyKind = "access-list"
	PolicyRelation        PolicyKind = "relation"
)

// Business relationship with a neighbor router.
type Relation string

// Supported relationships.
const (
	// The neighbor is the provider of the router.
	RelationProvider Relation = "provider"
	// The neighbor is a customer of the router.
	RelationCustomer Relation = "customer"
	RelationPeer     Relation = "peer"
)

// Direction of the routes a policy applies to.
type Direction string

// Supported policy directions.
const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// BGP policy attached to the session with a neighbor router. The prefix
// and access lists deny the Prefix and permit everything else. The
// local preference is applied to the incoming routes and the MED to the
// outgoing routes. The relation permits every incoming route. Only the
// Announce prefixes, or the networks of the router when none are listed,
// are sent to a provider or a peer while a customer receives every route.
type Policy struct {
	Neighbor  string     `yaml:"neighbor" json:"neighbor" xml:"neighbor,attr" validate:"required"`
	Kind      PolicyKind `yaml:"kind" json:"kind" xml:"kind,attr" validate:"oneof=prefix-list local-preference med access-list relation"`
	Direction Direction  `yaml:"direction,omitempty" json:"direction,omitempty" xml:"direction,attr,omitempty" validate:"omitempty,oneof=in out"`
	Prefix    string     `yaml:"prefix,omitempty" json:"prefix,omitempty" xml:"prefix,attr,omitempty" validate:"omitempty,cidrv4"`
	Value     uint32     `yaml:"value,omitempty" json:"value,omitempty" xml:"value,attr,omitempty"`
	Relation  Relation   `yaml:"relation,omitempty" json:"relation,omitempty" xml:"relation,attr,omitempty" validate:"omitempty,oneof=provider customer peer"`
	Announce  []string   `yaml:"announce,omitempty" json:"announce,omitempty" xml:"announce,omitempty" validate:"dive,cidrv4"`
}

// OSPF configuration of a router. Every interface of the router takes
// part in OSPF. The interfaces without an explicit area belong to the
// backbone.
type OSPFConfig struct {
	Areas     []InterfaceArea `yaml:"areas,omitempty" json:"areas,omitempty" xml:"area,omitempty" validate:"dive"`
	StubAreas []string        `yaml:"stub-areas,omitempty" json:"stub-areas,omitempty" xml:"stub,omitempty"`
	Costs     []InterfaceCost `yaml:"costs,omitempty" json:"costs,omitempty" xml:"cost,omitempty" validate:"dive"`
}

// Assigns the interface to the area. The area is a dotted identifier or
// an integer.
func (c *OSPFConfig) SetArea(index int, area string) {
	for i := range c.Areas {
		if c.Areas[i].Interface == index {
			c.Areas[i].Area = area
			return
		}
	}
	c.Areas = append(c.Areas, InterfaceArea{Interface: index, Area: area})
}

// Marks the area as a stub area.
func (c *OSPFConfig) SetStub(area string) {
	if !slices.Contains(c.StubAreas, area) {
		c.StubAreas = append(c.StubAreas, area)
	}
}

// Sets the OSPF cost of the interface.
func (c *OSPFConfig) SetCost(index int, cost uint32) {
	for i := range c.Costs {
		if c.Costs[i].Interface == index {
			c.Costs[i].Cost = cost
			return
		}
	}
	c.Costs = append(c.Costs, InterfaceCost{Interface: index, Cost: cost})
}

// OSPF area of an interface.
type InterfaceArea struct {
	Interface int    `yaml:"interface" json:"interface" xml:"interface,attr" validate:"gte=0"`
	Area      string `yaml:"area" json:"area" xml:"id,attr" validate:"required"`
}

// OSPF cost of an interface.
type InterfaceCost struct {
	Interface int    `yaml:"interface" json:"interface" xml:"interface,attr" validate:"gte=0"`
	Cost      uint32 `yaml:"cost" json:"cost" xml:"value,attr" validate:"required"`
}

// RIP configuration of a router. No interfaces means all connected ones.
type RIPConfig struct {
	Interfaces []int `yaml:"interfaces,omitempty" json:"interfaces,omitempty" xml:"interface,omitempty" validate:"dive,gte=0"`
}

// Static route. The egress interface is optional. When it is not given
// the interface whose subnet holds the next hop is used.
type StaticRoute struct {
	Destination string `yaml:"destination" json:"destination" xml:"destination,attr" validate:"required,cidrv4"`
	NextHop     string `yaml:"next-hop" json:"next-hop" xml:"next-hop,attr" validate:"required,ipv4"`
	Egress      *int   `yaml:"egress,omitempty" json:"egress,omitempty" xml:"egress,attr,omitempty" validate:"omitempty,gte=0"`
}
