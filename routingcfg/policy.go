package routingcfg

import (
	"fmt"
	"net/netip"
	"slices"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sciro24/Kathara-labGenerator/topology"
	labutil "github.com/sciro24/Kathara-labGenerator/util"
)

// Sequence number of the generated route map entries.
const routeMapSequence = 10

// First number of the generated access lists. The following lists are
// numbered in steps of ten.
const accessListBase = 10

// Attaches the policy to every session with the neighbor router. The
// prefix and access lists deny the policy prefix. The local preference is
// set on the incoming routes and the MED on the outgoing routes. The
// policies of the same direction share a single route map per session.
// The relation fills the prefix lists of both directions and restricts
// the routes sent to a provider or a peer to the announced prefixes.
func (c *RouterConfig) Refine(policy topology.Policy) error {
	if c.BGP == nil {
		return NewUnknownNeighborError(c.Router, policy.Neighbor)
	}
	neighbors := c.BGP.NeighborsOf(policy.Neighbor)
	if len(neighbors) == 0 {
		return NewUnknownNeighborError(c.Router, policy.Neighbor)
	}

	var (
		prefix   netip.Prefix
		announce []netip.Prefix
	)
	switch policy.Kind {
	case topology.PolicyPrefixList, topology.PolicyAccessList:
		parsed, err := labutil.ParseIPv4Prefix(policy.Prefix)
		if err != nil {
			return errors.WithMessagef(err, "invalid %s policy for neighbor %s", policy.Kind, policy.Neighbor)
		}
		prefix = parsed
	case topology.PolicyLocalPreference, topology.PolicyMED:
		if policy.Value == 0 {
			return errors.Errorf("%s policy for neighbor %s requires a value", policy.Kind, policy.Neighbor)
		}
	case topology.PolicyRelation:
		switch policy.Relation {
		case topology.RelationProvider, topology.RelationCustomer, topology.RelationPeer:
		default:
			return errors.Errorf("relation policy for neighbor %s has unknown relation '%s'", policy.Neighbor, policy.Relation)
		}
		for _, neighbor := range neighbors {
			if neighbor.Relation != "" && neighbor.Relation != policy.Relation {
				return errors.Errorf("neighbor %s of router %s is already in the %s relation", policy.Neighbor, c.Router, neighbor.Relation)
			}
		}
		for _, text := range policy.Announce {
			parsed, err := labutil.ParseIPv4Prefix(text)
			if err != nil {
				return errors.WithMessagef(err, "invalid relation policy for neighbor %s", policy.Neighbor)
			}
			announce = append(announce, parsed)
		}
	default:
		return errors.Errorf("unknown policy kind '%s'", policy.Kind)
	}

	for _, neighbor := range neighbors {
		switch policy.Kind {
		case topology.PolicyPrefixList:
			direction := policy.Direction
			if direction == "" {
				direction = topology.DirectionIn
			}
			c.denyPrefix(neighbor, direction, prefix)
		case topology.PolicyLocalPreference:
			routeMap := c.neighborRouteMap(neighbor, topology.DirectionIn, "PREF_IN")
			routeMap.LocalPreference = policy.Value
		case topology.PolicyMED:
			routeMap := c.neighborRouteMap(neighbor, topology.DirectionOut, "LOCALMED_OUT")
			routeMap.Metric = policy.Value
		case topology.PolicyAccessList:
			c.filterPrefix(neighbor, prefix)
		case topology.PolicyRelation:
			c.relate(neighbor, policy.Relation, announce, len(neighbors) > 1)
		}
	}

	log.WithFields(log.Fields{
		"router":   c.Router,
		"neighbor": policy.Neighbor,
		"kind":     policy.Kind,
	}).Debug("Attached BGP policy")
	return nil
}

// Returns the address as used in the generated names, e.g., 10_0_0_2.
func nameAddress(address netip.Addr) string {
	return strings.ReplaceAll(address.String(), ".", "_")
}

// Returns the prefix list applied to the session in the direction. A new
// list with the given name is created when the session has none.
func (c *RouterConfig) neighborPrefixList(neighbor *Neighbor, direction topology.Direction, name string) (*PrefixList, bool) {
	if existing := neighbor.prefixList(direction); existing != "" {
		index := slices.IndexFunc(c.BGP.PrefixLists, func(list *PrefixList) bool {
			return list.Name == existing
		})
		if index >= 0 {
			return c.BGP.PrefixLists[index], false
		}
	}
	list := &PrefixList{Name: name}
	c.BGP.PrefixLists = append(c.BGP.PrefixLists, list)
	neighbor.PrefixLists = append(neighbor.PrefixLists, NeighborFilter{Name: name, Direction: direction})
	return list, true
}

// Adds the prefix to the prefix list of the session and direction.
func (c *RouterConfig) denyPrefix(neighbor *Neighbor, direction topology.Direction, prefix netip.Prefix) {
	name := fmt.Sprintf("PL_%s_%s_%s", c.Router, nameAddress(neighbor.Address), direction)
	list, created := c.neighborPrefixList(neighbor, direction, name)
	if created {
		list.PermitAny = true
	}
	if !slices.Contains(list.Deny, prefix) {
		list.Deny = append(list.Deny, prefix)
	}
}

// Applies the relation to the session. Every route is accepted from the
// neighbor. A customer receives every route and a provider or a peer only
// the announced prefixes, by default the networks of the router. The
// lists are named after the relation and the peer, with the neighbor
// address added when the peer has several sessions.
func (c *RouterConfig) relate(neighbor *Neighbor, relation topology.Relation, announce []netip.Prefix, shared bool) {
	neighbor.Relation = relation
	name := func(direction topology.Direction) string {
		if shared {
			return fmt.Sprintf("%s_%s_%s_%s", relation, neighbor.Peer, nameAddress(neighbor.Address), direction)
		}
		return fmt.Sprintf("%s_%s_%s", relation, neighbor.Peer, direction)
	}

	inbound, _ := c.neighborPrefixList(neighbor, topology.DirectionIn, name(topology.DirectionIn))
	inbound.PermitAny = true

	outbound, _ := c.neighborPrefixList(neighbor, topology.DirectionOut, name(topology.DirectionOut))
	if relation == topology.RelationCustomer {
		outbound.PermitAny = true
		return
	}
	outbound.PermitAny = false
	if len(announce) == 0 {
		announce = c.BGP.Networks
	}
	for _, prefix := range announce {
		if !slices.Contains(outbound.Permit, prefix) {
			outbound.Permit = append(outbound.Permit, prefix)
		}
	}
}

// Matches the incoming routes of the session against a new access list
// denying the prefix.
func (c *RouterConfig) filterPrefix(neighbor *Neighbor, prefix netip.Prefix) {
	routeMap := c.neighborRouteMap(neighbor, topology.DirectionIn, "FILTER_IN")
	if routeMap.MatchAccessList != 0 {
		for _, list := range c.BGP.AccessLists {
			if list.ID == routeMap.MatchAccessList {
				if !slices.Contains(list.Deny, prefix) {
					list.Deny = append(list.Deny, prefix)
				}
				return
			}
		}
	}
	list := &AccessList{
		ID:   accessListBase * (len(c.BGP.AccessLists) + 1),
		Deny: []netip.Prefix{prefix},
	}
	c.BGP.AccessLists = append(c.BGP.AccessLists, list)
	routeMap.MatchAccessList = list.ID
}

// Returns the route map applied to the session in the direction. A new
// route map named after the prefix and the neighbor address is created
// when the session has none.
func (c *RouterConfig) neighborRouteMap(neighbor *Neighbor, direction topology.Direction, prefix string) *RouteMap {
	if name := neighbor.routeMap(direction); name != "" {
		for _, routeMap := range c.BGP.RouteMaps {
			if routeMap.Name == name {
				return routeMap
			}
		}
	}
	routeMap := &RouteMap{
		Name:     fmt.Sprintf("%s_%s", prefix, nameAddress(neighbor.Address)),
		Sequence: routeMapSequence,
	}
	c.BGP.RouteMaps = append(c.BGP.RouteMaps, routeMap)
	neighbor.RouteMaps = append(neighbor.RouteMaps, NeighborFilter{Name: routeMap.Name, Direction: direction})
	return routeMap
}
