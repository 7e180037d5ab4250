package routingcfg

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sciro24/Kathara-labGenerator/addressing"
	"github.com/sciro24/Kathara-labGenerator/topology"
)

// Test that the prefix list policy creates a named list per session and
// direction.
func TestRefinePrefixList(t *testing.T) {
	config := build(t, newBGPModel(t))

	err := config.Refine("r1", topology.Policy{Neighbor: "r2", Kind: topology.PolicyPrefixList, Prefix: "10.0.1.0/24"})
	require.NoError(t, err)
	err = config.Refine("r1", topology.Policy{Neighbor: "r2", Kind: topology.PolicyPrefixList, Prefix: "10.0.2.0/24"})
	require.NoError(t, err)
	err = config.Refine("r1", topology.Policy{
		Neighbor: "r2", Kind: topology.PolicyPrefixList, Direction: topology.DirectionOut, Prefix: "10.0.0.0/30",
	})
	require.NoError(t, err)

	bgp := config.Router("r1").BGP
	require.Len(t, bgp.PrefixLists, 2)
	require.Equal(t, "PL_r1_10_0_0_2_in", bgp.PrefixLists[0].Name)
	require.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.1.0/24"),
		netip.MustParsePrefix("10.0.2.0/24"),
	}, bgp.PrefixLists[0].Deny)
	require.True(t, bgp.PrefixLists[0].PermitAny)
	require.Equal(t, "PL_r1_10_0_0_2_out", bgp.PrefixLists[1].Name)
	require.Equal(t, []NeighborFilter{
		{Name: "PL_r1_10_0_0_2_in", Direction: topology.DirectionIn},
		{Name: "PL_r1_10_0_0_2_out", Direction: topology.DirectionOut},
	}, bgp.Neighbors[0].PrefixLists)
}

// Test that the local preference, the MED and the access list share the
// route maps of their direction.
func TestRefineRouteMaps(t *testing.T) {
	config := build(t, newBGPModel(t))
	router := config.Router("r1")

	require.NoError(t, router.Refine(topology.Policy{Neighbor: "r2", Kind: topology.PolicyLocalPreference, Value: 200}))
	require.NoError(t, router.Refine(topology.Policy{Neighbor: "r2", Kind: topology.PolicyMED, Value: 50}))
	require.NoError(t, router.Refine(topology.Policy{Neighbor: "r2", Kind: topology.PolicyAccessList, Prefix: "10.0.1.0/24"}))

	bgp := router.BGP
	require.Equal(t, []*RouteMap{
		{Name: "PREF_IN_10_0_0_2", Sequence: 10, LocalPreference: 200, MatchAccessList: 10},
		{Name: "LOCALMED_OUT_10_0_0_2", Sequence: 10, Metric: 50},
	}, bgp.RouteMaps)
	require.Equal(t, []*AccessList{
		{ID: 10, Deny: []netip.Prefix{netip.MustParsePrefix("10.0.1.0/24")}},
	}, bgp.AccessLists)
	require.Equal(t, []NeighborFilter{
		{Name: "PREF_IN_10_0_0_2", Direction: topology.DirectionIn},
		{Name: "LOCALMED_OUT_10_0_0_2", Direction: topology.DirectionOut},
	}, bgp.Neighbors[0].RouteMaps)
}

// Test that the access lists are numbered in steps of ten across the
// sessions.
func TestRefineAccessListNumbering(t *testing.T) {
	config := build(t, newBGPModel(t))
	router := config.Router("r2")

	require.NoError(t, router.Refine(topology.Policy{Neighbor: "r1", Kind: topology.PolicyAccessList, Prefix: "10.0.1.0/24"}))
	require.NoError(t, router.Refine(topology.Policy{Neighbor: "r3", Kind: topology.PolicyAccessList, Prefix: "10.0.0.0/30"}))
	require.NoError(t, router.Refine(topology.Policy{Neighbor: "r3", Kind: topology.PolicyAccessList, Prefix: "10.0.9.0/24"}))

	bgp := router.BGP
	require.Len(t, bgp.AccessLists, 2)
	require.Equal(t, 10, bgp.AccessLists[0].ID)
	require.Equal(t, 20, bgp.AccessLists[1].ID)
	require.Len(t, bgp.AccessLists[1].Deny, 2)
	require.Equal(t, "FILTER_IN_10_0_0_1", bgp.RouteMaps[0].Name)
	require.Equal(t, "FILTER_IN_10_0_1_2", bgp.RouteMaps[1].Name)
	require.Equal(t, 20, bgp.RouteMaps[1].MatchAccessList)
}

// Test that the customer relation permits every route in both directions.
func TestRefineCustomerRelation(t *testing.T) {
	config := build(t, newBGPModel(t))

	err := config.Refine("r1", topology.Policy{
		Neighbor: "r2", Kind: topology.PolicyRelation, Relation: topology.RelationCustomer,
	})
	require.NoError(t, err)

	bgp := config.Router("r1").BGP
	require.Equal(t, []*PrefixList{
		{Name: "customer_r2_in", PermitAny: true},
		{Name: "customer_r2_out", PermitAny: true},
	}, bgp.PrefixLists)
	require.Equal(t, []NeighborFilter{
		{Name: "customer_r2_in", Direction: topology.DirectionIn},
		{Name: "customer_r2_out", Direction: topology.DirectionOut},
	}, bgp.Neighbors[0].PrefixLists)
	require.Equal(t, topology.RelationCustomer, bgp.Neighbors[0].Relation)
}

// Test that the provider and peer relations send only the announced
// prefixes, defaulting to the networks of the router.
func TestRefineProviderAndPeerRelations(t *testing.T) {
	config := build(t, newBGPModel(t))

	err := config.Refine("r1", topology.Policy{
		Neighbor: "r2", Kind: topology.PolicyRelation, Relation: topology.RelationProvider,
	})
	require.NoError(t, err)
	bgp := config.Router("r1").BGP
	require.NotEmpty(t, bgp.Networks)
	require.Equal(t, []*PrefixList{
		{Name: "provider_r2_in", PermitAny: true},
		{Name: "provider_r2_out", Permit: bgp.Networks},
	}, bgp.PrefixLists)

	err = config.Refine("r2", topology.Policy{
		Neighbor: "r3", Kind: topology.PolicyRelation, Relation: topology.RelationPeer,
		Announce: []string{"10.20.0.0/16", "10.30.0.0/16"},
	})
	require.NoError(t, err)
	peer := config.Router("r2").BGP
	require.Equal(t, []*PrefixList{
		{Name: "peer_r3_in", PermitAny: true},
		{Name: "peer_r3_out", Permit: []netip.Prefix{
			netip.MustParsePrefix("10.20.0.0/16"),
			netip.MustParsePrefix("10.30.0.0/16"),
		}},
	}, peer.PrefixLists)
}

// Test that the relation shares the prefix lists already attached to the
// session and that a second relation with the neighbor is rejected.
func TestRefineRelationMergesPrefixLists(t *testing.T) {
	config := build(t, newBGPModel(t))

	err := config.Refine("r1", topology.Policy{
		Neighbor: "r2", Kind: topology.PolicyPrefixList, Direction: topology.DirectionOut, Prefix: "10.9.0.0/16",
	})
	require.NoError(t, err)
	err = config.Refine("r1", topology.Policy{
		Neighbor: "r2", Kind: topology.PolicyRelation, Relation: topology.RelationPeer,
		Announce: []string{"10.8.0.0/16"},
	})
	require.NoError(t, err)

	bgp := config.Router("r1").BGP
	require.Equal(t, []*PrefixList{
		{
			Name:   "PL_r1_10_0_0_2_out",
			Deny:   []netip.Prefix{netip.MustParsePrefix("10.9.0.0/16")},
			Permit: []netip.Prefix{netip.MustParsePrefix("10.8.0.0/16")},
		},
		{Name: "peer_r2_in", PermitAny: true},
	}, bgp.PrefixLists)
	require.Len(t, bgp.Neighbors[0].PrefixLists, 2)

	err = config.Refine("r1", topology.Policy{
		Neighbor: "r2", Kind: topology.PolicyRelation, Relation: topology.RelationCustomer,
	})
	require.ErrorContains(t, err, "neighbor r2 of router r1 is already in the peer relation")

	err = config.Refine("r1", topology.Policy{Neighbor: "r2", Kind: topology.PolicyRelation})
	require.ErrorContains(t, err, "unknown relation")

	err = config.Refine("r1", topology.Policy{
		Neighbor: "r2", Kind: topology.PolicyRelation, Relation: topology.RelationPeer,
		Announce: []string{"bogus"},
	})
	require.ErrorContains(t, err, "invalid relation policy for neighbor r2")
}

// Test that the malformed policies are rejected.
func TestRefineInvalid(t *testing.T) {
	config := build(t, newBGPModel(t))
	router := config.Router("r1")

	err := router.Refine(topology.Policy{Neighbor: "r2", Kind: topology.PolicyPrefixList})
	require.ErrorContains(t, err, "invalid prefix-list policy for neighbor r2")

	err = router.Refine(topology.Policy{Neighbor: "r2", Kind: topology.PolicyMED})
	require.ErrorContains(t, err, "med policy for neighbor r2 requires a value")

	err = router.Refine(topology.Policy{Neighbor: "r2", Kind: "community"})
	require.ErrorContains(t, err, "unknown policy kind 'community'")

	err = router.Refine(topology.Policy{Neighbor: "r3", Kind: topology.PolicyMED, Value: 1})
	var unknown *UnknownNeighborError
	require.ErrorAs(t, err, &unknown)

	err = config.Refine("r9", topology.Policy{Neighbor: "r2", Kind: topology.PolicyMED, Value: 1})
	require.ErrorContains(t, err, "device r9 not found")
}

// Test that the build attaches the policies of the topology and records
// the policies naming routers that are not neighbors.
func TestBuildAttachesPolicies(t *testing.T) {
	model := newBGPModel(t)
	bgp := model.Device("r1").Routing.BGP
	bgp.Policies = append(bgp.Policies,
		topology.Policy{Neighbor: "r2", Kind: topology.PolicyLocalPreference, Value: 150},
		topology.Policy{Neighbor: "r3", Kind: topology.PolicyMED, Value: 10},
	)

	config := build(t, model)

	require.Equal(t, []topology.ErrorKind{topology.ErrorKindUnknownNeighbor}, errorKinds(t, config.Errors))
	require.Len(t, config.Router("r1").BGP.RouteMaps, 1)
	require.EqualValues(t, 150, config.Router("r1").BGP.RouteMaps[0].LocalPreference)
}

// Test that a malformed policy of the topology fails the build.
func TestBuildInvalidPolicy(t *testing.T) {
	model := newBGPModel(t)
	bgp := model.Device("r1").Routing.BGP
	bgp.Policies = append(bgp.Policies, topology.Policy{Neighbor: "r2", Kind: topology.PolicyAccessList})
	plan, err := addressing.Allocate(model, addressing.DefaultOptions())
	require.NoError(t, err)

	config, err := Build(model, plan)

	require.Nil(t, config)
	require.ErrorContains(t, err, "invalid BGP policy of router r1")
}
