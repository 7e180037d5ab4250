package review

import (
	"net/netip"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"

	"github.com/sciro24/Kathara-labGenerator/addressing"
	"github.com/sciro24/Kathara-labGenerator/routingcfg"
	"github.com/sciro24/Kathara-labGenerator/servicecfg"
	"github.com/sciro24/Kathara-labGenerator/testutil"
	"github.com/sciro24/Kathara-labGenerator/topology"
)

// Derives the configuration of the model with the given allocation
// options.
func derive(t *testing.T, model *topology.Model, options addressing.Options) *Input {
	plan, err := addressing.Allocate(model, options)
	require.NoError(t, err)
	routing, err := routingcfg.Build(model, plan)
	require.NoError(t, err)
	services, err := servicecfg.Build(model, plan, servicecfg.DefaultOptions())
	require.NoError(t, err)
	return &Input{Model: model, Plan: plan, Routing: routing, Services: services}
}

// Returns the issues found by the checker.
func issuesOf(result *Result, checkerName string) []*Issue {
	var issues []*Issue
	for _, issue := range result.Issues {
		if issue.Checker == checkerName {
			issues = append(issues, issue)
		}
	}
	return issues
}

// Test that the reference lab passes the review.
func TestReviewCleanLab(t *testing.T) {
	result, err := Review(derive(t, testutil.NewLabModel(t), addressing.DefaultOptions()))

	require.NoError(t, err)
	require.True(t, result.OK())
	require.Empty(t, result.Error())
	require.Empty(t, result.Counts())
}

// Test that the review requires the topology.
func TestReviewMissingModel(t *testing.T) {
	result, err := Review(&Input{})
	require.Nil(t, result)
	require.ErrorContains(t, err, "review requires the topology")

	result, err = Review(nil)
	require.Nil(t, result)
	require.Error(t, err)
}

// Test that the checkers skip the missing parts of the input.
func TestReviewModelOnly(t *testing.T) {
	result, err := Review(&Input{Model: testutil.NewLabModel(t)})

	require.NoError(t, err)
	require.True(t, result.OK())
}

// Test that the structural problems are reported all at once.
func TestReviewStructure(t *testing.T) {
	model := testutil.NewLabModel(t)
	input := derive(t, model, addressing.DefaultOptions())
	_, err := model.AddInterface("h1")
	require.NoError(t, err)
	_, err = model.AddInterface("www")
	require.NoError(t, err)

	result, err := Review(input)

	require.NoError(t, err)
	issues := issuesOf(result, StructureCheckerName)
	require.Len(t, issues, 2)
	require.Equal(t, topology.ErrorKindDanglingInterface, issues[0].Kind)
	require.Equal(t, []string{"h1/eth1"}, issues[0].Refs)
	require.Equal(t, []string{"www/eth1"}, issues[1].Refs)
}

// Test that the problems recorded during the derivation become issues.
func TestReviewDerivationErrors(t *testing.T) {
	options := addressing.DefaultOptions()
	options.Base = "10.0.0.0/29"
	model := testutil.NewLabModel(t)
	model.Device("r1").Routing.BGP.Declare("h1", "")

	result, err := Review(derive(t, model, options))

	require.NoError(t, err)
	require.False(t, result.OK())
	issues := issuesOf(result, DerivationErrorsCheckerName)
	require.Len(t, issues, 2)
	require.Equal(t, topology.ErrorKindAddressSpaceExhausted, issues[0].Kind)
	require.Equal(t, topology.ErrorKindUnknownNeighbor, issues[1].Kind)
	require.Equal(t, 1, result.Counts()[topology.ErrorKindAddressSpaceExhausted])
}

// Test that the overlapping link subnets are reported.
func TestReviewSubnetOverlap(t *testing.T) {
	input := derive(t, testutil.NewLabModel(t), addressing.DefaultOptions())
	input.Plan.Link("C").Subnet = netip.MustParsePrefix("10.0.1.0/30")

	result, err := Review(input)

	require.NoError(t, err)
	issues := issuesOf(result, SubnetDisjointnessCheckerName)
	require.Len(t, issues, 1)
	require.Equal(t, topology.ErrorKindAddressConflict, issues[0].Kind)
	require.Contains(t, issues[0].Message, "overlaps the subnet 10.0.1.0/24 of link B")
	require.Equal(t, []string{"C", "10.0.1.0/30"}, issues[0].Refs)

	// The addresses of C are no longer in its subnet.
	require.Len(t, issuesOf(result, InterfaceAddressesCheckerName), 2)
}

// Test that the loopbacks within the link subnets are reported.
func TestReviewLoopbackInLinkSubnet(t *testing.T) {
	input := derive(t, testutil.NewLabModel(t), addressing.DefaultOptions())
	input.Plan.Link("C").Subnet = netip.MustParsePrefix("192.168.255.0/30")

	result, err := Review(input)

	require.NoError(t, err)
	issues := issuesOf(result, SubnetDisjointnessCheckerName)
	require.Len(t, issues, 2)
	require.Contains(t, issues[0].Message, "loopback of router r1")
	require.Contains(t, issues[1].Message, "loopback of router r2")
}

// Test that a gateway that is not the address of the designated member
// is reported.
func TestReviewGatewayMismatch(t *testing.T) {
	model := testutil.NewLabModel(t)
	input := derive(t, model, addressing.DefaultOptions())
	model.Link("B").Gateway = "h1"

	result, err := Review(input)

	require.NoError(t, err)
	issues := issuesOf(result, InterfaceAddressesCheckerName)
	require.Len(t, issues, 1)
	require.Contains(t, issues[0].Message, "gateway 10.0.1.1 is not the address of the designated gateway h1/eth0")
}

// Test the detection of the network and broadcast addresses.
func TestIsReservedAddress(t *testing.T) {
	subnet := netip.MustParsePrefix("10.0.0.0/30")
	require.True(t, isReservedAddress(subnet, netip.MustParseAddr("10.0.0.0")))
	require.True(t, isReservedAddress(subnet, netip.MustParseAddr("10.0.0.3")))
	require.False(t, isReservedAddress(subnet, netip.MustParseAddr("10.0.0.1")))

	subnet = netip.MustParsePrefix("10.0.0.0/31")
	require.False(t, isReservedAddress(subnet, netip.MustParseAddr("10.0.0.0")))
	require.False(t, isReservedAddress(subnet, netip.MustParseAddr("10.0.0.1")))
}

// Test that a session without a reciprocal session is reported.
func TestReviewAsymmetricNeighbor(t *testing.T) {
	input := derive(t, testutil.NewLabModel(t), addressing.DefaultOptions())
	input.Routing.Router("r1").BGP.Neighbors = nil

	result, err := Review(input)

	require.NoError(t, err)
	issues := issuesOf(result, BGPSymmetryCheckerName)
	require.Len(t, issues, 1)
	require.Equal(t, topology.ErrorKindAsymmetricNeighbor, issues[0].Kind)
	require.Equal(t, []string{"r2", "r1"}, issues[0].Refs)
}

// Test that the protocol settings referencing missing interfaces and
// networks are reported.
func TestReviewProtocolInterfaces(t *testing.T) {
	input := derive(t, testutil.NewLabModel(t), addressing.DefaultOptions())
	r1 := input.Routing.Router("r1")
	r1.OSPF.Networks = append(r1.OSPF.Networks, routingcfg.OSPFNetwork{
		Prefix: netip.MustParsePrefix("172.16.0.0/24"), Area: routingcfg.BackboneArea,
	})
	r1.RIP = &routingcfg.RIPProcess{Networks: []netip.Prefix{netip.MustParsePrefix("10.0.1.0/24")}}
	r1.Static = []routingcfg.StaticRoute{
		{Destination: netip.MustParsePrefix("10.0.2.0/30"), NextHop: netip.MustParseAddr("10.0.0.2"), Interface: 9},
		{Destination: netip.MustParsePrefix("10.0.2.0/30"), NextHop: netip.MustParseAddr("10.0.1.9"), Interface: 0},
		{Destination: netip.MustParsePrefix("10.0.2.0/30"), NextHop: netip.MustParseAddr("10.0.0.2"), Interface: 0},
	}

	result, err := Review(input)

	require.NoError(t, err)
	issues := issuesOf(result, ProtocolInterfacesCheckerName)
	require.Len(t, issues, 3)
	require.Equal(t, topology.ErrorKindUnknownInterface, issues[0].Kind)
	require.Equal(t, "ospf network 172.16.0.0/24 of router r1 is not attached to any of its interfaces", issues[0].Message)
	require.Equal(t, topology.ErrorKindUnknownInterface, issues[1].Kind)
	require.Equal(t, []string{"r1/eth9"}, issues[1].Refs)
	require.Equal(t, topology.ErrorKindUnreachableStaticGateway, issues[2].Kind)
}

// Test that the zone records not matching the allocation are reported.
func TestReviewZoneRecords(t *testing.T) {
	input := derive(t, testutil.NewLabModel(t), addressing.DefaultOptions())
	zone := input.Services.Server("dns1").Zone
	records := []dns.RR{}
	for _, rr := range zone.Records {
		a, ok := rr.(*dns.A)
		switch {
		case ok && a.Hdr.Name == "h1.example.test.":
			continue
		case ok && a.Hdr.Name == "www.example.test.":
			a.A = netip.MustParseAddr("10.0.1.99").AsSlice()
		}
		records = append(records, rr)
	}
	records = append(records, &dns.A{
		Hdr: dns.RR_Header{Name: "ghost.example.test.", Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
		A:   netip.MustParseAddr("10.0.1.50").AsSlice(),
	})
	zone.Records = records

	result, err := Review(input)

	require.NoError(t, err)
	issues := issuesOf(result, ZoneRecordsCheckerName)
	require.Len(t, issues, 3)
	for _, issue := range issues {
		require.Equal(t, topology.ErrorKindZoneRecordMismatch, issue.Kind)
	}
	require.Equal(t, "zone of DNS server dns1 has record www.example.test. with address 10.0.1.99 instead of 10.0.1.3",
		issues[0].Message)
	require.Contains(t, issues[1].Message, "ghost.example.test. with address 10.0.1.50 naming no addressed device")
	require.Equal(t, "zone of DNS server dns1 has no record h1.example.test. for address 10.0.1.2", issues[2].Message)
}

// Test that the zone derived before an address change is stale.
func TestReviewStaleZone(t *testing.T) {
	model := testutil.NewLabModel(t)
	input := derive(t, model, addressing.DefaultOptions())

	model.Link("B").Subnet = "172.16.0.0/24"
	fresh := derive(t, model, addressing.DefaultOptions())
	input.Plan = fresh.Plan
	input.Routing = fresh.Routing

	result, err := Review(input)

	require.NoError(t, err)
	require.Len(t, result.IssuesOfKind(topology.ErrorKindZoneRecordMismatch), 5)

	// Rebuilding the zone from the current plan clears them.
	result, err = Review(fresh)
	require.NoError(t, err)
	require.True(t, result.OK())
}
