package routingcfg

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sciro24/Kathara-labGenerator/addressing"
	"github.com/sciro24/Kathara-labGenerator/topology"
)

// Creates a model with r1 (AS 100) connected point-to-point to r2
// (AS 200) and a LAN between r2, r3 (AS 200) and h1. The link A gets
// 10.0.0.0/30 and the LAN B gets 10.0.1.0/24.
func newBGPModel(t *testing.T) *topology.Model {
	model := topology.New()
	for _, id := range []string{"r1", "r2", "r3"} {
		_, err := model.AddDevice(topology.KindRouter, id)
		require.NoError(t, err)
	}
	_, err := model.AddDevice(topology.KindHost, "h1")
	require.NoError(t, err)
	_, err = model.Connect(topology.Ref("r1", 0), topology.Ref("r2", 0))
	require.NoError(t, err)
	_, err = model.Connect(topology.Ref("r2", 1), topology.Ref("r3", 0), topology.Ref("h1", 0))
	require.NoError(t, err)

	model.Device("r1").Routing.EnableBGP(100)
	model.Device("r2").Routing.EnableBGP(200)
	model.Device("r3").Routing.EnableBGP(200)
	return model
}

// Allocates the addresses and builds the routing configuration.
func build(t *testing.T, model *topology.Model) *Config {
	plan, err := addressing.Allocate(model, addressing.DefaultOptions())
	require.NoError(t, err)
	require.Empty(t, plan.Errors)
	config, err := Build(model, plan)
	require.NoError(t, err)
	return config
}

// Returns the kinds of the errors.
func errorKinds(t *testing.T, errs []error) []topology.ErrorKind {
	kinds := []topology.ErrorKind{}
	for _, err := range errs {
		var kinded topology.KindedError
		require.ErrorAs(t, err, &kinded)
		kinds = append(kinds, kinded.Kind())
	}
	return kinds
}

// Test that the linked BGP routers become neighbors on both ends.
func TestBuildBGPAutoNeighbors(t *testing.T) {
	config := build(t, newBGPModel(t))

	require.Empty(t, config.Errors)
	require.Len(t, config.Routers, 3)

	r1 := config.Router("r1")
	require.NotNil(t, r1)
	require.True(t, r1.UsesFRR)
	require.True(t, r1.Daemons.Zebra)
	require.True(t, r1.Daemons.BGP)
	require.False(t, r1.Daemons.OSPF)
	require.Equal(t, "192.168.255.1", r1.RouterID.String())
	require.EqualValues(t, 100, r1.BGP.ASN)
	require.Equal(t, []netip.Prefix{netip.MustParsePrefix("10.0.0.0/30")}, r1.BGP.Networks)
	require.Len(t, r1.BGP.Neighbors, 1)
	require.Equal(t, "r2", r1.BGP.Neighbors[0].Peer)
	require.Equal(t, "10.0.0.2", r1.BGP.Neighbors[0].Address.String())
	require.EqualValues(t, 200, r1.BGP.Neighbors[0].RemoteAS)
	require.Equal(t, SessionExternal, r1.BGP.Neighbors[0].Type)
	require.Equal(t, "Router r2", r1.BGP.Neighbors[0].Description)

	r2 := config.Router("r2")
	require.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/30"),
		netip.MustParsePrefix("10.0.1.0/24"),
	}, r2.BGP.Networks)
	require.Len(t, r2.BGP.Neighbors, 2)
	require.Equal(t, "r1", r2.BGP.Neighbors[0].Peer)
	require.Equal(t, "10.0.0.1", r2.BGP.Neighbors[0].Address.String())
	require.Equal(t, "r3", r2.BGP.Neighbors[1].Peer)
	require.Equal(t, "10.0.1.2", r2.BGP.Neighbors[1].Address.String())
	require.Equal(t, SessionInternal, r2.BGP.Neighbors[1].Type)

	require.Empty(t, CheckSymmetry(config))
}

// Test that the routers not running BGP are not neighbors.
func TestBuildBGPSkipsNonBGPRouters(t *testing.T) {
	model := newBGPModel(t)
	model.Device("r3").Routing.Disable(topology.ProtocolBGP)
	model.Device("r3").Routing.EnableOSPF()

	config := build(t, model)

	r2 := config.Router("r2")
	require.Len(t, r2.BGP.Neighbors, 1)
	require.Equal(t, "r1", r2.BGP.Neighbors[0].Peer)
	require.Nil(t, config.Router("r3").BGP)
}

// Test that a session over the loopbacks declared on one end only is
// reported as asymmetric.
func TestBuildDeclaredLoopbackNeighbor(t *testing.T) {
	model := newBGPModel(t)
	model.Device("r1").Routing.BGP.Declare("r3", topology.UpdateSourceLoopback)

	config := build(t, model)

	neighbors := config.Router("r1").BGP.NeighborsOf("r3")
	require.Len(t, neighbors, 1)
	require.True(t, neighbors[0].Declared)
	require.Equal(t, "192.168.255.3", neighbors[0].Address.String())
	require.Equal(t, "lo", neighbors[0].UpdateSource)
	require.Equal(t, SessionExternal, neighbors[0].Type)

	errs := CheckSymmetry(config)
	require.Len(t, errs, 1)
	require.Equal(t, []topology.ErrorKind{topology.ErrorKindAsymmetricNeighbor}, errorKinds(t, errs))
	require.ErrorContains(t, errs[0], "router r1 has BGP neighbor 192.168.255.3 (router r3, AS 200)")

	// Declaring the session on the other end makes it symmetric.
	model.Device("r3").Routing.BGP.Declare("r1", topology.UpdateSourceLoopback)
	config = build(t, model)
	require.Empty(t, CheckSymmetry(config))
}

// Test that a session over the loopbacks declared towards a directly
// linked router is asymmetric until the router declares a loopback
// session back. The session over the shared link does not reciprocate
// it.
func TestCheckSymmetryLoopbackOverSharedLink(t *testing.T) {
	model := newBGPModel(t)
	model.Device("r1").Routing.BGP.Declare("r2", topology.UpdateSourceLoopback)
	model.Device("r2").Routing.BGP.Declare("r1", "")

	config := build(t, model)

	require.Len(t, config.Router("r1").BGP.NeighborsOf("r2"), 2)
	require.Len(t, config.Router("r2").BGP.NeighborsOf("r1"), 1)
	errs := CheckSymmetry(config)
	require.Len(t, errs, 1)
	var asymmetric *AsymmetricNeighborError
	require.ErrorAs(t, errs[0], &asymmetric)
	require.Equal(t, []string{"r1", "r2"}, asymmetric.Refs())
	require.ErrorContains(t, errs[0], "192.168.255.2")

	model.Device("r2").Routing.BGP.Declare("r1", topology.UpdateSourceLoopback)
	config = build(t, model)
	require.Len(t, config.Router("r2").BGP.NeighborsOf("r1"), 2)
	require.Empty(t, CheckSymmetry(config))
}

// Test that a declaration duplicating a session over the shared link is
// skipped.
func TestBuildDeclaredNeighborOnSharedLink(t *testing.T) {
	model := newBGPModel(t)
	model.Device("r1").Routing.BGP.Declare("r2", "")

	config := build(t, model)

	require.Len(t, config.Router("r1").BGP.Neighbors, 1)
	require.False(t, config.Router("r1").BGP.Neighbors[0].Declared)
	require.Empty(t, config.Errors)
}

// Test that declaring a session with a device not running BGP is
// recorded.
func TestBuildDeclaredUnknownNeighbor(t *testing.T) {
	model := newBGPModel(t)
	model.Device("r1").Routing.BGP.Declare("h1", "")

	config := build(t, model)

	require.Equal(t, []topology.ErrorKind{topology.ErrorKindUnknownNeighbor}, errorKinds(t, config.Errors))
	require.Len(t, config.Router("r1").BGP.Neighbors, 1)
}

// Test that the peer configured with a different AS number than the
// peer router runs makes the session asymmetric.
func TestCheckSymmetryRemoteASMismatch(t *testing.T) {
	config := build(t, newBGPModel(t))
	config.Router("r1").BGP.Neighbors[0].RemoteAS = 300

	errs := CheckSymmetry(config)

	require.Len(t, errs, 1)
	var asymmetric *AsymmetricNeighborError
	require.ErrorAs(t, errs[0], &asymmetric)
	require.Equal(t, []string{"r1", "r2"}, asymmetric.Refs())
}

// Test the OSPF areas, stub areas and costs.
func TestBuildOSPF(t *testing.T) {
	model := newBGPModel(t)
	for _, id := range []string{"r1", "r2", "r3"} {
		model.Device(id).Routing.Disable(topology.ProtocolBGP)
	}
	model.Device("r1").Routing.EnableOSPF()
	ospf := model.Device("r2").Routing.EnableOSPF()
	ospf.SetArea(1, "1")
	ospf.SetStub("0.0.0.1")
	ospf.SetCost(0, 20)

	config := build(t, model)

	require.Empty(t, config.Errors)
	r2 := config.Router("r2")
	require.True(t, r2.Daemons.OSPF)
	require.Nil(t, r2.BGP)
	require.Equal(t, []OSPFNetwork{
		{Prefix: netip.MustParsePrefix("10.0.0.0/30"), Area: BackboneArea},
		{Prefix: netip.MustParsePrefix("10.0.1.0/24"), Area: "0.0.0.1"},
		{Prefix: netip.MustParsePrefix("192.168.255.2/32"), Area: BackboneArea},
	}, r2.OSPF.Networks)
	require.Equal(t, []string{"0.0.0.1"}, r2.OSPF.StubAreas)
	require.EqualValues(t, 20, r2.Interfaces[0].OSPFCost)
	require.Zero(t, r2.Interfaces[1].OSPFCost)

	r1 := config.Router("r1")
	require.Equal(t, []OSPFNetwork{
		{Prefix: netip.MustParsePrefix("10.0.0.0/30"), Area: BackboneArea},
		{Prefix: netip.MustParsePrefix("192.168.255.1/32"), Area: BackboneArea},
	}, r1.OSPF.Networks)
}

// Test that the OSPF settings naming missing interfaces are recorded.
func TestBuildOSPFUnknownInterface(t *testing.T) {
	model := newBGPModel(t)
	ospf := model.Device("r1").Routing.EnableOSPF()
	ospf.SetArea(3, "1")
	ospf.SetCost(5, 10)

	config := build(t, model)

	require.Equal(t, []topology.ErrorKind{
		topology.ErrorKindUnknownInterface,
		topology.ErrorKindUnknownInterface,
	}, errorKinds(t, config.Errors))
	require.ErrorContains(t, config.Errors[0], "ospf configuration of router r1 references non-existent interface eth3")
}

// Test that the malformed OSPF areas fail the build.
func TestBuildOSPFInvalidArea(t *testing.T) {
	model := newBGPModel(t)
	model.Device("r1").Routing.EnableOSPF().SetArea(0, "area1")
	plan, err := addressing.Allocate(model, addressing.DefaultOptions())
	require.NoError(t, err)

	config, err := Build(model, plan)

	require.Nil(t, config)
	require.ErrorContains(t, err, "invalid OSPF area ID 'area1'")

	model = newBGPModel(t)
	model.Device("r1").Routing.EnableOSPF().SetStub("0")
	plan, err = addressing.Allocate(model, addressing.DefaultOptions())
	require.NoError(t, err)

	config, err = Build(model, plan)

	require.Nil(t, config)
	require.ErrorContains(t, err, "backbone area cannot be a stub area")
}

// Test the conversion of the area IDs to the dotted form.
func TestNormalizeArea(t *testing.T) {
	for input, expected := range map[string]string{
		"0":         "0.0.0.0",
		"1":         "0.0.0.1",
		"256":       "0.0.1.0",
		"0.0.0.2":   "0.0.0.2",
		" 10.0.0.1": "10.0.0.1",
	} {
		area, err := NormalizeArea(input)
		require.NoError(t, err, input)
		require.Equal(t, expected, area, input)
	}

	_, err := NormalizeArea("2001:db8::1")
	require.Error(t, err)
	_, err = NormalizeArea("")
	require.Error(t, err)
}

// Test that RIP announces the listed interfaces or all of them.
func TestBuildRIP(t *testing.T) {
	model := newBGPModel(t)
	for _, id := range []string{"r1", "r2", "r3"} {
		model.Device(id).Routing.Disable(topology.ProtocolBGP)
	}
	model.Device("r1").Routing.EnableRIP()
	model.Device("r2").Routing.EnableRIP(1, 7)

	config := build(t, model)

	require.Equal(t, []netip.Prefix{netip.MustParsePrefix("10.0.0.0/30")}, config.Router("r1").RIP.Networks)
	require.Equal(t, []netip.Prefix{netip.MustParsePrefix("10.0.1.0/24")}, config.Router("r2").RIP.Networks)
	require.Equal(t, []topology.ErrorKind{topology.ErrorKindUnknownInterface}, errorKinds(t, config.Errors))
}

// Test that the static routes are validated against the connected
// subnets.
func TestBuildStatic(t *testing.T) {
	model := newBGPModel(t)
	routing := model.Device("r1").Routing
	routing.Disable(topology.ProtocolBGP)
	egress := 0
	missing := 4
	routing.AddStaticRoute(topology.StaticRoute{Destination: "10.0.1.0/24", NextHop: "10.0.0.2"})
	routing.AddStaticRoute(topology.StaticRoute{Destination: "0.0.0.0/0", NextHop: "10.0.0.2", Egress: &egress})
	routing.AddStaticRoute(topology.StaticRoute{Destination: "172.16.0.0/16", NextHop: "10.0.1.9", Egress: &egress})
	routing.AddStaticRoute(topology.StaticRoute{Destination: "172.17.0.0/16", NextHop: "10.9.0.1"})
	routing.AddStaticRoute(topology.StaticRoute{Destination: "172.18.0.0/16", NextHop: "10.0.0.2", Egress: &missing})

	config := build(t, model)

	r1 := config.Router("r1")
	require.False(t, r1.UsesFRR)
	require.False(t, r1.Daemons.Static)
	require.Equal(t, []StaticRoute{
		{Destination: netip.MustParsePrefix("10.0.1.0/24"), NextHop: netip.MustParseAddr("10.0.0.2"), Interface: 0},
		{Destination: netip.MustParsePrefix("0.0.0.0/0"), NextHop: netip.MustParseAddr("10.0.0.2"), Interface: 0},
	}, r1.Static)
	require.Equal(t, "eth0", r1.Static[0].InterfaceName())
	require.Equal(t, []topology.ErrorKind{
		topology.ErrorKindUnreachableStaticGateway,
		topology.ErrorKindUnreachableStaticGateway,
		topology.ErrorKindUnknownInterface,
	}, errorKinds(t, config.Errors))
	require.ErrorContains(t, config.Errors[0], "outside the subnet of eth0")
	require.ErrorContains(t, config.Errors[1], "is not in any connected subnet")
}

// Test that the static routes of a router running a dynamic protocol are
// configured in the routing suite.
func TestBuildStaticWithFRR(t *testing.T) {
	model := newBGPModel(t)
	model.Device("r1").Routing.AddStaticRoute(topology.StaticRoute{Destination: "10.0.1.0/24", NextHop: "10.0.0.2"})

	config := build(t, model)

	r1 := config.Router("r1")
	require.True(t, r1.UsesFRR)
	require.True(t, r1.Daemons.Static)
	require.Len(t, r1.Static, 1)
}

// Test that a malformed static route fails the build.
func TestBuildStaticInvalid(t *testing.T) {
	model := newBGPModel(t)
	model.Device("r1").Routing.AddStaticRoute(topology.StaticRoute{Destination: "10.0.1.0", NextHop: "10.0.0.2"})
	plan, err := addressing.Allocate(model, addressing.DefaultOptions())
	require.NoError(t, err)

	config, err := Build(model, plan)

	require.Nil(t, config)
	require.ErrorContains(t, err, "invalid routing configuration of router r1")
	require.ErrorContains(t, err, "invalid static route destination")
}

// Test that the build requires the topology and the plan.
func TestBuildMissingInput(t *testing.T) {
	config, err := Build(nil, nil)
	require.Nil(t, config)
	require.Error(t, err)
}

// Test that the hosts get no routing configuration.
func TestBuildRoutersOnly(t *testing.T) {
	config := build(t, newBGPModel(t))

	require.Nil(t, config.Router("h1"))
	ids := []string{}
	for _, router := range config.Routers {
		ids = append(ids, router.Router)
	}
	require.Equal(t, []string{"r1", "r2", "r3"}, ids)
}
