package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sciro24/Kathara-labGenerator/topology"
)

// Creates the reference lab used across the tests. With the default
// allocation options it is addressed as follows:
//
//	A  10.0.0.0/30   r1/eth0 .1, r2/eth0 .2
//	B  10.0.1.0/24   r1/eth1 .1, h1 .2, www .3, dns1 .4, dns2 .5
//	C  10.0.2.0/30   r2/eth1 .1, root .2
//
// The routers get the loopbacks 192.168.255.1 and 192.168.255.2. The
// r1 router runs BGP in AS 100 and OSPF. The r2 router runs BGP in
// AS 200 and OSPF with eth1 in the stub area 0.0.0.1. The dns1 server
// is the master of example.test, dns2 is a caching server forwarding to
// dns1 and root serves the root zone.
func NewLabModel(t testing.TB) *topology.Model {
	t.Helper()
	model := topology.New()

	add := func(kind topology.DeviceKind, id string) *topology.Device {
		device, err := model.AddDevice(kind, id)
		require.NoError(t, err)
		return device
	}
	r1 := add(topology.KindRouter, "r1")
	r2 := add(topology.KindRouter, "r2")
	add(topology.KindHost, "h1")
	add(topology.KindWebServer, "www")
	dns1 := add(topology.KindDNSServer, "dns1")
	add(topology.KindDNSServer, "dns2")
	root := add(topology.KindDNSServer, "root")

	connect := func(refs ...topology.InterfaceRef) {
		_, err := model.Connect(refs...)
		require.NoError(t, err)
	}
	connect(topology.Ref("r1", 0), topology.Ref("r2", 0))
	connect(topology.Ref("r1", 1), topology.Ref("h1", 0), topology.Ref("www", 0),
		topology.Ref("dns1", 0), topology.Ref("dns2", 0))
	connect(topology.Ref("r2", 1), topology.Ref("root", 0))

	bgp := r1.Routing.EnableBGP(100)
	bgp.Policies = append(bgp.Policies, topology.Policy{
		Neighbor: "r2", Kind: topology.PolicyLocalPreference, Value: 200,
	})
	r1.Routing.EnableOSPF()

	r2.Routing.EnableBGP(200)
	ospf := r2.Routing.EnableOSPF()
	ospf.SetArea(1, "1")
	ospf.SetStub("1")
	ospf.SetCost(0, 10)

	dns1.DNS.Role = topology.DNSRoleMaster
	dns1.DNS.Domain = "example.test"
	root.DNS.Role = topology.DNSRoleRoot

	return model
}

// Creates a lab of two routers in AS 100 and AS 200 connected
// point-to-point, both running BGP.
func NewTwoRouterModel(t testing.TB) *topology.Model {
	t.Helper()
	model := topology.New()
	for i, id := range []string{"r1", "r2"} {
		router, err := model.AddDevice(topology.KindRouter, id)
		require.NoError(t, err)
		router.Routing.EnableBGP(uint32(100 * (i + 1)))
	}
	_, err := model.Connect(topology.Ref("r1", 0), topology.Ref("r2", 0))
	require.NoError(t, err)
	return model
}
