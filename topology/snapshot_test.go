package topology

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// Creates a model exercising every kind-specific configuration.
func newRichTestModel(t *testing.T) *Model {
	model := newTestModel(t)
	r1 := model.Device("r1")
	r1.Routing.EnableBGP(100).Policies = []Policy{
		{Neighbor: "r2", Kind: PolicyPrefixList, Direction: DirectionIn, Prefix: "10.0.9.0/24"},
	}
	ospf := r1.Routing.EnableOSPF()
	ospf.SetArea(0, "1")
	ospf.SetStub("1")
	ospf.SetCost(0, 20)
	egress := 1
	r2 := model.Device("r2")
	r2.Routing.EnableBGP(200)
	r2.Routing.EnableRIP(1)
	r2.Routing.AddStaticRoute(StaticRoute{Destination: "192.0.2.0/24", NextHop: "10.0.1.2", Egress: &egress})

	www, err := model.AddDevice(KindWebServer, "www")
	require.NoError(t, err)
	www.Web = &WebConfig{Content: "<p>hello</p>"}
	dns, err := model.AddDevice(KindDNSServer, "dns1")
	require.NoError(t, err)
	dns.DNS = &DNSConfig{Role: DNSRoleMaster, Domain: "lab.test", Scope: []string{"h1"}}
	dns.Image = "kathara/bind"
	_, err = model.Connect(Ref("www", 0), Ref("dns1", 0), Ref("r1", 1))
	require.NoError(t, err)

	model.Link("B").Subnet = "172.16.0.0/24"
	model.Link("C").Gateway = "r1"
	model.Device("h1").Gateway = "r2"
	model.Device("h1").Resolver = "dns1"
	return model
}

// Test that the import of an export reproduces the model.
func TestExportImport(t *testing.T) {
	model := newRichTestModel(t)

	snapshot := model.Export()
	imported, err := Import(snapshot)

	require.NoError(t, err)
	require.Empty(t, cmp.Diff(snapshot, imported.Export()))
	require.Equal(t, "172.16.0.0/24", imported.Link("B").Subnet)
	require.Equal(t, "r1", imported.Link("C").Gateway)
	require.Equal(t, "dns1", imported.Device("h1").Resolver)
	require.Equal(t, "kathara/bind", imported.Device("dns1").EffectiveImage())
}

// Test that the exported snapshot does not share state with the model.
func TestExportIsolated(t *testing.T) {
	model := newRichTestModel(t)

	snapshot := model.Export()
	snapshot.Devices[0].Routing.BGP.ASN = 65000
	snapshot.Devices[5].DNS.Scope[0] = "h2"

	require.EqualValues(t, 100, model.Device("r1").Routing.BGP.ASN)
	require.Equal(t, []string{"h1"}, model.Device("dns1").DNS.Scope)
}

// Test that the import creates the interfaces referenced by the links
// and those declared as unconnected.
func TestImportInterfaces(t *testing.T) {
	snapshot := &Snapshot{
		Devices: []DeviceSnapshot{
			{ID: "r1", Kind: KindRouter, Interfaces: 3},
			{ID: "h1", Kind: KindHost},
		},
		Links: []LinkSnapshot{
			{Members: []MemberSnapshot{{Device: "r1", Interface: 1}, {Device: "h1", Interface: 0}}},
		},
	}

	model, err := Import(snapshot)

	require.NoError(t, err)
	require.Len(t, model.Device("r1").Interfaces, 3)
	require.Equal(t, "A", model.Links()[0].Name)
	require.ErrorContains(t, model.ValidateStructure(), "interface r1/eth0 is not connected")
}

// Test that invalid snapshots are rejected by the validation.
func TestImportInvalidSnapshot(t *testing.T) {
	_, err := Import(nil)
	require.Error(t, err)

	_, err = Import(&Snapshot{Devices: []DeviceSnapshot{{ID: "s1", Kind: "switch"}}})
	require.ErrorContains(t, err, "invalid topology snapshot")

	_, err = Import(&Snapshot{
		Devices: []DeviceSnapshot{{ID: "r1", Kind: KindRouter}},
		Links:   []LinkSnapshot{{Members: []MemberSnapshot{{Device: "r1"}}}},
	})
	require.ErrorContains(t, err, "invalid topology snapshot")

	_, err = Import(&Snapshot{
		Devices: []DeviceSnapshot{{ID: "r1", Kind: KindRouter}, {ID: "r2", Kind: KindRouter}},
		Links: []LinkSnapshot{{
			Subnet:  "10.0.0.0",
			Members: []MemberSnapshot{{Device: "r1"}, {Device: "r2"}},
		}},
	})
	require.ErrorContains(t, err, "invalid topology snapshot")
}

// Test that the model errors are returned by the import.
func TestImportModelErrors(t *testing.T) {
	_, err := Import(&Snapshot{
		Devices: []DeviceSnapshot{{ID: "r1", Kind: KindRouter}, {ID: "r1", Kind: KindHost}},
	})
	require.ErrorAs(t, err, new(*DuplicateDeviceIDError))

	_, err = Import(&Snapshot{
		Devices: []DeviceSnapshot{{ID: "r1", Kind: KindRouter}},
		Links: []LinkSnapshot{{
			Members: []MemberSnapshot{{Device: "r1"}, {Device: "r2"}},
		}},
	})
	require.ErrorAs(t, err, new(*UnknownDeviceError))
}
