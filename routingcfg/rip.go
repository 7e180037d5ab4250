package routingcfg

import (
	"slices"

	"github.com/sciro24/Kathara-labGenerator/topology"
)

// Derives the RIP process. The subnets of the listed interfaces are
// announced, or the subnets of all allocated interfaces when no
// interfaces are listed.
func (b *builder) buildRIP(router *topology.Device, config *RouterConfig) {
	var listed []int
	if router.Routing.RIP != nil {
		listed = router.Routing.RIP.Interfaces
	}
	for _, index := range listed {
		if router.Interface(index) == nil {
			b.record(NewUnknownInterfaceError(router.ID, topology.ProtocolRIP, index))
		}
	}

	process := &RIPProcess{}
	for _, iface := range config.Interfaces {
		if len(listed) > 0 && !slices.Contains(listed, iface.Index) {
			continue
		}
		network := iface.Address.Masked()
		if !slices.Contains(process.Networks, network) {
			process.Networks = append(process.Networks, network)
		}
	}
	config.RIP = process
}
