package routingcfg

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sciro24/Kathara-labGenerator/topology"
)

// OSPF backbone area.
const BackboneArea = "0.0.0.0"

// Converts the area ID to the dotted form. The IDs given as integers,
// e.g., 1, are converted to the dotted form, e.g., 0.0.0.1.
func NormalizeArea(area string) (string, error) {
	area = strings.TrimSpace(area)
	if number, err := strconv.ParseUint(area, 10, 32); err == nil {
		return netip.AddrFrom4([4]byte{
			byte(number >> 24), byte(number >> 16), byte(number >> 8), byte(number),
		}).String(), nil
	}
	address, err := netip.ParseAddr(area)
	if err != nil || !address.Is4() {
		return "", errors.Errorf("invalid OSPF area ID '%s'", area)
	}
	return address.String(), nil
}

// Derives the OSPF process. Every allocated interface takes part in its
// area, the backbone by default, and the loopback is announced in the
// backbone. The areas and costs naming missing interfaces are recorded.
func (b *builder) buildOSPF(router *topology.Device, config *RouterConfig) error {
	settings := router.Routing.OSPF
	if settings == nil {
		settings = &topology.OSPFConfig{}
	}

	areas := make(map[int]string)
	for _, assignment := range settings.Areas {
		area, err := NormalizeArea(assignment.Area)
		if err != nil {
			return err
		}
		if router.Interface(assignment.Interface) == nil {
			b.record(NewUnknownInterfaceError(router.ID, topology.ProtocolOSPF, assignment.Interface))
			continue
		}
		areas[assignment.Interface] = area
	}

	process := &OSPFProcess{}
	for _, iface := range config.Interfaces {
		area, ok := areas[iface.Index]
		if !ok {
			area = BackboneArea
		}
		process.Networks = append(process.Networks, OSPFNetwork{Prefix: iface.Address.Masked(), Area: area})
	}
	if config.RouterID.IsValid() {
		process.Networks = append(process.Networks, OSPFNetwork{
			Prefix: netip.PrefixFrom(config.RouterID, 32),
			Area:   BackboneArea,
		})
	}

	for _, stub := range settings.StubAreas {
		area, err := NormalizeArea(stub)
		if err != nil {
			return err
		}
		if area == BackboneArea {
			return errors.New("the OSPF backbone area cannot be a stub area")
		}
		process.StubAreas = append(process.StubAreas, area)
	}

	for _, cost := range settings.Costs {
		found := false
		for i := range config.Interfaces {
			if config.Interfaces[i].Index == cost.Interface {
				config.Interfaces[i].OSPFCost = cost.Cost
				found = true
			}
		}
		if !found && router.Interface(cost.Interface) == nil {
			b.record(NewUnknownInterfaceError(router.ID, topology.ProtocolOSPF, cost.Interface))
		}
	}

	config.OSPF = process
	return nil
}
