package review

import (
	"fmt"
	"net/netip"

	"go4.org/netipx"

	"github.com/sciro24/Kathara-labGenerator/addressing"
	"github.com/sciro24/Kathara-labGenerator/routingcfg"
	"github.com/sciro24/Kathara-labGenerator/servicecfg"
	"github.com/sciro24/Kathara-labGenerator/topology"
)

// The checker verifying that every interface belongs to exactly one
// link and every link has at least two members.
func structure(input *Input) ([]error, error) {
	return input.Model.StructureErrors(), nil
}

// The checker turning the problems recorded while deriving the
// configuration into issues.
func derivationErrors(input *Input) ([]error, error) {
	var errs []error
	if input.Plan != nil {
		errs = append(errs, input.Plan.Errors...)
	}
	if input.Routing != nil {
		errs = append(errs, input.Routing.Errors...)
	}
	if input.Services != nil {
		errs = append(errs, input.Services.Errors...)
	}
	return errs, nil
}

// The checker verifying that the link subnets are pairwise disjoint and
// that no loopback falls into a link subnet.
func subnetDisjointness(input *Input) ([]error, error) {
	if input.Plan == nil {
		return nil, nil
	}
	var errs []error
	var builder netipx.IPSetBuilder
	var checked []*addressing.LinkPlan
	for _, linkPlan := range input.Plan.Links() {
		issued, err := builder.IPSet()
		if err != nil {
			return nil, err
		}
		if issued.OverlapsPrefix(linkPlan.Subnet) {
			for _, other := range checked {
				if other.Subnet.Overlaps(linkPlan.Subnet) {
					errs = append(errs, addressing.NewAddressConflictError(linkPlan.Name, linkPlan.Subnet.String(),
						fmt.Sprintf("the subnet overlaps the subnet %s of link %s", other.Subnet, other.Name)))
				}
			}
		}
		builder.AddPrefix(linkPlan.Subnet)
		checked = append(checked, linkPlan)
	}

	issued, err := builder.IPSet()
	if err != nil {
		return nil, err
	}
	for _, router := range input.Model.Routers() {
		loopback, ok := input.Plan.Loopback(router.ID)
		if !ok || !issued.Contains(loopback) {
			continue
		}
		errs = append(errs, addressing.NewAddressConflictError("", netip.PrefixFrom(loopback, 32).String(),
			fmt.Sprintf("the loopback of router %s falls into a link subnet", router.ID)))
	}
	return errs, nil
}

// The checker verifying that every interface address lies within the
// subnet of its link, is unique and is not the network or broadcast
// address. The gateway must be the address of the designated member.
func interfaceAddresses(input *Input) ([]error, error) {
	if input.Plan == nil {
		return nil, nil
	}
	var errs []error
	for _, link := range input.Model.Links() {
		linkPlan := input.Plan.Link(link.Name)
		if linkPlan == nil {
			continue
		}
		subnet := linkPlan.Subnet
		conflict := func(format string, args ...any) {
			errs = append(errs, addressing.NewAddressConflictError(link.Name, subnet.String(), fmt.Sprintf(format, args...)))
		}

		seen := make(map[netip.Addr]string)
		for _, member := range link.Members {
			ref := member.Ref()
			address, ok := input.Plan.Address(ref)
			if !ok {
				conflict("interface %s has no address", ref)
				continue
			}
			switch {
			case !subnet.Contains(address.Addr()) || address.Bits() != subnet.Bits():
				conflict("address %s of interface %s is outside the subnet", address, ref)
			case isReservedAddress(subnet, address.Addr()):
				conflict("interface %s has the reserved address %s", ref, address.Addr())
			}
			if other, exists := seen[address.Addr()]; exists {
				conflict("interfaces %s and %s share the address %s", other, ref, address.Addr())
			}
			seen[address.Addr()] = ref.String()
		}

		if designated := link.DesignatedGateway(); designated != nil && linkPlan.Gateway.IsValid() {
			address, ok := input.Plan.Address(designated.Ref())
			if ok && address.Addr() != linkPlan.Gateway {
				conflict("gateway %s is not the address of the designated gateway %s", linkPlan.Gateway, designated.Ref())
			}
		}
	}
	return errs, nil
}

// Checks if the address is the network or the broadcast address of a
// subnet having them.
func isReservedAddress(subnet netip.Prefix, address netip.Addr) bool {
	if subnet.Bits() >= address.BitLen()-1 {
		return false
	}
	return address == subnet.Masked().Addr() || address == netipx.PrefixLastIP(subnet)
}

// The checker verifying that every BGP session has a reciprocal session
// on the peer router.
func bgpSymmetry(input *Input) ([]error, error) {
	if input.Routing == nil {
		return nil, nil
	}
	return routingcfg.CheckSymmetry(input.Routing), nil
}

// The checker verifying that the OSPF and RIP networks are attached to
// the router interfaces and the static routes leave through existing
// interfaces towards reachable next hops.
func protocolInterfaces(input *Input) ([]error, error) {
	if input.Routing == nil {
		return nil, nil
	}
	var errs []error
	for _, router := range input.Routing.Routers {
		device := input.Model.Device(router.Router)
		if device == nil {
			continue
		}
		attached := make(map[netip.Prefix]bool)
		subnets := make(map[int]netip.Prefix)
		for _, iface := range router.Interfaces {
			if device.Interface(iface.Index) == nil {
				errs = append(errs, routingcfg.NewUnknownInterfaceError(router.Router, "interface", iface.Index))
				continue
			}
			attached[iface.Address.Masked()] = true
			subnets[iface.Index] = iface.Address.Masked()
		}
		if router.RouterID.IsValid() {
			attached[netip.PrefixFrom(router.RouterID, 32)] = true
		}

		if router.OSPF != nil {
			for _, network := range router.OSPF.Networks {
				if !attached[network.Prefix] {
					errs = append(errs, NewUnattachedNetworkError(router.Router, topology.ProtocolOSPF, network.Prefix))
				}
			}
		}
		if router.RIP != nil {
			for _, network := range router.RIP.Networks {
				if !attached[network] {
					errs = append(errs, NewUnattachedNetworkError(router.Router, topology.ProtocolRIP, network))
				}
			}
		}
		for _, route := range router.Static {
			subnet, ok := subnets[route.Interface]
			if !ok {
				errs = append(errs, routingcfg.NewUnknownInterfaceError(router.Router, topology.ProtocolStatic, route.Interface))
				continue
			}
			if !subnet.Contains(route.NextHop) {
				errs = append(errs, routingcfg.NewUnreachableStaticGatewayError(router.Router, route.Destination.String(),
					route.NextHop.String(), route.InterfaceName()))
			}
		}
	}
	return errs, nil
}

// The checker verifying that every address record of a master zone
// matches the current allocation and every addressed device in the zone
// scope has a record.
func zoneRecords(input *Input) ([]error, error) {
	if input.Services == nil || input.Plan == nil {
		return nil, nil
	}
	var errs []error
	for _, server := range input.Services.DNS {
		if server.Zone == nil {
			continue
		}
		master := input.Model.Device(server.Device)
		recorded := make(map[string]bool)
		for _, record := range server.Zone.AddressRecords() {
			name := record.Hdr.Name
			address, _ := netipx.FromStdIP(record.A)
			id, ok := server.Zone.DeviceOf(name)
			device := input.Model.Device(id)
			if !ok || device == nil {
				errs = append(errs, servicecfg.NewZoneRecordMismatchError(server.Device, name, address.String(), ""))
				continue
			}
			recorded[id] = true
			allocated, ok := input.Plan.PrimaryAddress(device)
			if !ok {
				errs = append(errs, servicecfg.NewZoneRecordMismatchError(server.Device, name, address.String(), ""))
				continue
			}
			if allocated != address {
				errs = append(errs, servicecfg.NewZoneRecordMismatchError(server.Device, name, address.String(), allocated.String()))
			}
		}

		if master == nil || master.DNS == nil {
			continue
		}
		for _, device := range input.Model.Devices() {
			if recorded[device.ID] || !master.DNS.InScope(device.ID) {
				continue
			}
			if allocated, ok := input.Plan.PrimaryAddress(device); ok {
				errs = append(errs, servicecfg.NewZoneRecordMismatchError(server.Device,
					device.ID+"."+server.Zone.Domain, "", allocated.String()))
			}
		}
	}
	return errs, nil
}
