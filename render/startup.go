package render

import (
	"fmt"
	"strings"

	"github.com/sciro24/Kathara-labGenerator/topology"
)

// Services started by the startup scripts.
const (
	serviceFRR    = "frr"
	serviceApache = "apache2"
	serviceBIND   = "named"
)

// Renders the startup script of the device. It assigns the interface
// addresses and installs the routes known before any routing daemon
// runs: the loopback and the static routes of a router without FRR, or
// the default route of an end system. The script ends with starting the
// service of the device.
func (r *renderer) startup(device *topology.Device) string {
	var lines []string
	for _, iface := range device.Interfaces {
		address, ok := r.input.Plan.Address(iface.Ref())
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("ip address add %s dev %s", address, iface.Name()))
	}

	service := ""
	switch device.Kind {
	case topology.KindRouter:
		if loopback, ok := r.input.Plan.Loopback(device.ID); ok {
			lines = append(lines, fmt.Sprintf("ip address add %s/32 dev lo", loopback))
		}
		router := r.input.Routing.Router(device.ID)
		if router != nil && !router.UsesFRR {
			for _, route := range router.Static {
				lines = append(lines, fmt.Sprintf("ip route add %s via %s dev %s",
					route.Destination, route.NextHop, route.InterfaceName()))
			}
			break
		}
		// The routing suite is started after an empty line.
		lines = append(lines, "")
		service = serviceFRR
	default:
		if route, ok := r.input.Plan.DefaultRoute(device.ID); ok {
			lines = append(lines, fmt.Sprintf("ip route add default via %s dev %s",
				route.Via, topology.InterfaceName(route.Interface)))
		}
		switch device.Kind {
		case topology.KindWebServer:
			service = serviceApache
		case topology.KindDNSServer:
			service = serviceBIND
		}
	}
	if service != "" {
		lines = append(lines, "systemctl start "+service)
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
