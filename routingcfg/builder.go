package routingcfg

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sciro24/Kathara-labGenerator/addressing"
	"github.com/sciro24/Kathara-labGenerator/topology"
)

// Derives the configuration of every router from the addressed topology.
// The routers are visited in the insertion order. An error is returned
// for unusable input, e.g., a malformed OSPF area or policy. The
// inconsistencies between the routing settings and the topology are
// recorded in the configuration errors.
func Build(model *topology.Model, plan *addressing.Plan) (*Config, error) {
	if model == nil || plan == nil {
		return nil, errors.New("topology and address plan are required")
	}
	b := &builder{model: model, plan: plan, config: &Config{}}
	for _, router := range model.Routers() {
		routerConfig, err := b.buildRouter(router)
		if err != nil {
			return nil, errors.WithMessagef(err, "invalid routing configuration of router %s", router.ID)
		}
		b.config.Routers = append(b.config.Routers, routerConfig)
	}

	// The policies are attached once all neighbor sets are known.
	for _, router := range model.Routers() {
		if !router.Routing.Enabled(topology.ProtocolBGP) || router.Routing.BGP == nil {
			continue
		}
		routerConfig := b.config.Router(router.ID)
		for _, policy := range router.Routing.BGP.Policies {
			err := routerConfig.Refine(policy)
			var unknownNeighbor *UnknownNeighborError
			switch {
			case errors.As(err, &unknownNeighbor):
				b.record(err)
			case err != nil:
				return nil, errors.WithMessagef(err, "invalid BGP policy of router %s", router.ID)
			}
		}
	}

	log.WithFields(log.Fields{
		"routers": len(b.config.Routers),
		"errors":  len(b.config.Errors),
	}).Debug("Built routing configuration")
	return b.config, nil
}

// Holds the state of a single build.
type builder struct {
	model  *topology.Model
	plan   *addressing.Plan
	config *Config
}

// Records the derivation problem.
func (b *builder) record(err error) {
	log.WithError(err).Debug("Routing configuration problem")
	b.config.Errors = append(b.config.Errors, err)
}

// Derives the configuration of a single router.
func (b *builder) buildRouter(router *topology.Device) (*RouterConfig, error) {
	routing := router.Routing
	if routing == nil {
		routing = &topology.RoutingConfig{}
	}
	config := &RouterConfig{
		Router:  router.ID,
		UsesFRR: !routing.StaticOnly(),
		Daemons: Daemons{
			Zebra: true,
			BGP:   routing.Enabled(topology.ProtocolBGP),
			OSPF:  routing.Enabled(topology.ProtocolOSPF),
			RIP:   routing.Enabled(topology.ProtocolRIP),
		},
	}
	config.RouterID, _ = b.plan.Loopback(router.ID)
	for _, iface := range router.Interfaces {
		address, ok := b.plan.Address(iface.Ref())
		if !ok {
			continue
		}
		config.Interfaces = append(config.Interfaces, InterfaceConfig{Index: iface.Index, Address: address})
	}

	if config.Daemons.BGP {
		b.buildBGP(router, config)
	}
	if config.Daemons.OSPF {
		if err := b.buildOSPF(router, config); err != nil {
			return nil, err
		}
	}
	if config.Daemons.RIP {
		b.buildRIP(router, config)
	}
	if routing.Enabled(topology.ProtocolStatic) {
		if err := b.buildStatic(router, config); err != nil {
			return nil, err
		}
		config.Daemons.Static = config.UsesFRR && len(config.Static) > 0
	}

	log.WithFields(log.Fields{
		"router":    router.ID,
		"router-id": config.RouterID,
		"frr":       config.UsesFRR,
	}).Debug("Built router configuration")
	return config, nil
}
