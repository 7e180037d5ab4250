package servicecfg

import (
	"net/netip"
	"slices"
	"strings"

	"github.com/miekg/dns"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sciro24/Kathara-labGenerator/addressing"
	"github.com/sciro24/Kathara-labGenerator/topology"
)

// Derives the web content and the DNS configuration from the addressed
// topology. The records are built from the plan on every call. An
// error is returned for a master server with a malformed domain.
func Build(model *topology.Model, plan *addressing.Plan, options Options) (*Config, error) {
	if model == nil || plan == nil {
		return nil, errors.New("topology and address plan are required")
	}
	b := &builder{model: model, plan: plan, options: options.withDefaults(), config: &Config{}}

	for _, device := range model.Devices() {
		if device.Kind != topology.KindWebServer {
			continue
		}
		body := DefaultWebContent(device.ID)
		if device.Web != nil && device.Web.Content != "" {
			body = device.Web.Content
		}
		b.config.Web = append(b.config.Web, &WebContent{Device: device.ID, Body: body})
	}

	rootHint, hasRoot := b.rootAddress()
	for _, device := range model.Devices() {
		if device.Kind != topology.KindDNSServer || device.DNS == nil {
			continue
		}
		server := &DNSServer{Device: device.ID, Role: device.DNS.Role, TTL: b.options.TTL}
		server.Address, _ = plan.PrimaryAddress(device)
		server.RootHint = server.Address
		if hasRoot {
			server.RootHint = rootHint
		}

		switch device.DNS.Role {
		case topology.DNSRoleMaster:
			zone, err := b.buildZone(device)
			if err != nil {
				return nil, errors.WithMessagef(err, "invalid zone of DNS server %s", device.ID)
			}
			server.Zone = zone
		case topology.DNSRoleCaching:
			server.Forwarders = b.forwarders(device)
			server.AllowRecursion = device.DNS.EffectiveAllowRecursion()
			server.DNSSECValidation = device.DNS.DNSSECValidation
		case topology.DNSRoleRoot:
			records, err := b.delegations()
			if err != nil {
				return nil, err
			}
			server.RootZone = records
			server.RootSOA = b.soa(".", RootServerName)
		default:
			return nil, errors.Errorf("unknown role '%s' of DNS server %s", device.DNS.Role, device.ID)
		}
		b.config.DNS = append(b.config.DNS, server)
	}

	for _, device := range model.Devices() {
		if !device.IsEndSystem() {
			continue
		}
		if resolver := b.resolver(device); resolver != nil {
			b.config.Resolvers = append(b.config.Resolvers, resolver)
		}
	}

	log.WithFields(log.Fields{
		"web":       len(b.config.Web),
		"dns":       len(b.config.DNS),
		"resolvers": len(b.config.Resolvers),
		"errors":    len(b.config.Errors),
	}).Debug("Built service configuration")
	return b.config, nil
}

// Holds the state of a single build.
type builder struct {
	model   *topology.Model
	plan    *addressing.Plan
	options Options
	config  *Config
}

// Returns the address of the first root server.
func (b *builder) rootAddress() (netip.Addr, bool) {
	for _, device := range b.model.Devices() {
		if device.Kind == topology.KindDNSServer && device.DNS != nil && device.DNS.Role == topology.DNSRoleRoot {
			return b.plan.PrimaryAddress(device)
		}
	}
	return netip.Addr{}, false
}

// Returns the canonical, fully qualified domain.
func normalizeDomain(domain string) (string, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(domain), ".")
	if trimmed == "" {
		return "", errors.New("the domain is empty")
	}
	if _, ok := dns.IsDomainName(trimmed); !ok {
		return "", errors.Errorf("invalid domain '%s'", domain)
	}
	return dns.CanonicalName(trimmed), nil
}

// Builds the zone of the master server. The zone holds an address record
// per device in scope having an address, in the device order. The name
// server address is glued when the master is out of scope.
func (b *builder) buildZone(master *topology.Device) (*Zone, error) {
	domain, err := normalizeDomain(master.DNS.Domain)
	if err != nil {
		return nil, err
	}
	ttl := b.options.TTL
	zone := &Zone{Domain: domain, NS: master.ID + "." + domain, TTL: ttl}
	zone.Records = append(zone.Records,
		b.soa(domain, zone.NS),
		&dns.NS{Hdr: header(domain, dns.TypeNS, ttl), Ns: zone.NS},
	)

	for _, id := range master.DNS.Scope {
		if b.model.Device(id) == nil {
			b.record(NewUnknownScopeDeviceError(master.ID, id))
		}
	}

	if !master.DNS.InScope(master.ID) {
		if address, ok := b.plan.PrimaryAddress(master); ok {
			zone.Records = append(zone.Records, newA(zone.NS, ttl, address))
		}
	}
	for _, device := range b.model.Devices() {
		if !master.DNS.InScope(device.ID) {
			continue
		}
		address, ok := b.plan.PrimaryAddress(device)
		if !ok {
			continue
		}
		zone.Records = append(zone.Records, newA(device.ID+"."+domain, ttl, address))
	}

	log.WithFields(log.Fields{
		"server":  master.ID,
		"domain":  domain,
		"records": len(zone.Records),
	}).Debug("Built master zone")
	return zone, nil
}

// Creates the start of authority of the zone served by the name server.
func (b *builder) soa(domain, ns string) *dns.SOA {
	return &dns.SOA{
		Hdr:     header(domain, dns.TypeSOA, b.options.TTL),
		Ns:      ns,
		Mbox:    "root." + ns,
		Serial:  b.options.Serial,
		Refresh: b.options.Refresh,
		Retry:   b.options.Retry,
		Expire:  b.options.Expire,
		Minttl:  b.options.NegativeTTL,
	}
}

// Returns the addresses of the master servers sharing a link with the
// caching server, in the order of the links and members.
func (b *builder) forwarders(server *topology.Device) []netip.Addr {
	var forwarders []netip.Addr
	for _, iface := range server.Interfaces {
		if iface.Link == nil {
			continue
		}
		for _, member := range iface.Link.Members {
			peer := member.Device
			if peer == server || peer.Kind != topology.KindDNSServer || peer.DNS == nil || peer.DNS.Role != topology.DNSRoleMaster {
				continue
			}
			address, ok := b.plan.Address(member.Ref())
			if !ok || slices.Contains(forwarders, address.Addr()) {
				continue
			}
			forwarders = append(forwarders, address.Addr())
		}
	}
	return forwarders
}

// Returns the delegations of the master zones served by the root server.
func (b *builder) delegations() ([]dns.RR, error) {
	var records []dns.RR
	ttl := b.options.TTL
	for _, device := range b.model.Devices() {
		if device.Kind != topology.KindDNSServer || device.DNS == nil || device.DNS.Role != topology.DNSRoleMaster {
			continue
		}
		domain, err := normalizeDomain(device.DNS.Domain)
		if err != nil {
			return nil, errors.WithMessagef(err, "invalid zone of DNS server %s", device.ID)
		}
		address, ok := b.plan.PrimaryAddress(device)
		if !ok {
			continue
		}
		ns := device.ID + "." + domain
		records = append(records,
			&dns.NS{Hdr: header(domain, dns.TypeNS, ttl), Ns: ns},
			newA(ns, ttl, address),
		)
	}
	return records, nil
}

// Returns the name server of the end system. The named resolver must be
// a DNS server. Otherwise a caching server sharing a link with the
// device is preferred over a master server sharing a link, followed by
// the first caching and the first master server of the topology. It
// returns nil when the resolver is disabled or no server is found.
func (b *builder) resolver(device *topology.Device) *Resolver {
	switch device.Resolver {
	case topology.ResolverNone:
		return nil
	case "":
	default:
		server := b.model.Device(device.Resolver)
		if server == nil || server.Kind != topology.KindDNSServer || server.DNS == nil {
			b.record(NewUnknownResolverError(device.ID, device.Resolver))
			return nil
		}
		address, ok := b.nearestAddress(device, server)
		if !ok {
			return nil
		}
		return &Resolver{Device: device.ID, Server: server.ID, Address: address}
	}

	for _, role := range []topology.DNSRole{topology.DNSRoleCaching, topology.DNSRoleMaster} {
		for _, iface := range device.Interfaces {
			if iface.Link == nil {
				continue
			}
			for _, member := range iface.Link.Members {
				if !isServer(member.Device, role) {
					continue
				}
				if address, ok := b.plan.Address(member.Ref()); ok {
					return &Resolver{Device: device.ID, Server: member.Device.ID, Address: address.Addr()}
				}
			}
		}
	}
	for _, role := range []topology.DNSRole{topology.DNSRoleCaching, topology.DNSRoleMaster} {
		for _, server := range b.model.Devices() {
			if !isServer(server, role) {
				continue
			}
			if address, ok := b.plan.PrimaryAddress(server); ok {
				return &Resolver{Device: device.ID, Server: server.ID, Address: address}
			}
		}
	}
	return nil
}

// Returns the address of the server on a link shared with the device,
// or its primary address when they share no link.
func (b *builder) nearestAddress(device, server *topology.Device) (netip.Addr, bool) {
	for _, iface := range device.Interfaces {
		if iface.Link == nil {
			continue
		}
		if member := iface.Link.Member(server.ID); member != nil {
			if address, ok := b.plan.Address(member.Ref()); ok {
				return address.Addr(), true
			}
		}
	}
	return b.plan.PrimaryAddress(server)
}

// Checks if the device is a DNS server with the role.
func isServer(device *topology.Device, role topology.DNSRole) bool {
	return device.Kind == topology.KindDNSServer && device.DNS != nil && device.DNS.Role == role
}

// Records the derivation problem.
func (b *builder) record(err error) {
	log.WithError(err).Debug("Service configuration problem")
	b.config.Errors = append(b.config.Errors, err)
}
