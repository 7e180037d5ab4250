package servicecfg

import (
	"fmt"
	"net/netip"
	"slices"
	"strings"

	"github.com/miekg/dns"

	"github.com/sciro24/Kathara-labGenerator/topology"
)

// Name of the root server in the root hints.
const RootServerName = "ROOT-SERVER."

// Service configuration of the web and DNS servers.
type Config struct {
	Web []*WebContent
	DNS []*DNSServer
	// Name servers of the end systems.
	Resolvers []*Resolver
	// Problems found while deriving the configuration.
	Errors []error
}

// Returns the DNS server configuration or nil.
func (c *Config) Server(id string) *DNSServer {
	for _, server := range c.DNS {
		if server.Device == id {
			return server
		}
	}
	return nil
}

// Returns the web content of the server or nil.
func (c *Config) WebContent(id string) *WebContent {
	for _, content := range c.Web {
		if content.Device == id {
			return content
		}
	}
	return nil
}

// Returns the name server of the end system or nil.
func (c *Config) Resolver(id string) *Resolver {
	for _, resolver := range c.Resolvers {
		if resolver.Device == id {
			return resolver
		}
	}
	return nil
}

// Name server used by an end system.
type Resolver struct {
	Device string
	// DNS server answering the queries.
	Server  string
	Address netip.Addr
}

// Content served by a web server.
type WebContent struct {
	Device string
	Body   string
}

// Returns the default page of the web server.
func DefaultWebContent(id string) string {
	return fmt.Sprintf("<html><head><title>%s</title></head><body><h1>Server %s</h1></body></html>", id, id)
}

// Configuration of a DNS server.
type DNSServer struct {
	Device string
	Role   topology.DNSRole
	// Address the server is reached at. Invalid when the server has no
	// address.
	Address netip.Addr
	// Address of the root server put in the root hints.
	RootHint netip.Addr
	// Zone of the master server.
	Zone *Zone
	// Resolvers the caching server forwards the queries to.
	Forwarders       []netip.Addr
	AllowRecursion   string
	DNSSECValidation bool
	// Root zone records of the root server.
	RootZone []dns.RR
	// Start of authority of the root zone served by the root server.
	RootSOA *dns.SOA
	TTL     uint32
}

// Checks if the server is authoritative for the root zone.
func (s *DNSServer) IsRoot() bool {
	return s.Role == topology.DNSRoleRoot
}

// Returns the root zone records: the root server and its address
// followed by the delegations of the master zones on the root server.
func (s *DNSServer) RootRecords() []dns.RR {
	records := []dns.RR{
		&dns.NS{Hdr: header(".", dns.TypeNS, s.TTL), Ns: RootServerName},
	}
	if s.RootHint.IsValid() {
		records = append(records, newA(RootServerName, s.TTL, s.RootHint))
	}
	return append(records, s.RootZone...)
}

// Master zone with the address records of the devices in its scope.
type Zone struct {
	// Fully qualified domain.
	Domain string
	// Fully qualified name of the name server.
	NS      string
	TTL     uint32
	Records []dns.RR
}

// Returns the domain without the trailing dot.
func (z *Zone) Name() string {
	return strings.TrimSuffix(z.Domain, ".")
}

// Returns the zone file name, e.g., db.test.example for example.test.
func (z *Zone) FileName() string {
	labels := dns.SplitDomainName(z.Domain)
	slices.Reverse(labels)
	return "db." + strings.Join(labels, ".")
}

// Returns the address records of the zone.
func (z *Zone) AddressRecords() []*dns.A {
	var records []*dns.A
	for _, rr := range z.Records {
		if a, ok := rr.(*dns.A); ok {
			records = append(records, a)
		}
	}
	return records
}

// Returns the device an owner name of the zone belongs to, e.g., h1 for
// h1.example.test. The second returned value is false for the names
// outside the zone or more than one label below its apex.
func (z *Zone) DeviceOf(owner string) (string, bool) {
	owner = dns.Fqdn(owner)
	if !dns.IsSubDomain(z.Domain, owner) || dns.CountLabel(owner) != dns.CountLabel(z.Domain)+1 {
		return "", false
	}
	return dns.SplitDomainName(owner)[0], true
}

// Creates the record header.
func header(name string, rrtype uint16, ttl uint32) dns.RR_Header {
	return dns.RR_Header{Name: name, Rrtype: rrtype, Class: dns.ClassINET, Ttl: ttl}
}

// Creates the address record.
func newA(name string, ttl uint32, address netip.Addr) *dns.A {
	return &dns.A{Hdr: header(name, dns.TypeA, ttl), A: address.AsSlice()}
}
