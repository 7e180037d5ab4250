package render

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/miekg/dns"

	"github.com/sciro24/Kathara-labGenerator/servicecfg"
)

// Directory of the BIND files in the DNS server container.
const bindDirectory = "/etc/bind"

// Renders the named.conf.options. The caching servers get the
// forwarders and the recursion clients.
func renderNamedOptions(server *servicecfg.DNSServer) string {
	options := newStatement("options")
	block := options.block()
	block.add(newStatement("directory").quoted("/var/cache/bind"))
	if len(server.Forwarders) > 0 {
		statement := newStatement("forwarders")
		forwarders := statement.block()
		for _, forwarder := range server.Forwarders {
			forwarders.add(newStatement(forwarder.String()))
		}
		block.add(statement)
	}
	if server.AllowRecursion != "" {
		statement := newStatement("allow-recursion")
		clients := statement.block()
		for _, client := range splitAddressList(server.AllowRecursion) {
			clients.add(newStatement(client))
		}
		block.add(statement)
	}
	validation := "no"
	if server.DNSSECValidation {
		validation = "yes"
	}
	block.add(newStatementf("dnssec-validation %s", validation))

	file := &confFile{}
	file.add(options)
	return file.String()
}

// Splits the address match list, e.g., "10.0.0.0/8; localhost", into
// its elements.
func splitAddressList(list string) []string {
	return strings.FieldsFunc(list, func(r rune) bool {
		return r == ';' || r == ',' || unicode.IsSpace(r)
	})
}

// Renders the named.conf. Every server serves the root zone, as the
// master on the root server and as the hints elsewhere. The master
// servers serve their zone.
func renderNamedConf(server *servicecfg.DNSServer) string {
	file := &confFile{}
	file.add(newStatement("include").quoted(bindDirectory + "/named.conf.options"))

	rootType := "hint"
	if server.IsRoot() {
		rootType = "master"
	}
	file.add(zoneStatement(".", rootType, "db.root"))

	if server.Zone != nil {
		file.add(zoneStatement(server.Zone.Name(), "master", server.Zone.FileName()))
	}
	return file.String()
}

// Creates the zone statement.
func zoneStatement(name, zoneType, fileName string) *confStatement {
	statement := newStatement("zone").quoted(name)
	statement.block().
		add(newStatement("type", zoneType)).
		add(newStatement("file").quoted(bindDirectory + "/" + fileName))
	return statement
}

// Renders the db.root: the root hints, preceded by the start of
// authority and followed by the delegations on the root server.
func renderRootZone(server *servicecfg.DNSServer) string {
	var records []dns.RR
	if server.RootSOA != nil {
		records = append(records, server.RootSOA)
	}
	records = append(records, server.RootRecords()...)
	return zoneText(server.TTL, records)
}

// Renders the zone file of the master zone.
func renderZone(zone *servicecfg.Zone) string {
	return zoneText(zone.TTL, zone.Records)
}

// Returns the zone file text with the records in the presentation
// format.
func zoneText(ttl uint32, records []dns.RR) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "$TTL %d\n", ttl)
	for _, rr := range records {
		builder.WriteString(rr.String())
		builder.WriteString("\n")
	}
	return builder.String()
}
