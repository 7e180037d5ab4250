package servicecfg

import (
	"fmt"

	"github.com/sciro24/Kathara-labGenerator/topology"
)

// An error returned when an address record of a master zone does not
// match the address allocated to the device it names.
type ZoneRecordMismatchError struct {
	server    string
	record    string
	recorded  string
	allocated string
}

// Create new instance of the ZoneRecordMismatchError. The recorded
// address is empty when an addressed device in the zone scope has no
// record. The allocated address is empty when the record names no
// addressed device.
func NewZoneRecordMismatchError(server, record, recorded, allocated string) error {
	return &ZoneRecordMismatchError{server: server, record: record, recorded: recorded, allocated: allocated}
}

// Returns error string.
func (e ZoneRecordMismatchError) Error() string {
	if e.recorded == "" {
		return fmt.Sprintf("zone of DNS server %s has no record %s for address %s",
			e.server, e.record, e.allocated)
	}
	if e.allocated == "" {
		return fmt.Sprintf("zone of DNS server %s has record %s with address %s naming no addressed device",
			e.server, e.record, e.recorded)
	}
	return fmt.Sprintf("zone of DNS server %s has record %s with address %s instead of %s",
		e.server, e.record, e.recorded, e.allocated)
}

// Returns the error kind.
func (e ZoneRecordMismatchError) Kind() topology.ErrorKind {
	return topology.ErrorKindZoneRecordMismatch
}

// Returns the server and the record name.
func (e ZoneRecordMismatchError) Refs() []string {
	return []string{e.server, e.record}
}

// An error recorded when the scope of a master zone names a device that
// is not in the topology.
type UnknownScopeDeviceError struct {
	server string
	device string
}

// Create new instance of the UnknownScopeDeviceError.
func NewUnknownScopeDeviceError(server, device string) error {
	return &UnknownScopeDeviceError{server: server, device: device}
}

// Returns error string.
func (e UnknownScopeDeviceError) Error() string {
	return fmt.Sprintf("zone scope of DNS server %s names non-existent device %s", e.server, e.device)
}

// Returns the error kind.
func (e UnknownScopeDeviceError) Kind() topology.ErrorKind {
	return topology.ErrorKindZoneRecordMismatch
}

// Returns the server and the device.
func (e UnknownScopeDeviceError) Refs() []string {
	return []string{e.server, e.device}
}

// An error recorded when an end system names a resolver that is not a
// DNS server of the topology.
type UnknownResolverError struct {
	device   string
	resolver string
}

// Create new instance of the UnknownResolverError.
func NewUnknownResolverError(device, resolver string) error {
	return &UnknownResolverError{device: device, resolver: resolver}
}

// Returns error string.
func (e UnknownResolverError) Error() string {
	return fmt.Sprintf("device %s uses %s as the resolver which is not a DNS server", e.device, e.resolver)
}

// Returns the error kind.
func (e UnknownResolverError) Kind() topology.ErrorKind {
	return topology.ErrorKindUnknownResolver
}

// Returns the device and the resolver.
func (e UnknownResolverError) Refs() []string {
	return []string{e.device, e.resolver}
}
