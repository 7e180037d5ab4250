package addressing

import (
	"fmt"

	"github.com/sciro24/Kathara-labGenerator/topology"
)

// An error recorded when a manual subnet override cannot be issued or
// when the loopback pool overlaps the address budget.
type AddressConflictError struct {
	link   string
	subnet string
	reason string
}

// Create new instance of the AddressConflictError. The link is empty
// when the conflict concerns the loopback pool.
func NewAddressConflictError(link, subnet, reason string) error {
	return &AddressConflictError{link: link, subnet: subnet, reason: reason}
}

// Returns error string.
func (e AddressConflictError) Error() string {
	if e.link == "" {
		return fmt.Sprintf("address conflict of %s: %s", e.subnet, e.reason)
	}
	return fmt.Sprintf("address conflict of subnet %s of link %s: %s", e.subnet, e.link, e.reason)
}

// Returns the error kind.
func (e AddressConflictError) Kind() topology.ErrorKind {
	return topology.ErrorKindAddressConflict
}

// Returns the link and subnet references.
func (e AddressConflictError) Refs() []string {
	if e.link == "" {
		return []string{e.subnet}
	}
	return []string{e.link, e.subnet}
}

// An error recorded when the budget has no free block for a link or the
// loopback pool has no address left for a router.
type AddressSpaceExhaustedError struct {
	entity string
	size   int
	budget string
}

// Create new instance of the AddressSpaceExhaustedError. The entity is a
// link name or a router ID, the size is the requested prefix length.
func NewAddressSpaceExhaustedError(entity string, size int, budget string) error {
	return &AddressSpaceExhaustedError{entity: entity, size: size, budget: budget}
}

// Returns error string.
func (e AddressSpaceExhaustedError) Error() string {
	return fmt.Sprintf("no free /%d block left in %s for %s", e.size, e.budget, e.entity)
}

// Returns the error kind.
func (e AddressSpaceExhaustedError) Kind() topology.ErrorKind {
	return topology.ErrorKindAddressSpaceExhausted
}

// Returns the entity and budget references.
func (e AddressSpaceExhaustedError) Refs() []string {
	return []string{e.entity, e.budget}
}
