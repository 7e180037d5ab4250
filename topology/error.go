package topology

import (
	"fmt"
	"strings"
)

// Kind of a problem found in the topology or in the configuration derived
// from it. The structural kinds are raised by the model operations. The
// remaining kinds are collected by the review of a compile run.
type ErrorKind string

// Supported error kinds.
const (
	ErrorKindDuplicateDeviceID         ErrorKind = "DuplicateDeviceID"
	ErrorKindInterfaceAlreadyConnected ErrorKind = "InterfaceAlreadyConnected"
	ErrorKindDanglingInterface         ErrorKind = "DanglingInterface"
	ErrorKindOrphanLink                ErrorKind = "OrphanLink"
	ErrorKindAddressConflict           ErrorKind = "AddressConflict"
	ErrorKindAddressSpaceExhausted     ErrorKind = "AddressSpaceExhausted"
	ErrorKindAsymmetricNeighbor        ErrorKind = "AsymmetricNeighbor"
	ErrorKindUnreachableStaticGateway  ErrorKind = "UnreachableStaticGateway"
	ErrorKindZoneRecordMismatch        ErrorKind = "ZoneRecordMismatch"
	ErrorKindUnknownInterface          ErrorKind = "UnknownInterface"
	ErrorKindUnknownNeighbor           ErrorKind = "UnknownNeighbor"
	ErrorKindUnknownResolver           ErrorKind = "UnknownResolver"
)

// An error carrying its kind and the references of the entities it
// concerns. The references are device IDs, link names or interface
// references in the "device/ethN" form.
type KindedError interface {
	error
	Kind() ErrorKind
	Refs() []string
}

// An error returned when a device with the given ID already exists.
type DuplicateDeviceIDError struct {
	id string
}

// Create new instance of the DuplicateDeviceIDError.
func NewDuplicateDeviceIDError(id string) error {
	return &DuplicateDeviceIDError{id: id}
}

// Returns error string.
func (e DuplicateDeviceIDError) Error() string {
	return fmt.Sprintf("device %s already exists", e.id)
}

// Returns the error kind.
func (e DuplicateDeviceIDError) Kind() ErrorKind {
	return ErrorKindDuplicateDeviceID
}

// Returns the device ID.
func (e DuplicateDeviceIDError) Refs() []string {
	return []string{e.id}
}

// An error returned when the device ID is not a valid hostname label.
type InvalidDeviceIDError struct {
	id string
}

// Create new instance of the InvalidDeviceIDError.
func NewInvalidDeviceIDError(id string) error {
	return &InvalidDeviceIDError{id: id}
}

// Returns error string.
func (e InvalidDeviceIDError) Error() string {
	return fmt.Sprintf("device ID '%s' is not a valid hostname label", e.id)
}

// An error returned when the device kind is not supported.
type UnknownDeviceKindError struct {
	kind DeviceKind
}

// Create new instance of the UnknownDeviceKindError.
func NewUnknownDeviceKindError(kind DeviceKind) error {
	return &UnknownDeviceKindError{kind: kind}
}

// Returns error string.
func (e UnknownDeviceKindError) Error() string {
	return fmt.Sprintf("unknown device kind '%s'", e.kind)
}

// An error returned when the referenced device does not exist.
type UnknownDeviceError struct {
	id string
}

// Create new instance of the UnknownDeviceError.
func NewUnknownDeviceError(id string) error {
	return &UnknownDeviceError{id: id}
}

// Returns error string.
func (e UnknownDeviceError) Error() string {
	return fmt.Sprintf("device %s not found", e.id)
}

// An error returned when the interface index is neither an existing
// interface nor the next one to create.
type InvalidInterfaceIndexError struct {
	ref   InterfaceRef
	count int
}

// Create new instance of the InvalidInterfaceIndexError.
func NewInvalidInterfaceIndexError(ref InterfaceRef, count int) error {
	return &InvalidInterfaceIndexError{ref: ref, count: count}
}

// Returns error string.
func (e InvalidInterfaceIndexError) Error() string {
	return fmt.Sprintf("invalid interface %s: device %s has %d interfaces", e.ref, e.ref.DeviceID, e.count)
}

// An error returned when the interface is already a member of a link.
type InterfaceAlreadyConnectedError struct {
	ref  InterfaceRef
	link string
}

// Create new instance of the InterfaceAlreadyConnectedError.
func NewInterfaceAlreadyConnectedError(ref InterfaceRef, link string) error {
	return &InterfaceAlreadyConnectedError{ref: ref, link: link}
}

// Returns error string.
func (e InterfaceAlreadyConnectedError) Error() string {
	return fmt.Sprintf("interface %s is already connected to link %s", e.ref, e.link)
}

// Returns the error kind.
func (e InterfaceAlreadyConnectedError) Kind() ErrorKind {
	return ErrorKindInterfaceAlreadyConnected
}

// Returns the interface and the link references.
func (e InterfaceAlreadyConnectedError) Refs() []string {
	return []string{e.ref.String(), e.link}
}

// An error returned when an interface does not belong to any link.
type DanglingInterfaceError struct {
	ref InterfaceRef
}

// Create new instance of the DanglingInterfaceError.
func NewDanglingInterfaceError(ref InterfaceRef) error {
	return &DanglingInterfaceError{ref: ref}
}

// Returns error string.
func (e DanglingInterfaceError) Error() string {
	return fmt.Sprintf("interface %s is not connected to any link", e.ref)
}

// Returns the error kind.
func (e DanglingInterfaceError) Kind() ErrorKind {
	return ErrorKindDanglingInterface
}

// Returns the interface reference.
func (e DanglingInterfaceError) Refs() []string {
	return []string{e.ref.String()}
}

// An error returned when a link has fewer than two distinct members.
type OrphanLinkError struct {
	link    string
	members []string
}

// Create new instance of the OrphanLinkError. The link name is empty when
// the link was not created.
func NewOrphanLinkError(link string, members ...string) error {
	return &OrphanLinkError{link: link, members: members}
}

// Returns error string.
func (e OrphanLinkError) Error() string {
	name := e.link
	if name == "" {
		name = "<new>"
	}
	return fmt.Sprintf("link %s requires at least two distinct interfaces, got [%s]",
		name, strings.Join(e.members, ", "))
}

// Returns the error kind.
func (e OrphanLinkError) Kind() ErrorKind {
	return ErrorKindOrphanLink
}

// Returns the link and member references.
func (e OrphanLinkError) Refs() []string {
	refs := []string{}
	if e.link != "" {
		refs = append(refs, e.link)
	}
	return append(refs, e.members...)
}

// An error returned when the link name is already taken.
type DuplicateLinkNameError struct {
	name string
}

// Create new instance of the DuplicateLinkNameError.
func NewDuplicateLinkNameError(name string) error {
	return &DuplicateLinkNameError{name: name}
}

// Returns error string.
func (e DuplicateLinkNameError) Error() string {
	return fmt.Sprintf("link %s already exists", e.name)
}

// An error returned when the link name contains other characters than
// letters and digits.
type InvalidLinkNameError struct {
	name string
}

// Create new instance of the InvalidLinkNameError.
func NewInvalidLinkNameError(name string) error {
	return &InvalidLinkNameError{name: name}
}

// Returns error string.
func (e InvalidLinkNameError) Error() string {
	return fmt.Sprintf("link name '%s' must contain only letters and digits", e.name)
}
