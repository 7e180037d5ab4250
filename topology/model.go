package topology

import (
	"fmt"
	"slices"
	"strings"

	"github.com/asaskevich/govalidator"
	log "github.com/sirupsen/logrus"

	labutil "github.com/sciro24/Kathara-labGenerator/util"
)

// Kind of a device.
type DeviceKind string

// Supported device kinds.
const (
	KindRouter    DeviceKind = "router"
	KindHost      DeviceKind = "host"
	KindWebServer DeviceKind = "webserver"
	KindDNSServer DeviceKind = "dns"
)

// Default container images.
const (
	RouterImage  = "kathara/frr"
	DefaultImage = "kathara/base"
)

// Checks if the kind is supported.
func (k DeviceKind) IsValid() bool {
	switch k {
	case KindRouter, KindHost, KindWebServer, KindDNSServer:
		return true
	default:
		return false
	}
}

// Reference to an interface by the device ID and the interface index.
type InterfaceRef struct {
	DeviceID string
	Index    int
}

// Convenience function creating the interface reference.
func Ref(deviceID string, index int) InterfaceRef {
	return InterfaceRef{DeviceID: deviceID, Index: index}
}

// Returns the reference in the "device/ethN" form.
func (r InterfaceRef) String() string {
	return fmt.Sprintf("%s/%s", r.DeviceID, InterfaceName(r.Index))
}

// Returns the name of the interface with the given index.
func InterfaceName(index int) string {
	return fmt.Sprintf("eth%d", index)
}

// Network device of the lab.
type Device struct {
	ID         string
	Kind       DeviceKind
	Image      string
	Interfaces []*Interface
	// Routing configuration of a router.
	Routing *RoutingConfig
	// Default gateway of an end system. Empty means the designated
	// gateway of the link the first interface belongs to.
	Gateway string
	// DNS server an end system resolves the names with. Empty selects a
	// server automatically and ResolverNone disables the resolver.
	Resolver string
	// Content of a web server.
	Web *WebConfig
	// Configuration of a DNS server.
	DNS *DNSConfig
}

// Returns the interface with the given index or nil.
func (d *Device) Interface(index int) *Interface {
	if index < 0 || index >= len(d.Interfaces) {
		return nil
	}
	return d.Interfaces[index]
}

// Checks if the device is a router.
func (d *Device) IsRouter() bool {
	return d.Kind == KindRouter
}

// Checks if the device is a host or a web server. The end systems use a
// default gateway and a resolver.
func (d *Device) IsEndSystem() bool {
	return d.Kind == KindHost || d.Kind == KindWebServer
}

// Returns the container image of the device.
func (d *Device) EffectiveImage() string {
	switch {
	case d.Image != "":
		return d.Image
	case d.IsRouter():
		return RouterImage
	default:
		return DefaultImage
	}
}

// Appends a new unconnected interface.
func (d *Device) addInterface() *Interface {
	iface := &Interface{Device: d, Index: len(d.Interfaces)}
	d.Interfaces = append(d.Interfaces, iface)
	return iface
}

// Network interface of a device.
type Interface struct {
	Device *Device
	Index  int
	Link   *Link
}

// Returns the interface name, e.g. eth0.
func (i *Interface) Name() string {
	return InterfaceName(i.Index)
}

// Returns the interface reference.
func (i *Interface) Ref() InterfaceRef {
	return Ref(i.Device.ID, i.Index)
}

// Collision domain connecting two or more interfaces.
type Link struct {
	Name    string
	Members []*Interface
	// Device designated as the gateway of the LAN.
	Gateway string
	// Manual subnet override in the CIDR notation.
	Subnet string
	// Creation order.
	Seq int
}

// Checks if the link connects exactly two interfaces.
func (l *Link) IsPointToPoint() bool {
	return len(l.Members) == 2
}

// Returns the member interface of the device or nil.
func (l *Link) Member(deviceID string) *Interface {
	for _, member := range l.Members {
		if member.Device.ID == deviceID {
			return member
		}
	}
	return nil
}

// Returns the references of the members.
func (l *Link) MemberRefs() []string {
	refs := make([]string, 0, len(l.Members))
	for _, member := range l.Members {
		refs = append(refs, member.Ref().String())
	}
	return refs
}

// Lab topology: the devices, their interfaces and the links between them.
// The model is the only owner of this state and is mutated exclusively
// with its methods.
type Model struct {
	devices  *labutil.OrderedMap[string, *Device]
	links    []*Link
	linkSeq  int
	nameSeed int
}

// Creates an empty topology.
func New() *Model {
	return &Model{
		devices: labutil.NewOrderedMap[string, *Device](),
	}
}

// Checks if the device ID is a valid hostname label.
func IsValidDeviceID(id string) bool {
	return id != "" && !strings.ContainsAny(id, "._") && govalidator.IsDNSName(id)
}

// Adds a device of the given kind. Routers get an empty routing
// configuration and DNS servers the caching role.
func (m *Model) AddDevice(kind DeviceKind, id string) (*Device, error) {
	if !kind.IsValid() {
		return nil, NewUnknownDeviceKindError(kind)
	}
	if !IsValidDeviceID(id) {
		return nil, NewInvalidDeviceIDError(id)
	}
	if m.devices.Has(id) {
		return nil, NewDuplicateDeviceIDError(id)
	}
	device := &Device{ID: id, Kind: kind}
	switch kind {
	case KindRouter:
		device.Routing = &RoutingConfig{}
	case KindDNSServer:
		device.DNS = &DNSConfig{Role: DNSRoleCaching}
	}
	m.devices.Set(id, device)
	log.WithFields(log.Fields{
		"device": id,
		"kind":   kind,
	}).Debug("Added device")
	return device, nil
}

// Returns the device with the given ID or nil.
func (m *Model) Device(id string) *Device {
	device, _ := m.devices.Get(id)
	return device
}

// Returns the devices in the insertion order.
func (m *Model) Devices() []*Device {
	return m.devices.Values()
}

// Returns the routers in the insertion order.
func (m *Model) Routers() []*Device {
	var routers []*Device
	for _, device := range m.devices.Values() {
		if device.IsRouter() {
			routers = append(routers, device)
		}
	}
	return routers
}

// Returns the links in the creation order.
func (m *Model) Links() []*Link {
	return slices.Clone(m.links)
}

// Returns the link with the given name or nil.
func (m *Model) Link(name string) *Link {
	for _, link := range m.links {
		if link.Name == name {
			return link
		}
	}
	return nil
}

// Returns the interface referenced by ref or nil.
func (m *Model) Interface(ref InterfaceRef) *Interface {
	device := m.Device(ref.DeviceID)
	if device == nil {
		return nil
	}
	return device.Interface(ref.Index)
}

// Connects the interfaces with a new link named automatically.
func (m *Model) Connect(refs ...InterfaceRef) (*Link, error) {
	return m.ConnectNamed("", refs...)
}

// Connects the interfaces with a new link. An empty name selects the
// next free name in the A, B, ..., Z, AA, AB, ... sequence. A reference
// to the index following the last interface of a device creates the
// interface. The model is unchanged when an error is returned.
func (m *Model) ConnectNamed(name string, refs ...InterfaceRef) (*Link, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name != "" {
		if !govalidator.IsAlphanumeric(name) {
			return nil, NewInvalidLinkNameError(name)
		}
		if m.Link(name) != nil {
			return nil, NewDuplicateLinkNameError(name)
		}
	}

	refStrings := make([]string, 0, len(refs))
	for _, ref := range refs {
		refStrings = append(refStrings, ref.String())
	}
	if len(refs) < 2 {
		return nil, NewOrphanLinkError(name, refStrings...)
	}

	// Number of interfaces each device will have after the connection.
	planned := make(map[string]int)
	seen := make(map[InterfaceRef]bool)
	for _, ref := range refs {
		device := m.Device(ref.DeviceID)
		if device == nil {
			return nil, NewUnknownDeviceError(ref.DeviceID)
		}
		if seen[ref] {
			return nil, NewOrphanLinkError(name, refStrings...)
		}
		seen[ref] = true

		count, ok := planned[ref.DeviceID]
		if !ok {
			count = len(device.Interfaces)
		}
		switch {
		case ref.Index < 0 || ref.Index > count:
			return nil, NewInvalidInterfaceIndexError(ref, count)
		case ref.Index == count:
			count++
		case ref.Index < len(device.Interfaces) && device.Interfaces[ref.Index].Link != nil:
			return nil, NewInterfaceAlreadyConnectedError(ref, device.Interfaces[ref.Index].Link.Name)
		}
		planned[ref.DeviceID] = count
	}

	if name == "" {
		name = m.nextLinkName()
	}
	link := &Link{Name: name, Seq: m.linkSeq}
	m.linkSeq++
	for _, ref := range refs {
		device := m.Device(ref.DeviceID)
		// The references to new interfaces are validated above, so the
		// index is never more than one past the end.
		for len(device.Interfaces) <= ref.Index {
			device.addInterface()
		}
		iface := device.Interfaces[ref.Index]
		iface.Link = link
		link.Members = append(link.Members, iface)
	}
	m.links = append(m.links, link)

	log.WithFields(log.Fields{
		"link":    link.Name,
		"members": link.MemberRefs(),
	}).Debug("Connected interfaces")
	return link, nil
}

// Adds an unconnected interface to the device. It is used by the snapshot
// import to restore the interfaces that were not connected.
func (m *Model) AddInterface(id string) (*Interface, error) {
	device := m.Device(id)
	if device == nil {
		return nil, NewUnknownDeviceError(id)
	}
	return device.addInterface(), nil
}

// Returns the next automatic link name not taken by any link.
func (m *Model) nextLinkName() string {
	for {
		name := linkNameFromSeed(m.nameSeed)
		m.nameSeed++
		if m.Link(name) == nil {
			return name
		}
	}
}

// Converts the sequence number to a name in the A..Z, AA..ZZ, AAA...
// sequence.
func linkNameFromSeed(seed int) string {
	name := ""
	for n := seed + 1; n > 0; n = (n - 1) / 26 {
		name = string(rune('A'+(n-1)%26)) + name
	}
	return name
}

// Removes the device with its interfaces. The links left with fewer than
// two members are removed together with the interfaces of the remaining
// member. The BGP declarations, policies, DNS scope entries and gateway
// designations naming the device are removed as well.
func (m *Model) RemoveDevice(id string) error {
	device := m.Device(id)
	if device == nil {
		return NewUnknownDeviceError(id)
	}
	for _, iface := range slices.Clone(device.Interfaces) {
		m.detach(iface)
	}
	m.devices.Delete(id)

	for _, other := range m.devices.Values() {
		other.Routing.forgetPeer(id)
		if other.Gateway == id {
			other.Gateway = ""
		}
		if other.Resolver == id {
			other.Resolver = ""
		}
		if other.DNS != nil && len(other.DNS.Scope) > 0 {
			other.DNS.Scope = slices.DeleteFunc(other.DNS.Scope, func(scoped string) bool {
				return scoped == id
			})
			// An empty scope means all devices, so the zone keeps only
			// the master itself.
			if len(other.DNS.Scope) == 0 {
				other.DNS.Scope = []string{other.ID}
			}
		}
	}
	for _, link := range m.links {
		if link.Gateway == id {
			link.Gateway = ""
		}
	}

	log.WithField("device", id).Debug("Removed device")
	return nil
}

// Removes the interface referenced by ref. Only the last interface of a
// device can be removed so that the indexes remain contiguous.
func (m *Model) RemoveInterface(ref InterfaceRef) error {
	device := m.Device(ref.DeviceID)
	if device == nil {
		return NewUnknownDeviceError(ref.DeviceID)
	}
	if len(device.Interfaces) == 0 || ref.Index != len(device.Interfaces)-1 {
		return NewInvalidInterfaceIndexError(ref, len(device.Interfaces))
	}
	m.dropInterface(device.Interfaces[ref.Index])
	log.WithField("interface", ref.String()).Debug("Removed interface")
	return nil
}

// Removes the interface from its device and its link. The following
// interfaces of the device are renumbered and the routing settings
// referring to them follow the new indexes.
func (m *Model) dropInterface(iface *Interface) {
	device := iface.Device
	index := slices.Index(device.Interfaces, iface)
	if index < 0 {
		return
	}
	device.Interfaces = slices.Delete(device.Interfaces, index, index+1)
	for _, later := range device.Interfaces[index:] {
		later.Index--
	}
	device.Routing.forgetInterface(index)
	m.detach(iface)
}

// Removes the interface from its link. The link is removed when fewer
// than two members remain, and so is the interface of the remaining
// member.
func (m *Model) detach(iface *Interface) {
	link := iface.Link
	if link == nil {
		return
	}
	iface.Link = nil
	link.Members = slices.DeleteFunc(link.Members, func(member *Interface) bool {
		return member == iface
	})
	if len(link.Members) >= 2 {
		return
	}
	survivors := link.Members
	link.Members = nil
	m.links = slices.DeleteFunc(m.links, func(l *Link) bool {
		return l == link
	})
	log.WithField("link", link.Name).Debug("Removed under-populated link")
	for _, member := range survivors {
		member.Link = nil
		m.dropInterface(member)
	}
}

// Checks the structure of the topology. It returns the first interface
// without a link or the first link with fewer than two members.
func (m *Model) ValidateStructure() error {
	if errs := m.StructureErrors(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Returns all structural problems: the interfaces without a link or
// missing from the members of their link, followed by the links with
// fewer than two members.
func (m *Model) StructureErrors() []error {
	var errs []error
	for _, device := range m.devices.Values() {
		for _, iface := range device.Interfaces {
			if iface.Link == nil || !slices.Contains(iface.Link.Members, iface) {
				errs = append(errs, NewDanglingInterfaceError(iface.Ref()))
			}
		}
	}
	for _, link := range m.links {
		if len(link.Members) < 2 {
			errs = append(errs, NewOrphanLinkError(link.Name, link.MemberRefs()...))
		}
	}
	return errs
}

// Returns the designated gateway of the link: the device set as the link
// gateway if it is a member, otherwise the first router member. It
// returns nil when the link has no router and no designation.
func (l *Link) DesignatedGateway() *Interface {
	if l.Gateway != "" {
		if member := l.Member(l.Gateway); member != nil {
			return member
		}
	}
	for _, member := range l.Members {
		if member.Device.IsRouter() {
			return member
		}
	}
	return nil
}
