package topology

import (
	"encoding/xml"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Validator of the snapshots, shared because it caches the struct tags.
var validate = validator.New()

// Serializable form of the topology. It is the save/load format of the
// model in YAML, JSON and XML.
type Snapshot struct {
	XMLName xml.Name         `yaml:"-" json:"-" xml:"lab"`
	Devices []DeviceSnapshot `yaml:"devices" json:"devices" xml:"devices>device" validate:"dive"`
	Links   []LinkSnapshot   `yaml:"links,omitempty" json:"links,omitempty" xml:"links>link" validate:"dive"`
}

// Serializable form of a device.
type DeviceSnapshot struct {
	ID         string         `yaml:"id" json:"id" xml:"id,attr" validate:"required"`
	Kind       DeviceKind     `yaml:"kind" json:"kind" xml:"kind,attr" validate:"oneof=router host webserver dns"`
	Image      string         `yaml:"image,omitempty" json:"image,omitempty" xml:"image,attr,omitempty"`
	Interfaces int            `yaml:"interfaces,omitempty" json:"interfaces,omitempty" xml:"interfaces,attr,omitempty" validate:"gte=0"`
	Gateway    string         `yaml:"gateway,omitempty" json:"gateway,omitempty" xml:"gateway,attr,omitempty"`
	Resolver   string         `yaml:"resolver,omitempty" json:"resolver,omitempty" xml:"resolver,attr,omitempty"`
	Routing    *RoutingConfig `yaml:"routing,omitempty" json:"routing,omitempty" xml:"routing,omitempty"`
	Web        *WebConfig     `yaml:"web,omitempty" json:"web,omitempty" xml:"web,omitempty"`
	DNS        *DNSConfig     `yaml:"dns,omitempty" json:"dns,omitempty" xml:"dns,omitempty"`
}

// Serializable form of a link.
type LinkSnapshot struct {
	Name    string           `yaml:"name,omitempty" json:"name,omitempty" xml:"name,attr,omitempty" validate:"omitempty,alphanum"`
	Gateway string           `yaml:"gateway,omitempty" json:"gateway,omitempty" xml:"gateway,attr,omitempty"`
	Subnet  string           `yaml:"subnet,omitempty" json:"subnet,omitempty" xml:"subnet,attr,omitempty" validate:"omitempty,cidrv4"`
	Members []MemberSnapshot `yaml:"members" json:"members" xml:"member" validate:"min=2,dive"`
}

// Serializable reference to a link member.
type MemberSnapshot struct {
	Device    string `yaml:"device" json:"device" xml:"device,attr" validate:"required"`
	Interface int    `yaml:"interface" json:"interface" xml:"interface,attr" validate:"gte=0"`
}

// Exports the model to the snapshot. The snapshot shares no state with
// the model.
func (m *Model) Export() *Snapshot {
	snapshot := &Snapshot{}
	for _, device := range m.Devices() {
		snapshot.Devices = append(snapshot.Devices, DeviceSnapshot{
			ID:         device.ID,
			Kind:       device.Kind,
			Image:      device.Image,
			Interfaces: len(device.Interfaces),
			Gateway:    device.Gateway,
			Resolver:   device.Resolver,
			Routing:    device.Routing.Clone(),
			Web:        device.Web.Clone(),
			DNS:        device.DNS.Clone(),
		})
	}
	for _, link := range m.links {
		linkSnapshot := LinkSnapshot{
			Name:    link.Name,
			Gateway: link.Gateway,
			Subnet:  link.Subnet,
		}
		for _, member := range link.Members {
			linkSnapshot.Members = append(linkSnapshot.Members, MemberSnapshot{
				Device:    member.Device.ID,
				Interface: member.Index,
			})
		}
		snapshot.Links = append(snapshot.Links, linkSnapshot)
	}
	return snapshot
}

// Creates a model from the snapshot. The snapshot is validated first and
// is not modified. The devices get as many interfaces as the snapshot
// declares or its links reference, and the links are created in the
// snapshot order.
func Import(snapshot *Snapshot) (*Model, error) {
	if snapshot == nil {
		return nil, errors.New("snapshot is nil")
	}
	if err := validate.Struct(snapshot); err != nil {
		return nil, errors.Wrap(err, "invalid topology snapshot")
	}

	interfaceCounts := make(map[string]int)
	for _, link := range snapshot.Links {
		for _, member := range link.Members {
			interfaceCounts[member.Device] = max(interfaceCounts[member.Device], member.Interface+1)
		}
	}

	model := New()
	for _, deviceSnapshot := range snapshot.Devices {
		device, err := model.AddDevice(deviceSnapshot.Kind, deviceSnapshot.ID)
		if err != nil {
			return nil, err
		}
		device.Image = deviceSnapshot.Image
		device.Gateway = deviceSnapshot.Gateway
		device.Resolver = deviceSnapshot.Resolver
		if deviceSnapshot.Routing != nil {
			device.Routing = deviceSnapshot.Routing.Clone()
		}
		if deviceSnapshot.DNS != nil {
			device.DNS = deviceSnapshot.DNS.Clone()
		}
		device.Web = deviceSnapshot.Web.Clone()

		count := max(deviceSnapshot.Interfaces, interfaceCounts[device.ID])
		for len(device.Interfaces) < count {
			device.addInterface()
		}
	}

	for _, linkSnapshot := range snapshot.Links {
		refs := make([]InterfaceRef, 0, len(linkSnapshot.Members))
		for _, member := range linkSnapshot.Members {
			refs = append(refs, Ref(member.Device, member.Interface))
		}
		link, err := model.ConnectNamed(linkSnapshot.Name, refs...)
		if err != nil {
			return nil, err
		}
		link.Gateway = linkSnapshot.Gateway
		link.Subnet = linkSnapshot.Subnet
	}
	return model, nil
}
