package render

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sciro24/Kathara-labGenerator/addressing"
	"github.com/sciro24/Kathara-labGenerator/routingcfg"
	"github.com/sciro24/Kathara-labGenerator/servicecfg"
	"github.com/sciro24/Kathara-labGenerator/topology"
)

// Name of the Kathara lab description file.
const LabConfFile = "lab.conf"

// File of the Kathara lab. The path is relative to the lab directory and
// uses forward slashes.
type Artifact struct {
	Path    string
	Content string
	// True for the startup scripts.
	Executable bool
}

// Derived state the lab files are rendered from.
type Input struct {
	Model    *topology.Model
	Plan     *addressing.Plan
	Routing  *routingcfg.Config
	Services *servicecfg.Config
}

// Renders the lab files: the lab.conf, a startup script per device, the
// FRR files of the routers running FRR, the BIND files of the DNS
// servers, the index page of the web servers and the resolver file of
// the end systems. The artifacts are sorted by path. Rendering the same
// input always yields the same artifacts.
func Render(input *Input) ([]*Artifact, error) {
	if input == nil || input.Model == nil || input.Plan == nil || input.Routing == nil || input.Services == nil {
		return nil, errors.New("rendering requires the topology, the address plan and the derived configurations")
	}
	r := &renderer{input: input}

	r.add(LabConfFile, renderLabConf(input.Model), false)
	for _, device := range input.Model.Devices() {
		if err := r.renderDevice(device); err != nil {
			return nil, errors.WithMessagef(err, "cannot render files of device %s", device.ID)
		}
	}

	slices.SortFunc(r.artifacts, func(a, b *Artifact) int {
		return strings.Compare(a.Path, b.Path)
	})
	log.WithField("artifacts", len(r.artifacts)).Debug("Rendered lab files")
	return r.artifacts, nil
}

// Collects the artifacts of a single rendering.
type renderer struct {
	input     *Input
	artifacts []*Artifact
}

// Appends the artifact.
func (r *renderer) add(filePath, content string, executable bool) {
	r.artifacts = append(r.artifacts, &Artifact{
		Path:       filePath,
		Content:    content,
		Executable: executable,
	})
}

// Renders the startup script and the kind-specific files of the device.
func (r *renderer) renderDevice(device *topology.Device) error {
	r.add(device.ID+".startup", r.startup(device), true)
	if resolver := r.input.Services.Resolver(device.ID); resolver != nil {
		r.add(path.Join(device.ID, "etc", "resolv.conf"), fmt.Sprintf("nameserver %s\n", resolver.Address), false)
	}

	switch device.Kind {
	case topology.KindRouter:
		router := r.input.Routing.Router(device.ID)
		if router == nil || !router.UsesFRR {
			return nil
		}
		files, err := renderFRR(router)
		if err != nil {
			return err
		}
		for _, name := range []string{"daemons", "vtysh.conf", "frr.conf"} {
			r.add(path.Join(device.ID, "etc", "frr", name), files[name], false)
		}
	case topology.KindWebServer:
		content := r.input.Services.WebContent(device.ID)
		if content == nil {
			return errors.New("missing web content")
		}
		r.add(path.Join(device.ID, "var", "www", "html", "index.html"), content.Body+"\n", false)
	case topology.KindDNSServer:
		server := r.input.Services.Server(device.ID)
		if server == nil {
			return errors.New("missing DNS server configuration")
		}
		bindDir := path.Join(device.ID, "etc", "bind")
		r.add(path.Join(bindDir, "named.conf.options"), renderNamedOptions(server), false)
		r.add(path.Join(bindDir, "named.conf"), renderNamedConf(server), false)
		r.add(path.Join(bindDir, "db.root"), renderRootZone(server), false)
		if server.Zone != nil {
			r.add(path.Join(bindDir, server.Zone.FileName()), renderZone(server.Zone), false)
		}
	}
	return nil
}
