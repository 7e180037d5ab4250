package render

import (
	"fmt"
	"strings"

	"github.com/sciro24/Kathara-labGenerator/topology"
)

// Renders the lab.conf: the collision domain of every connected
// interface and the image of each device. The devices are separated with
// an empty line.
func renderLabConf(model *topology.Model) string {
	var sections []string
	for _, device := range model.Devices() {
		var lines []string
		for _, iface := range device.Interfaces {
			if iface.Link == nil {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s[%d]=%s", device.ID, iface.Index, iface.Link.Name))
		}
		lines = append(lines, fmt.Sprintf(`%s[image]="%s"`, device.ID, device.EffectiveImage()))
		sections = append(sections, strings.Join(lines, "\n")+"\n")
	}
	return strings.Join(sections, "\n")
}
