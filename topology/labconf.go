package topology

import (
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Kathara lab.conf file. It is a list of assignments, optionally preceded
// by comments.
type labConf struct {
	Entries []*labConfEntry `parser:"@@*"`
}

// Single lab.conf assignment. It has one of the following formats:
//
//	<device>[<interface index>]=<collision domain>
//	<device>[<option>]=<value>
//	<metadata>=<value>
type labConfEntry struct {
	Pos lexer.Position
	// Device name or the name of the lab metadata, e.g., LAB_NAME.
	Name string `parser:"@Ident"`
	// Interface index or the device option name.
	Key *string `parser:"( '[' @Ident ']' )?"`
	// Assigned value.
	Value string `parser:"'=' ( @String | @Ident )"`
}

// The lab.conf parser is stateless and can be shared.
var labConfParser = participle.MustBuild[labConf](
	participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
		// Comments are elided from the token stream.
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "String", Pattern: `"(\\"|[^"])*"`},
		// Device names, indexes, domains and unquoted values.
		{Name: "Ident", Pattern: `[a-zA-Z0-9_][a-zA-Z0-9_\-\./:]*`},
		{Name: "Punct", Pattern: `[\[\]=]`},
		{Name: "Whitespace", Pattern: `[ \t\n\r]+`},
	})),
	participle.Unquote("String"),
	participle.Elide("Whitespace", "Comment"),
)

// Creates a topology from the Kathara lab.conf file. The devices are
// added in the order of their first appearance. The devices running the
// FRR image become routers and the remaining devices become hosts. The
// interfaces attached to the same collision domain are connected with one
// link named after the domain. The lab metadata and the device options
// other than the image are ignored.
func ParseLabConf(reader io.Reader) (*Model, error) {
	parsed, err := labConfParser.Parse("lab.conf", reader)
	if err != nil {
		return nil, errors.Wrap(err, "cannot parse lab.conf")
	}

	var (
		deviceOrder  []string
		images       = make(map[string]string)
		counts       = make(map[string]int)
		domainOrder  []string
		domainRefs   = make(map[string][]InterfaceRef)
		knownDevices = make(map[string]bool)
	)

	for _, entry := range parsed.Entries {
		if entry.Key == nil {
			log.WithField("name", entry.Name).Debug("Skipping lab.conf metadata")
			continue
		}
		if !knownDevices[entry.Name] {
			knownDevices[entry.Name] = true
			deviceOrder = append(deviceOrder, entry.Name)
		}
		key := *entry.Key
		index, err := strconv.Atoi(key)
		if err != nil {
			if key == "image" {
				images[entry.Name] = entry.Value
			}
			continue
		}
		if index < 0 {
			return nil, errors.Errorf("%s: negative interface index %d of %s", entry.Pos, index, entry.Name)
		}
		domain := strings.ToUpper(entry.Value)
		if _, ok := domainRefs[domain]; !ok {
			domainOrder = append(domainOrder, domain)
		}
		domainRefs[domain] = append(domainRefs[domain], Ref(entry.Name, index))
		counts[entry.Name] = max(counts[entry.Name], index+1)
	}

	model := New()
	for _, id := range deviceOrder {
		kind := KindHost
		image := images[id]
		if strings.Contains(image, "frr") {
			kind = KindRouter
		}
		device, err := model.AddDevice(kind, id)
		if err != nil {
			return nil, err
		}
		if image != RouterImage && image != DefaultImage {
			device.Image = image
		}
		for len(device.Interfaces) < counts[id] {
			device.addInterface()
		}
	}

	// The same interface assigned twice is reported by the connection.
	for _, domain := range domainOrder {
		if _, err := model.ConnectNamed(domain, domainRefs[domain]...); err != nil {
			return nil, errors.WithMessagef(err, "cannot connect collision domain %s", domain)
		}
	}

	log.WithFields(log.Fields{
		"devices": len(deviceOrder),
		"links":   len(domainOrder),
	}).Debug("Imported lab.conf")
	return model, nil
}
