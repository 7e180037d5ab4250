package render

import (
	"embed"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/sciro24/Kathara-labGenerator/routingcfg"
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

// Templates of the FRR files. The frr.conf template defines one template
// per configuration section.
var frrTemplates = template.Must(
	template.New("frr").
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"yesno": func(enabled bool) string {
				if enabled {
					return "yes"
				}
				return "no"
			},
		}).
		ParseFS(templateFiles, "templates/*.tmpl"),
)

// Sections of the frr.conf in the output order.
var frrSections = []string{
	"header",
	"debug",
	"bgp",
	"ospf",
	"rip",
	"static",
	"interfaces",
	"prefix-lists",
	"access-lists",
	"route-maps",
}

// Renders the daemons, vtysh.conf and frr.conf files of the router. The
// returned map is indexed by the file names.
func renderFRR(router *routingcfg.RouterConfig) (map[string]string, error) {
	files := make(map[string]string)
	text, err := executeTemplate("daemons.tmpl", router.Daemons)
	if err != nil {
		return nil, err
	}
	files["daemons"] = text

	text, err = executeTemplate("vtysh.conf.tmpl", router)
	if err != nil {
		return nil, err
	}
	files["vtysh.conf"] = text

	// The non-empty sections are separated with an empty line.
	var sections []string
	for _, section := range frrSections {
		text, err := executeTemplate(section, router)
		if err != nil {
			return nil, err
		}
		if text != "" {
			sections = append(sections, text)
		}
	}
	files["frr.conf"] = strings.Join(sections, "\n")
	return files, nil
}

// Executes the named template with the data.
func executeTemplate(name string, data any) (string, error) {
	var builder strings.Builder
	if err := frrTemplates.ExecuteTemplate(&builder, name, data); err != nil {
		return "", errors.Wrapf(err, "cannot execute template %s", name)
	}
	return builder.String(), nil
}
