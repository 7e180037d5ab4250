package topology

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"muzzammil.xyz/jsonc"
)

// Serialization format of the topology file.
type Format string

// Supported topology file formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// Selects the format by the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json", ".jsonc":
		return FormatJSON, nil
	case ".xml":
		return FormatXML, nil
	default:
		return "", errors.Errorf("unsupported topology file extension of %s", path)
	}
}

// Serializes the snapshot in the given format.
func Encode(snapshot *Snapshot, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buffer bytes.Buffer
		encoder := yaml.NewEncoder(&buffer)
		encoder.SetIndent(2)
		if err := encoder.Encode(snapshot); err != nil {
			return nil, errors.Wrap(err, "cannot encode the topology to YAML")
		}
		if err := encoder.Close(); err != nil {
			return nil, errors.WithStack(err)
		}
		return buffer.Bytes(), nil
	case FormatJSON:
		data, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "cannot encode the topology to JSON")
		}
		return append(data, '\n'), nil
	case FormatXML:
		data, err := xml.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "cannot encode the topology to XML")
		}
		return append(append([]byte(xml.Header), data...), '\n'), nil
	default:
		return nil, errors.Errorf("unsupported topology format %s", format)
	}
}

// Deserializes the snapshot from the given format. The JSON input may
// contain comments and trailing commas.
func Decode(data []byte, format Format) (*Snapshot, error) {
	snapshot := &Snapshot{}
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, snapshot)
	case FormatJSON:
		err = jsonc.Unmarshal(data, snapshot)
	case FormatXML:
		err = xml.Unmarshal(data, snapshot)
	default:
		return nil, errors.Errorf("unsupported topology format %s", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode the %s topology", format)
	}
	return snapshot, nil
}

// Reads the topology file. The format is selected by the extension.
func Load(path string) (*Model, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read the topology file %s", path)
	}
	snapshot, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	model, err := Import(snapshot)
	if err != nil {
		return nil, errors.WithMessagef(err, "cannot import the topology from %s", path)
	}
	return model, nil
}

// Writes the topology file. The format is selected by the extension.
func Save(model *Model, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Encode(model.Export(), format)
	if err != nil {
		return err
	}
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "cannot write the topology file %s", path)
	}
	return nil
}
