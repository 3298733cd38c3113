package spectrumio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/himanishpuri/fluxline/pkg/models"
	"github.com/himanishpuri/fluxline/pkg/utils"
	"gopkg.in/yaml.v3"
)

const ecsvSchema = "astropy-2.0"

type ecsvColumn struct {
	Name     string
	Datatype string
}

// MarshalYAML renders a column as a flow mapping, the way astropy writes it.
func (c ecsvColumn) MarshalYAML() (any, error) {
	return &yaml.Node{
		Kind:  yaml.MappingNode,
		Style: yaml.FlowStyle,
		Content: []*yaml.Node{
			scalar("name"), scalar(c.Name),
			scalar("datatype"), scalar(c.Datatype),
		},
	}, nil
}

type ecsvHeader struct {
	Datatype []ecsvColumn `yaml:"datatype"`
	Meta     *yaml.Node   `yaml:"meta,omitempty"`
	Schema   string       `yaml:"schema"`
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
}

// metaNode keeps the header cards in order; a Go map would sort them.
func metaNode(meta models.RunMetadata) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, card := range HeaderCards(meta) {
		var v yaml.Node
		if err := v.Encode(card.Value); err != nil {
			return nil, fmt.Errorf("encoding %s: %w", card.Key, err)
		}
		n.Content = append(n.Content, scalar(card.Key), &v)
	}
	return n, nil
}

var fluxColumns = []ecsvColumn{
	{"Ion", "string"},
	{"Wavelength", "float64"},
	{"Flux", "float64"},
	{"Error", "float64"},
	{"Blended line", "bool"},
}

func pythonBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// WriteECSV writes records as an astropy ECSV 1.0 table with the run
// metadata in the YAML header.
func WriteECSV(w io.Writer, meta models.RunMetadata, records []models.FluxRecord) error {
	m, err := metaNode(meta)
	if err != nil {
		return err
	}

	var hdr bytes.Buffer
	enc := yaml.NewEncoder(&hdr)
	enc.SetIndent(2)
	if err := enc.Encode(ecsvHeader{Datatype: fluxColumns, Meta: m, Schema: ecsvSchema}); err != nil {
		return fmt.Errorf("encoding ecsv header: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding ecsv header: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("# %ECSV 1.0\n# ---\n")
	for _, line := range strings.Split(strings.TrimRight(hdr.String(), "\n"), "\n") {
		out.WriteString("# " + line + "\n")
	}

	cw := csv.NewWriter(&out)
	cw.Comma = ' '
	names := make([]string, len(fluxColumns))
	for i, c := range fluxColumns {
		names[i] = c.Name
	}
	if err := cw.Write(names); err != nil {
		return fmt.Errorf("writing ecsv columns: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Ion,
			formatFloat(r.Wavelength),
			formatFloat(r.Flux),
			formatFloat(r.Error),
			pythonBool(r.Blended),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing ecsv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing ecsv rows: %w", err)
	}

	_, err = w.Write(out.Bytes())
	return err
}

// WriteECSVFile writes the table to path atomically.
func WriteECSVFile(path string, meta models.RunMetadata, records []models.FluxRecord) error {
	var buf bytes.Buffer
	if err := WriteECSV(&buf, meta, records); err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, buf.Bytes())
}
