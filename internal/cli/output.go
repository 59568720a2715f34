package cli

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"sigs.k8s.io/yaml"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// printValue writes v as indented JSON or as YAML; YAML keys follow the json tags.
func printValue(w io.Writer, format string, v any) error {
	var (
		out []byte
		err error
	)
	switch format {
	case outputJSON:
		out, err = jsoniter.MarshalIndent(v, "", "  ")
		out = append(out, '\n')
	case outputYAML:
		out, err = yaml.Marshal(v)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
