package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// WriteExample renders the default configuration as YAML so operators have a starting file
func WriteExample(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if _, err := fmt.Fprintln(w, "# Every key can be overridden with its MGMT_* environment variable."); err != nil {
		return err
	}
	if err := enc.Encode(Default()); err != nil {
		return fmt.Errorf("failed to encode example config: %w", err)
	}
	return enc.Close()
}
