package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Target is a named endpoint and the text its body must contain.
// Several targets may share a name, e.g. the http and https variants of one site.
type Target struct {
	Name     string `yaml:"name" json:"name"`
	URL      string `yaml:"url" json:"url"`
	Expected string `yaml:"expected" json:"expected"`
}

func (t Target) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required),
		validation.Field(&t.URL, validation.Required, validation.By(validateTargetURL)),
	)
}

func validateTargetURL(value interface{}) error {
	raw, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}
	if u.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}
	return nil
}

type registryFile struct {
	Targets []Target `yaml:"targets"`
}

// LoadTargets reads the ordered target registry from a YAML file.
func LoadTargets(path string) ([]Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading targets: %w", err)
	}
	return ParseTargets(data)
}

// ParseTargets decodes and validates a YAML target registry. Unknown keys are
// rejected so a misspelled "expected" does not silently match everything.
func ParseTargets(data []byte) ([]Target, error) {
	var raw registryFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing targets: %w", err)
	}

	if len(raw.Targets) == 0 {
		return nil, fmt.Errorf("at least one target must be configured")
	}

	for i, t := range raw.Targets {
		if err := t.Validate(); err != nil {
			if t.Name != "" {
				return nil, fmt.Errorf("target %q: %w", t.Name, err)
			}
			return nil, fmt.Errorf("target[%d]: %w", i, err)
		}
	}
	return raw.Targets, nil
}
