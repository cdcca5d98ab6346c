package registry

import (
	"bytes"
	"encoding/json"
	"regexp"

	"github.com/alnah/go-mdpp/internal/yamlutil"
)

var (
	// Frameworks cannot contain underscores: the first underscore of a
	// canonical directive name separates framework from component.
	frameworkName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)
	componentName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
)

// ParseManifest decodes and validates a JSON plugin manifest.
func ParseManifest(data []byte) (*PluginDefinition, error) {
	var def PluginDefinition
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&def); err != nil {
		return nil, newDecodeError(err)
	}
	if err := Validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// ParseManifestYAML decodes and validates a YAML plugin manifest.
func ParseManifestYAML(data []byte) (*PluginDefinition, error) {
	var def PluginDefinition
	if err := yamlutil.Unmarshal(data, &def); err != nil {
		return nil, newDecodeError(err)
	}
	if err := Validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks the fields a manifest must carry.
func Validate(def *PluginDefinition) error {
	if def == nil {
		return newManifestError(ErrMsgNilPlugin, "", "")
	}
	if def.Framework == "" {
		return newManifestError(ErrMsgMissing, "framework", "")
	}
	if !frameworkName.MatchString(def.Framework) {
		return newManifestError(ErrMsgInvalidName, "framework", def.Framework)
	}
	if def.Components == nil {
		return newManifestError(ErrMsgMissing, "components", def.Framework)
	}
	for name := range def.Components {
		if !componentName.MatchString(name) {
			return newManifestError(ErrMsgInvalidName, "components."+name, def.Framework)
		}
	}
	return nil
}
