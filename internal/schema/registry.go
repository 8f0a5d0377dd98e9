// Package schema holds the required-field knowledge base for every
// source-of-wealth type. The registry is embedded at build time and
// treated as a closed set: asking for an unknown type is a programming
// error, not a recoverable condition.
package schema

import (
	_ "embed"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/clearline-kyc/sow-cli/internal/model"
)

//go:embed requirements.yaml
var requirementsYAML []byte

// FieldSpec describes one required field of a source type.
type FieldSpec struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Examples    []string `yaml:"examples"`
}

// TypeSpec is the requirement set for one source type.
type TypeSpec struct {
	DisplayName    string      `yaml:"display_name"`
	RequiredFields []FieldSpec `yaml:"required_fields"`
}

type registryFile struct {
	Types map[string]TypeSpec `yaml:"source_of_wealth_types"`
}

// Registry answers which fields a compliant record of each source type
// must carry. All methods are safe for concurrent use after Load.
type Registry struct {
	types map[model.SourceType]TypeSpec
}

var (
	loadOnce sync.Once
	loaded   *Registry
	loadErr  error
)

// Load parses the embedded requirements file. The result is cached, so
// repeated calls are cheap.
func Load() (*Registry, error) {
	loadOnce.Do(func() {
		loaded, loadErr = parse(requirementsYAML)
	})
	return loaded, loadErr
}

func parse(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrap(err, "schema: parse requirements")
	}
	types := make(map[model.SourceType]TypeSpec, len(file.Types))
	for key, spec := range file.Types {
		st := model.SourceType(key)
		if !st.Valid() {
			return nil, eris.Errorf("schema: requirements file names unknown source type %q", key)
		}
		if len(spec.RequiredFields) == 0 {
			return nil, eris.Errorf("schema: source type %q has no required fields", key)
		}
		types[st] = spec
	}
	for _, st := range model.AllSourceTypes() {
		if _, ok := types[st]; !ok {
			return nil, eris.Errorf("schema: requirements file missing source type %q", st)
		}
	}
	return &Registry{types: types}, nil
}

// RequiredFields returns the ordered requirement set for t. An unknown
// type indicates a bug and returns an error the caller should treat as
// fatal.
func (r *Registry) RequiredFields(t model.SourceType) ([]FieldSpec, error) {
	spec, ok := r.types[t]
	if !ok {
		return nil, eris.Errorf("schema: unknown source type %q", t)
	}
	return spec.RequiredFields, nil
}

// FieldNames returns just the names of t's required fields, in
// registry order.
func (r *Registry) FieldNames(t model.SourceType) ([]string, error) {
	fields, err := r.RequiredFields(t)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names, nil
}

// DisplayName returns the human-readable label for t, falling back to
// the type's own derived name when the registry has none.
func (r *Registry) DisplayName(t model.SourceType) string {
	if spec, ok := r.types[t]; ok && spec.DisplayName != "" {
		return spec.DisplayName
	}
	return t.DisplayName()
}

// SourceTypes returns every type the registry covers, in the canonical
// dispatch order.
func (r *Registry) SourceTypes() []model.SourceType {
	return model.AllSourceTypes()
}
