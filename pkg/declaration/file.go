package declaration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format names a declaration file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unsupported declaration file %q: expected .yaml, .json or .toml", path)
}

// LoadFile reads a declaration tree from path.
func LoadFile(path string) (*domain.Declaration, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read declaration file: %w", err)
	}
	decl, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return decl, nil
}

// Parse decodes a declaration document in the given format.
func Parse(data []byte, format Format) (*domain.Declaration, error) {
	var raw map[string]any
	var order *yaml.Node

	switch format {
	case FormatYAML:
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
		if len(doc.Content) == 0 {
			return nil, fmt.Errorf("empty declaration document")
		}
		if err := doc.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
		order = doc.Content[0]
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse json: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported declaration format %q", format)
	}

	decl, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	applyYAMLOrder(order, decl)
	return decl, nil
}

// Decode maps a generic document onto a declaration. Unknown keys are
// rejected; a single default action may be written as a plain string.
func Decode(raw map[string]any) (*domain.Declaration, error) {
	if raw == nil {
		return nil, fmt.Errorf("empty declaration document")
	}
	var decl domain.Declaration
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &decl,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode declaration: %w", err)
	}
	return &decl, nil
}

// applyYAMLOrder records the order child-type groups appear in the YAML
// source, unless the declaration spells out child_order itself.
func applyYAMLOrder(n *yaml.Node, decl *domain.Declaration) {
	if n == nil || decl == nil || n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value != "children" {
			continue
		}
		groups := n.Content[i+1]
		if groups.Kind != yaml.MappingNode {
			return
		}

		var order []string
		for j := 0; j+1 < len(groups.Content); j += 2 {
			typ := groups.Content[j].Value
			order = append(order, typ)
			children := decl.Children[typ]

			items := groups.Content[j+1]
			switch items.Kind {
			case yaml.SequenceNode:
				for k, item := range items.Content {
					if k < len(children) {
						applyYAMLOrder(item, children[k])
					}
				}
			case yaml.MappingNode:
				if len(children) > 0 {
					applyYAMLOrder(items, children[0])
				}
			}
		}
		if len(decl.ChildOrder) == 0 {
			decl.ChildOrder = order
		}
	}
}

// FileLoader implements ports.DeclarationLoader over a declaration file.
type FileLoader struct {
	Path string
}

var _ ports.DeclarationLoader = (*FileLoader)(nil)

// NewFileLoader creates a loader reading path on every Load.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{Path: path}
}

// Load reads and decodes the file.
func (l *FileLoader) Load(ctx context.Context) (*domain.Declaration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadFile(l.Path)
}
