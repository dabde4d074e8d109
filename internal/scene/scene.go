// Package scene reads and writes YAML scene documents through the world's
// codec table.
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/l1jgo/engine/internal/core/ecs"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Version is the document version written by Encode.
const Version = 1

var (
	ErrUnsupportedVersion = errors.New("unsupported scene version")
	ErrBadParent          = errors.New("scene parent index out of range")
)

// Document is the on-disk scene layout.
type Document struct {
	Version  int      `yaml:"version"`
	Entities []Entity `yaml:"entities"`
}

// Entity is one serialized entity. Parent indexes into Document.Entities.
type Entity struct {
	Name       string               `yaml:"name,omitempty"`
	Parent     *int                 `yaml:"parent,omitempty"`
	Components map[string]yaml.Node `yaml:"components,omitempty"`
}

// Build snapshots every active entity of w into a Document. Components
// without a serialize binding are left out.
func Build(w *ecs.World) (*Document, error) {
	ids := w.Entities().Active()
	index := make(map[ecs.EntityID]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	doc := &Document{Version: Version, Entities: make([]Entity, len(ids))}
	for i, id := range ids {
		ent := w.Entities().Get(id)
		out := &doc.Entities[i]
		out.Name = ent.Name()
		if p, ok := index[ent.Parent()]; ok {
			out.Parent = &p
		}
		for _, c := range w.EncodeComponents(id) {
			var node yaml.Node
			if err := node.Encode(c.Data); err != nil {
				return nil, fmt.Errorf("encode %s of entity %d: %w", c.Name, id, err)
			}
			if out.Components == nil {
				out.Components = make(map[string]yaml.Node)
			}
			out.Components[c.Name] = node
		}
	}
	return doc, nil
}

// Encode writes w as a YAML scene document.
func Encode(w *ecs.World, dst io.Writer) error {
	doc, err := Build(w)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(dst)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}
	return enc.Close()
}

// Marshal is Encode into a byte slice.
func Marshal(w *ecs.World) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(w, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a scene document from src and instantiates its entities in w.
// It returns the new ids in document order. Components with no deserialize
// binding, or whose body fails to decode, are skipped with a warning.
func Decode(w *ecs.World, src io.Reader) ([]ecs.EntityID, error) {
	var doc Document
	if err := yaml.NewDecoder(src).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return Instantiate(w, &doc)
}

// Unmarshal is Decode from a byte slice.
func Unmarshal(w *ecs.World, data []byte) ([]ecs.EntityID, error) {
	return Decode(w, bytes.NewReader(data))
}

// Instantiate creates the entities of doc in w.
func Instantiate(w *ecs.World, doc *Document) ([]ecs.EntityID, error) {
	if doc.Version > Version {
		return nil, fmt.Errorf("scene version %d: %w", doc.Version, ErrUnsupportedVersion)
	}
	for i, e := range doc.Entities {
		if e.Parent != nil && (*e.Parent < 0 || *e.Parent >= len(doc.Entities) || *e.Parent == i) {
			return nil, fmt.Errorf("entity %d parent %d: %w", i, *e.Parent, ErrBadParent)
		}
	}

	log := w.Logger()
	ids := make([]ecs.EntityID, len(doc.Entities))
	for i := range doc.Entities {
		ids[i] = w.CreateEntity()
	}

	for i := range doc.Entities {
		e := &doc.Entities[i]
		id := ids[i]
		if e.Name != "" {
			if err := w.SetName(id, e.Name); err != nil {
				log.Warn("scene entity name dropped", zap.String("name", e.Name), zap.Error(err))
			}
		}

		names := make([]string, 0, len(e.Components))
		for name := range e.Components {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			node := e.Components[name]
			err := w.DecodeComponent(id, name, func(out any) error { return node.Decode(out) })
			if err != nil && !errors.Is(err, ecs.ErrNoCodec) {
				log.Warn("decode component failed, skipped",
					zap.Uint64("entity", uint64(id)),
					zap.String("component", name),
					zap.Error(err))
			}
		}
	}

	for i, e := range doc.Entities {
		if e.Parent == nil {
			continue
		}
		if err := w.SetParent(ids[i], ids[*e.Parent]); err != nil {
			log.Warn("scene parent dropped",
				zap.Int("entity", i),
				zap.Int("parent", *e.Parent),
				zap.Error(err))
		}
	}
	return ids, nil
}

// SaveFile writes w to path, replacing any existing file.
func SaveFile(w *ecs.World, path string) error {
	data, err := Marshal(w)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save scene: %w", err)
	}
	return nil
}

// LoadFile reads the scene at path into w.
func LoadFile(w *ecs.World, path string) ([]ecs.EntityID, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	defer f.Close()
	return Decode(w, f)
}
