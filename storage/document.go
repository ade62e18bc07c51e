package storage

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is a metadata file held as a yaml node tree rather than a plain
// value tree. Comments and key order ride along on the nodes, so a file
// that is read, edited and written back keeps its surrounding comments
// intact. This is the round-trip contract the metadata format guarantees.
type Document struct {
	root *yaml.Node
}

// NewDocument creates an empty mapping document.
func NewDocument() *Document {
	return &Document{
		root: &yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{
				{Kind: yaml.MappingNode, Tag: "!!map"},
			},
		},
	}
}

// ParseDocument parses a metadata file, retaining comments.
func ParseDocument(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing metadata document: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return NewDocument(), nil
	}
	return &Document{root: &root}, nil
}

// DocumentFrom builds a document from a plain value, typically a metadata
// struct about to be written for the first time.
func DocumentFrom(value any) (*Document, error) {
	node := &yaml.Node{}
	if err := node.Encode(value); err != nil {
		return nil, fmt.Errorf("encoding metadata document: %w", err)
	}
	return &Document{
		root: &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{node}},
	}, nil
}

func (d *Document) mapping() *yaml.Node {
	return d.root.Content[0]
}

// Decode unmarshals the document into a value.
func (d *Document) Decode(out any) error {
	return d.mapping().Decode(out)
}

// Get returns the value node for a top-level key.
func (d *Document) Get(key string) (*yaml.Node, bool) {
	m := d.mapping()
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1], true
		}
	}
	return nil, false
}

// GetString returns a top-level scalar value.
func (d *Document) GetString(key string) (string, bool) {
	node, ok := d.Get(key)
	if !ok || node.Kind != yaml.ScalarNode {
		return "", false
	}
	return node.Value, true
}

// Set encodes a value under a top-level key, replacing an existing entry
// in place (keeping its position and comments) or appending a new one.
func (d *Document) Set(key string, value any) error {
	newNode := &yaml.Node{}
	if err := newNode.Encode(value); err != nil {
		return fmt.Errorf("encoding value for %q: %w", key, err)
	}
	m := d.mapping()
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			mergeNode(m.Content[i+1], newNode)
			return nil
		}
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		newNode,
	)
	return nil
}

// Update overlays the encoding of value onto the document, key by key.
// Existing entries keep their comments; keys absent from value are left
// untouched.
func (d *Document) Update(value any) error {
	node := &yaml.Node{}
	if err := node.Encode(value); err != nil {
		return fmt.Errorf("encoding metadata update: %w", err)
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("metadata update must encode to a mapping, got %v", node.Kind)
	}
	mergeNode(d.mapping(), node)
	return nil
}

// Marshal serializes the document, comments included.
func (d *Document) Marshal() ([]byte, error) {
	return yaml.Marshal(d.root)
}

// mergeNode replaces dst's value with src's while keeping dst's attached
// comments. Mappings are merged key-wise so nested comments survive too;
// any other kind change swaps the content wholesale.
func mergeNode(dst, src *yaml.Node) {
	if dst.Kind == yaml.MappingNode && src.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(src.Content); i += 2 {
			key := src.Content[i].Value
			merged := false
			for j := 0; j+1 < len(dst.Content); j += 2 {
				if dst.Content[j].Value == key {
					mergeNode(dst.Content[j+1], src.Content[i+1])
					merged = true
					break
				}
			}
			if !merged {
				dst.Content = append(dst.Content, src.Content[i], src.Content[i+1])
			}
		}
		return
	}

	head, line, foot := dst.HeadComment, dst.LineComment, dst.FootComment
	*dst = *src
	dst.HeadComment, dst.LineComment, dst.FootComment = head, line, foot
}
