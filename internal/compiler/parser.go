package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Document is a tree file: the tree to render and, optionally, the prop
// schema of its kinds. A file holding a bare node is a Document without schema.
type Document struct {
	Schema schema.Registry `yaml:"schema,omitempty" json:"schema,omitempty"`
	Tree   *domain.Node    `yaml:"tree" json:"tree"`
}

// Parser is responsible for converting raw bytes into tree documents.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes a single document. YAML is a superset of JSON, so both work.
func (p *Parser) Parse(data []byte) (*Document, error) {
	docs, err := p.ParseStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	switch len(docs) {
	case 0:
		return nil, errors.New("empty document")
	case 1:
		return docs[0], nil
	default:
		return nil, fmt.Errorf("expected one document, found %d", len(docs))
	}
}

// ParseStream decodes every document of a YAML stream ("---" separated), in
// order. Each one is a successive render of the same page.
func (p *Parser) ParseStream(r io.Reader) ([]*Document, error) {
	dec := yaml.NewDecoder(r)
	var docs []*Document
	for i := 0; ; i++ {
		var raw yaml.Node
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		doc, err := decode(&raw)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
}

// ParseFile reads and decodes a single document from path.
func (p *Parser) ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ParseTree decodes a bare node or a document and returns its tree.
func (p *Parser) ParseTree(data []byte) (*domain.Node, error) {
	doc, err := p.Parse(data)
	if err != nil {
		return nil, err
	}
	return doc.Tree, nil
}

func decode(raw *yaml.Node) (*Document, error) {
	content := raw
	if raw.Kind == yaml.DocumentNode && len(raw.Content) > 0 {
		content = raw.Content[0]
	}
	if content.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", content.Line)
	}

	var doc Document
	if hasKey(content, "tree") {
		if err := content.Decode(&doc); err != nil {
			return nil, err
		}
	} else {
		var n domain.Node
		if err := content.Decode(&n); err != nil {
			return nil, err
		}
		doc.Tree = &n
	}
	if err := checkKinds(doc.Tree); err != nil {
		return nil, err
	}
	return &doc, nil
}

func hasKey(m *yaml.Node, key string) bool {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return true
		}
	}
	return false
}

// checkKinds rejects nodes without a kind and null children.
func checkKinds(root *domain.Node) error {
	if root == nil {
		return nil
	}
	var err error
	var visit func(p domain.Path, n *domain.Node)
	visit = func(p domain.Path, n *domain.Node) {
		if err != nil {
			return
		}
		if n.Kind == "" {
			err = fmt.Errorf("node at %q has no kind", p.String())
			return
		}
		for i, c := range n.Children {
			if c == nil {
				err = fmt.Errorf("null child at %q", p.Child(i).String())
				return
			}
			visit(p.Child(i), c)
		}
	}
	visit(domain.Root, root)
	return err
}
