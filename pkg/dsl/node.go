package dsl

import "github.com/aretw0/arbor/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node     domain.Node
	children []*NodeBuilder
}

// New starts a node of the given kind.
func New(kind domain.Kind) *NodeBuilder {
	return &NodeBuilder{node: domain.Node{Kind: kind}}
}

// Boundary starts an explicit boundary marker node.
func Boundary() *NodeBuilder {
	return New(domain.KindBoundary)
}

// Text starts a "text" node with a content prop.
func Text(content string) *NodeBuilder {
	return New("text").Prop("content", content)
}

// Key sets the author key of the node.
func (n *NodeBuilder) Key(key string) *NodeBuilder {
	n.node.Key = key
	return n
}

// Prop sets a single prop.
func (n *NodeBuilder) Prop(name string, value any) *NodeBuilder {
	if n.node.Props == nil {
		n.node.Props = make(domain.Props)
	}
	n.node.Props[name] = value
	return n
}

// Props merges the given props.
func (n *NodeBuilder) Props(props domain.Props) *NodeBuilder {
	for name, v := range props {
		n.Prop(name, v)
	}
	return n
}

// Child appends children in order.
func (n *NodeBuilder) Child(children ...*NodeBuilder) *NodeBuilder {
	n.children = append(n.children, children...)
	return n
}

// Build returns a fresh domain.Node tree. Each call builds new node values but
// shares prop values, which keeps composite props reference-stable across builds.
func (n *NodeBuilder) Build() *domain.Node {
	node := n.node
	if n.node.Props != nil {
		node.Props = make(domain.Props, len(n.node.Props))
		for k, v := range n.node.Props {
			node.Props[k] = v
		}
	}
	node.Children = nil
	for _, c := range n.children {
		node.Children = append(node.Children, c.Build())
	}
	return &node
}
