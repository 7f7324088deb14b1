package binder

import (
	"context"
	"log/slog"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Collector walks a Python syntax tree and accumulates the names bound at
// module level. Function and class bodies are opaque: only the defined name
// escapes. Branches are treated as always taken and events are applied in
// source order, so the last event for a name wins.
type Collector struct {
	logger   *slog.Logger
	observer func(Event)
}

type Option func(*Collector)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

// WithObserver registers fn to receive every binding and deletion event in
// traversal order.
func WithObserver(fn func(Event)) Option {
	return func(c *Collector) {
		c.observer = fn
	}
}

func NewCollector(opts ...Option) *Collector {
	c := &Collector{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect runs one traversal over root and returns its accumulator. Each call
// owns a fresh NameSet, so a Collector may be reused sequentially.
func (c *Collector) Collect(root *sitter.Node, source []byte) NameSet {
	names := make(NameSet)
	c.visit(root, source, names)
	return names
}

func (c *Collector) visit(node *sitter.Node, src []byte, names NameSet) {
	if node == nil {
		return
	}

	switch node.Kind() {
	case "import_statement", "import_from_statement", "future_import_statement":
		c.bindImports(node, src, names)
	case "function_definition":
		c.bindDefinition(node, src, names, EventFunction)
	case "class_definition":
		c.bindDefinition(node, src, names, EventClass)
	case "decorated_definition":
		// Decorator expressions belong to the definition and stay opaque.
		c.visit(node.ChildByFieldName("definition"), src, names)
	case "assignment", "augmented_assignment", "for_statement", "for_in_clause":
		c.visitWithTarget(node, node.ChildByFieldName("left"), src, names)
	case "named_expression":
		c.visitWithTarget(node, node.ChildByFieldName("name"), src, names)
	case "type_alias_statement":
		c.visitWithTarget(node, firstIdentifier(node.ChildByFieldName("left")), src, names)
	case "with_item":
		c.visitWithItem(node, src, names)
	case "delete_statement":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			c.deleteTargets(node.NamedChild(i), src, names)
		}
	case "identifier":
		// Load reference.
	default:
		c.visitChildren(node, src, names)
	}
}

func (c *Collector) visitChildren(node *sitter.Node, src []byte, names NameSet) {
	for i := uint(0); i < node.ChildCount(); i++ {
		c.visit(node.Child(i), src, names)
	}
}

// visitWithTarget binds target and visits every other child of node. Target
// fields precede the rest of their statement in source order.
func (c *Collector) visitWithTarget(node, target *sitter.Node, src []byte, names NameSet) {
	if target == nil {
		c.visitChildren(node, src, names)
		return
	}
	c.bindTargets(target, src, names)
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if sameNode(child, target) {
			continue
		}
		c.visit(child, src, names)
	}
}

func (c *Collector) bindTargets(node *sitter.Node, src []byte, names NameSet) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "identifier":
		c.apply(EventStore, text(node, src), node, names)
	case "pattern_list", "tuple_pattern", "list_pattern", "list_splat_pattern",
		"expression_list", "tuple", "list", "list_splat", "parenthesized_expression":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			c.bindTargets(node.NamedChild(i), src, names)
		}
	case "as_pattern_target":
		if node.NamedChildCount() == 0 {
			c.apply(EventStore, text(node, src), node, names)
			return
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			c.bindTargets(node.NamedChild(i), src, names)
		}
	default:
		// Attribute and subscript targets mutate an object, not a name.
		c.visit(node, src, names)
	}
}

func (c *Collector) visitWithItem(node *sitter.Node, src []byte, names NameSet) {
	alias := node.ChildByFieldName("alias")
	if alias != nil {
		c.bindTargets(alias, src, names)
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if alias != nil && sameNode(child, alias) {
			continue
		}
		c.visitWithValue(child, src, names)
	}
}

// visitWithValue binds the `as` targets of a with item, including items
// grouped inside parentheses.
func (c *Collector) visitWithValue(node *sitter.Node, src []byte, names NameSet) {
	switch node.Kind() {
	case "as_pattern":
		alias := node.ChildByFieldName("alias")
		if alias == nil {
			alias = childOfKind(node, "as_pattern_target")
		}
		c.visitWithTarget(node, alias, src, names)
	case "tuple", "parenthesized_expression":
		for i := uint(0); i < node.ChildCount(); i++ {
			c.visitWithValue(node.Child(i), src, names)
		}
	default:
		c.visit(node, src, names)
	}
}

func (c *Collector) deleteTargets(node *sitter.Node, src []byte, names NameSet) {
	switch node.Kind() {
	case "identifier":
		c.apply(EventDelete, text(node, src), node, names)
	case "expression_list", "tuple", "list", "parenthesized_expression",
		"pattern_list", "tuple_pattern", "list_pattern":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			c.deleteTargets(node.NamedChild(i), src, names)
		}
	default:
		c.visit(node, src, names)
	}
}

func (c *Collector) bindImports(node *sitter.Node, src []byte, names NameSet) {
	// Names before the `import` keyword are the source module.
	sawImport := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "import":
			sawImport = true
		case "dotted_name":
			if sawImport {
				c.apply(EventImport, dottedName(child, src), child, names)
			}
		case "aliased_import":
			if alias := child.ChildByFieldName("alias"); alias != nil {
				c.apply(EventImport, text(alias, src), child, names)
			} else if name := child.ChildByFieldName("name"); name != nil {
				c.apply(EventImport, dottedName(name, src), child, names)
			}
		case "wildcard_import":
			c.apply(EventImport, "*", child, names)
		}
	}
}

func (c *Collector) bindDefinition(node *sitter.Node, src []byte, names NameSet, kind EventKind) {
	name := node.ChildByFieldName("name")
	if name == nil {
		return
	}
	c.apply(kind, text(name, src), node, names)
}

func (c *Collector) apply(kind EventKind, name string, node *sitter.Node, names NameSet) {
	if name == "" {
		return
	}
	ev := Event{Kind: kind, Name: name, Line: int(node.StartPosition().Row) + 1}
	if kind.Binds() {
		names.Add(name)
	} else {
		names.Remove(name)
	}

	if c.logger != nil && c.logger.Enabled(context.Background(), slog.LevelDebug) {
		c.logger.Debug("name event", "kind", ev.Kind.String(), "name", ev.Name, "line", ev.Line)
	}
	if c.observer != nil {
		c.observer(ev)
	}
}

func text(node *sitter.Node, src []byte) string {
	return string(src[node.StartByte():node.EndByte()])
}

// dottedName joins the identifiers of a dotted_name, dropping any whitespace
// or comments between the parts.
func dottedName(node *sitter.Node, src []byte) string {
	if node.Kind() != "dotted_name" {
		return text(node, src)
	}
	parts := make([]string, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() == "identifier" {
			parts = append(parts, text(child, src))
		}
	}
	if len(parts) == 0 {
		return text(node, src)
	}
	return strings.Join(parts, ".")
}

func firstIdentifier(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Kind() == "identifier" {
		return node
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if found := firstIdentifier(node.NamedChild(i)); found != nil {
			return found
		}
	}
	return nil
}

func childOfKind(node *sitter.Node, kind string) *sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child.Kind() == kind {
			return child
		}
	}
	return nil
}

// sameNode compares by kind and span; siblings never share both.
func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Kind() == b.Kind() && a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}
