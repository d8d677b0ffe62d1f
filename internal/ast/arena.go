// Package ast implements the arena-backed abstract syntax tree: nodes are
// inserted into parallel payload/tag/site vectors and referred to by typed,
// 64-bit packed identities rather than pointers (spec.md §3.3).
package ast

import "github.com/kyouko-taiga/dyva/internal/source"

// Arena owns every node belonging to one module. Offsets are stable for the
// arena's lifetime: nodes are appended, never removed or reordered, so an
// identity computed during parsing stays valid through scoping, lowering,
// and analysis.
type Arena struct {
	module ModuleIndex

	nodes []any
	tags  []NodeKind
	sites []source.Span

	// parent maps a node offset to the identity of its innermost enclosing
	// scope. It is unset (InvalidNodeID) until the scoper runs.
	parent []NodeID

	// scopeToDeclarations maps a scope identity (ModuleScopeID(module) or any
	// node tagged catScope) to the declarations directly nested in it, in
	// source order. Filled by the scoper.
	scopeToDeclarations map[NodeID][]NodeID

	// roots holds the module's top-level statements, in source order.
	roots []StatementID

	// imports holds the module's top-level import declarations, in source
	// order, distinct from roots since imports are not executable
	// statements (spec.md §4.9).
	imports []DeclarationID
}

// NewArena creates an empty arena for the given module index.
func NewArena(module ModuleIndex) *Arena {
	return &Arena{
		module:              module,
		parent:              nil,
		scopeToDeclarations: make(map[NodeID][]NodeID),
	}
}

// Module returns the module index this arena belongs to.
func (a *Arena) Module() ModuleIndex { return a.module }

// ModuleScope returns the identity denoting this arena's module as a scope.
func (a *Arena) ModuleScope() NodeID { return ModuleScopeID(a.module) }

// Len reports how many nodes the arena holds.
func (a *Arena) Len() int { return len(a.nodes) }

// Insert records a new node's payload, kind, and source span, returning its
// freshly assigned identity.
func (a *Arena) Insert(kind NodeKind, site source.Span, payload any) NodeID {
	offset := uint32(len(a.nodes))
	a.nodes = append(a.nodes, payload)
	a.tags = append(a.tags, kind)
	a.sites = append(a.sites, site)
	a.parent = append(a.parent, InvalidNodeID)
	return MakeNodeID(a.module, offset)
}

// SetRoots records the module's top-level statements and import
// declarations, in source order (called once by the parser after it
// finishes a file).
func (a *Arena) SetRoots(imports []DeclarationID, statements []StatementID) {
	a.imports = imports
	a.roots = statements
}

// Roots returns the module's top-level statements.
func (a *Arena) Roots() []StatementID { return append([]StatementID(nil), a.roots...) }

// Imports returns the module's top-level import declarations.
func (a *Arena) Imports() []DeclarationID { return append([]DeclarationID(nil), a.imports...) }

// Tag returns the node kind stored at id, and false if id does not belong
// to this arena or is out of range.
func (a *Arena) Tag(id NodeID) (NodeKind, bool) {
	if id.Module() != a.module {
		return 0, false
	}
	idx := id.Offset()
	if int(idx) >= len(a.tags) {
		return 0, false
	}
	return a.tags[idx], true
}

// Payload returns the raw payload stored at id. Callers that know id's kind
// should use the typed Get helper instead.
func (a *Arena) Payload(id NodeID) any {
	idx := id.Offset()
	return a.nodes[idx]
}

// Site returns the source span covering id (spec.md §3.3: "every node
// carries a site covering its source span").
func (a *Arena) Site(id NodeID) source.Span {
	idx := id.Offset()
	return a.sites[idx]
}

// SetParent records scope as id's innermost enclosing scope. Called by the
// scoper.
func (a *Arena) SetParent(id NodeID, scope NodeID) {
	a.parent[id.Offset()] = scope
}

// Parent returns id's innermost enclosing scope, or (InvalidNodeID, false)
// if the scoper has not run (or id is the module root).
func (a *Arena) Parent(id NodeID) (NodeID, bool) {
	if id.IsModuleScope() {
		return InvalidNodeID, false
	}
	p := a.parent[id.Offset()]
	return p, p != InvalidNodeID
}

// AddScopedDeclaration records that decl is directly nested in scope.
// Called by the scoper in source order.
func (a *Arena) AddScopedDeclaration(scope NodeID, decl NodeID) {
	a.scopeToDeclarations[scope] = append(a.scopeToDeclarations[scope], decl)
}

// Declarations returns the declarations directly nested in scope, in
// source order.
func (a *Arena) Declarations(scope NodeID) []NodeID {
	return append([]NodeID(nil), a.scopeToDeclarations[scope]...)
}

func has(bits, required categoryBits) bool { return bits&required == required }

// categoryOf looks up the category bitset of id's tag, within this arena.
func (a *Arena) categoryOf(id NodeID) (categoryBits, bool) {
	kind, ok := a.Tag(id)
	if !ok {
		return 0, false
	}
	return kindCategories[kind], true
}

// Cast validates that id belongs to this arena and that its tag carries at
// least one of category C's bits, returning a typed ID[C] on success. This is
// the generic form of castToDeclaration/castToExpression/castToPattern/
// castToStatement/castToScope (spec.md §4.3).
func Cast[C categoryMarker](a *Arena, id NodeID) (ID[C], bool) {
	bits, ok := a.categoryOf(id)
	if !ok {
		return Invalid[C](), false
	}
	var zero C
	if bits&zero.bits() == 0 {
		return Invalid[C](), false
	}
	return ID[C]{raw: id}, true
}

// CastKind validates that id belongs to this arena and is tagged exactly
// kind, returning id unchanged on success. Used for per-node-kind
// identities (e.g. "this DeclarationID is specifically a
// KindFunctionDeclaration") where a category check alone is not precise
// enough.
func (a *Arena) CastKind(id NodeID, kind NodeKind) (NodeID, bool) {
	tag, ok := a.Tag(id)
	if !ok || tag != kind {
		return InvalidNodeID, false
	}
	return id, true
}

// Get type-asserts the payload at id to *T, reporting false if id is out of
// range or the payload is not a T. Callers typically already know id's kind
// from Tag or from the static field type that produced the identity.
func Get[T any](a *Arena, id NodeID) (*T, bool) {
	if id.Module() != a.module {
		return nil, false
	}
	idx := id.Offset()
	if int(idx) >= len(a.nodes) {
		return nil, false
	}
	v, ok := a.nodes[idx].(*T)
	return v, ok
}

// MustGet is like Get but panics if id's payload is not a T; used where the
// caller has already checked Tag and an assertion failure would indicate an
// arena corruption bug rather than a recoverable condition.
func MustGet[T any](a *Arena, id NodeID) *T {
	v, ok := Get[T](a, id)
	if !ok {
		panic("ast: node payload type mismatch")
	}
	return v
}

// Labels returns the argument labels of fn's parameters, in declaration
// order, with "" standing for an unlabeled parameter (spec.md §3.3,
// "labels(of: function)"). fn must be tagged KindFunctionDeclaration.
func (a *Arena) Labels(fn NodeID) []string {
	decl := MustGet[FunctionDeclaration](a, fn)
	labels := make([]string, len(decl.Parameters))
	for i, p := range decl.Parameters {
		param := MustGet[ParameterDeclaration](a, p)
		labels[i] = param.Label
	}
	return labels
}

// IsScope reports whether id is tagged as a scope (spec.md §3.3).
func (a *Arena) IsScope(id NodeID) bool {
	bits, ok := a.categoryOf(id)
	return ok && has(bits, catScope)
}
