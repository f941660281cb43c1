package frame

// Kind tags an Expr node.
type Kind int

const (
	KindColumn Kind = iota
	KindLiteral
	KindComparison
	KindAnd
	KindOr
	KindIsNull
	KindIsNotNull
	KindIn
	KindConst
)

// CompareOp mirrors filter.Op without importing the filter package (frame
// has no dependency on filter; filter/frame.go is the one-way bridge).
type CompareOp int

const (
	OpEq CompareOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// Expr is a chainable expression node: Col("age").Gt(Lit(30)).
type Expr struct {
	kind     Kind
	name     string // KindColumn
	value    any    // KindLiteral
	op       CompareOp
	operand  *Expr   // KindComparison/IsNull/IsNotNull/In: the column-valued side
	rhs      *Expr   // KindComparison: the literal/expr side
	children []*Expr // KindAnd/KindOr
	options  []*Expr // KindIn
	constVal bool    // KindConst
	alias    string
}

// Col references a column by name.
func Col(name string) *Expr { return &Expr{kind: KindColumn, name: name} }

// Lit wraps a literal value.
func Lit(v any) *Expr { return &Expr{kind: KindLiteral, value: v} }

// ConstBool builds a constant boolean expression, used for vacuous
// conjunctions/disjunctions and for Dynamic/Optional filter nodes that are
// treated as always-true.
func ConstBool(v bool) *Expr { return &Expr{kind: KindConst, constVal: v} }

func (e *Expr) cmp(op CompareOp, other *Expr) *Expr {
	return &Expr{kind: KindComparison, op: op, operand: e, rhs: other}
}

func (e *Expr) Eq(other *Expr) *Expr { return e.cmp(OpEq, other) }
func (e *Expr) Ne(other *Expr) *Expr { return e.cmp(OpNe, other) }
func (e *Expr) Lt(other *Expr) *Expr { return e.cmp(OpLt, other) }
func (e *Expr) Le(other *Expr) *Expr { return e.cmp(OpLe, other) }
func (e *Expr) Gt(other *Expr) *Expr { return e.cmp(OpGt, other) }
func (e *Expr) Ge(other *Expr) *Expr { return e.cmp(OpGe, other) }

func (e *Expr) IsNull() *Expr    { return &Expr{kind: KindIsNull, operand: e} }
func (e *Expr) IsNotNull() *Expr { return &Expr{kind: KindIsNotNull, operand: e} }

// In builds a membership test: e.In(Lit(1), Lit(2), Lit(3)).
func (e *Expr) In(options ...*Expr) *Expr {
	return &Expr{kind: KindIn, operand: e, options: options}
}

// And combines expressions with logical AND. An empty call is the constant
// true.
func And(children ...*Expr) *Expr { return &Expr{kind: KindAnd, children: children} }

// Or combines expressions with logical OR. An empty call is the constant
// false.
func Or(children ...*Expr) *Expr { return &Expr{kind: KindOr, children: children} }

// Alias tags the expression with an output name (used for derived/computed
// column projection; unused by filter predicates but kept for parity with
// the builder idiom this package is modeled on).
func (e *Expr) Alias(name string) *Expr {
	cp := *e
	cp.alias = name
	return &cp
}
