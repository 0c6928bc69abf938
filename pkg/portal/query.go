// Package portal is a typed client for the archive portal's search API:
// a small query expression language, per-result-type field vocabularies,
// request execution with bounded retry, and availability probing.
package portal

import (
	"fmt"
	"time"
)

// Operator combines two query expressions.
type Operator string

const (
	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR"

	operatorNot = "NOT"
)

// Expression is an immutable query tree node: either a Clause leaf or a
// Pair combining two subtrees. All combinators return new trees.
type Expression interface {
	fmt.Stringer

	// And combines this expression with another under AND.
	And(other Expression) Expression
	// Or combines this expression with another under OR.
	Or(other Expression) Expression
	// Negate returns a copy of this node with its negation flag flipped.
	// Negating a Pair negates the pair as a whole, not its children:
	// NOT (A AND B), never (NOT A) AND (NOT B).
	Negate() Expression

	// eachClause visits every Clause leaf in the tree.
	eachClause(fn func(Clause) error) error
}

// Clause is a single field=value condition.
type Clause struct {
	Field   string
	Value   string
	Negated bool
}

// NewClause builds a leaf condition. Supported value types are string,
// int and time.Time; dates render as YYYY-MM-DD per the portal contract.
func NewClause(field string, value any) Clause {
	var rendered string
	switch v := value.(type) {
	case string:
		rendered = v
	case int:
		rendered = fmt.Sprintf("%d", v)
	case time.Time:
		rendered = v.Format("2006-01-02")
	default:
		rendered = fmt.Sprintf("%v", v)
	}
	return Clause{Field: field, Value: rendered}
}

func (c Clause) String() string {
	if c.Negated {
		return fmt.Sprintf("%s %s=%s", operatorNot, c.Field, c.Value)
	}
	return fmt.Sprintf("%s=%s", c.Field, c.Value)
}

// And combines this clause with another expression under AND.
func (c Clause) And(other Expression) Expression {
	return Pair{Left: c, Op: OperatorAnd, Right: other}
}

// Or combines this clause with another expression under OR.
func (c Clause) Or(other Expression) Expression {
	return Pair{Left: c, Op: OperatorOr, Right: other}
}

// Negate returns a copy of the clause with its negation flag flipped.
func (c Clause) Negate() Expression {
	return Clause{Field: c.Field, Value: c.Value, Negated: !c.Negated}
}

func (c Clause) eachClause(fn func(Clause) error) error {
	return fn(c)
}

// Pair is an internal tree node combining two expressions.
type Pair struct {
	Left    Expression
	Op      Operator
	Right   Expression
	Negated bool
}

func (p Pair) String() string {
	s := fmt.Sprintf("(%s %s %s)", p.Left, p.Op, p.Right)
	if p.Negated {
		return operatorNot + " " + s
	}
	return s
}

// And combines this pair with another expression under AND.
func (p Pair) And(other Expression) Expression {
	return Pair{Left: p, Op: OperatorAnd, Right: other}
}

// Or combines this pair with another expression under OR.
func (p Pair) Or(other Expression) Expression {
	return Pair{Left: p, Op: OperatorOr, Right: other}
}

// Negate flips the pair's own negation flag, leaving children untouched.
func (p Pair) Negate() Expression {
	return Pair{Left: p.Left, Op: p.Op, Right: p.Right, Negated: !p.Negated}
}

func (p Pair) eachClause(fn func(Clause) error) error {
	if err := p.Left.eachClause(fn); err != nil {
		return err
	}
	return p.Right.eachClause(fn)
}
