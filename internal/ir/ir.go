package ir

// =============================================================================
// IR PHILOSOPHY: TRUST THE FRONT END, MATCH SHAPES HERE
// =============================================================================
//
// This package is the read-only view of what the Solidity analysis front end
// already computed: contracts, functions, modifiers, state variables and the
// per-function CFG nodes with their expression trees. Nothing in this
// repository parses Solidity or builds a CFG — the front end owns that, and
// the snapshot it exports is assumed well-formed and fully resolved (every
// identifier points at a concrete variable).
//
// If a detector needs data that isn't here, the fix is in the front end's
// export, not in clever recovery logic on this side.
// =============================================================================

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Contract is one contract from the front end's snapshot.
type Contract struct {
	// Name is the contract's declared name
	Name string

	// Address is the deployed address, if the snapshot carries one
	Address common.Address

	// IsToken marks contracts the front end classified as fungible-token-like
	IsToken bool

	// StateVariables are the contract's storage declarations
	StateVariables []*Variable

	// Functions in declaration order
	Functions []*Function
}

// HasAddress reports whether the snapshot carried a deployed address.
func (c *Contract) HasAddress() bool {
	return c.Address != (common.Address{})
}

// FunctionBySignature returns the function with the exact canonical
// signature, or nil if the contract does not declare it.
func (c *Contract) FunctionBySignature(sig string) *Function {
	for _, f := range c.Functions {
		if f.Signature == sig {
			return f
		}
	}
	return nil
}

// Function is a contract function with its modifier list and the ordered
// CFG node sequence the front end produced for its body.
type Function struct {
	Name      string
	Signature string
	Modifiers []Modifier
	Nodes     []Node
}

// HasModifier reports whether the function carries a modifier with the
// exact given name. No alias resolution: "onlyOwner" means "onlyOwner".
func (f *Function) HasModifier(name string) bool {
	for _, m := range f.Modifiers {
		if m.Name == name {
			return true
		}
	}
	return false
}

// Selector computes the 4-byte ABI selector for the function's canonical
// signature.
func (f *Function) Selector() [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(f.Signature))[:4])
	return sel
}

// Modifier is a function modifier reference. Only the name survives the
// export; modifier bodies are not analyzed.
type Modifier struct {
	Name string
}

// NodeType tags a CFG node with the statement kind the front end assigned.
type NodeType string

const (
	NodeEntry        NodeType = "ENTRY"
	NodeExpression   NodeType = "EXPRESSION"
	NodeIf           NodeType = "IF"
	NodeReturn       NodeType = "RETURN"
	NodeVariableDecl NodeType = "VARIABLE"
)

// Node is one CFG node. At most one expression tree hangs off a node;
// entry and join nodes carry none.
type Node struct {
	Type NodeType
	Expr Expr
}

// Variable is a resolved variable declaration. Composite types arrive as
// the front end's stringified signature, e.g. "mapping(address => uint256)".
type Variable struct {
	Name    string
	Type    Type
	IsState bool
}

// Type is a declared type. Name deterministically encodes composites.
type Type struct {
	Name string
}

// BinaryOp is the operator tag of a binary expression.
type BinaryOp string

const (
	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
	OpLT  BinaryOp = "<"
	OpGT  BinaryOp = ">"
	OpLE  BinaryOp = "<="
	OpGE  BinaryOp = ">="
	OpEQ  BinaryOp = "=="
	OpNE  BinaryOp = "!="
	OpAnd BinaryOp = "&&"
	OpOr  BinaryOp = "||"
)

// UnaryOp is the operator tag of a unary expression.
type UnaryOp string

const (
	OpNot UnaryOp = "!"
	OpNeg UnaryOp = "-"
)

// Expr is the closed sum of expression shapes the front end exports.
// Detectors pattern match with type switches; the sealed marker keeps the
// set of variants fixed so a new shape is a change here, not a scattered
// isinstance hunt.
type Expr interface {
	fmt.Stringer
	exprNode()
}

// CallExpr is a function or member call.
type CallExpr struct {
	Callee Expr
	Args   []Expr
}

// BinaryExpr is a binary operation.
type BinaryExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// UnaryExpr is a unary operation.
type UnaryExpr struct {
	Op      UnaryOp
	Operand Expr
}

// AssignExpr is an assignment, including compound forms already lowered by
// the front end to plain assignments over binary expressions.
type AssignExpr struct {
	Left  Expr
	Right Expr
}

// Identifier references a resolved variable. Environment members such as
// msg.value arrive as identifiers over the front end's builtin variables.
type Identifier struct {
	Var *Variable
}

// Literal is an integer literal. The front end normalizes hex and
// underscore forms before export.
type Literal struct {
	Value *big.Int
}

// TupleExpr is a parenthesized tuple.
type TupleExpr struct {
	Elems []Expr
}

func (*CallExpr) exprNode()   {}
func (*BinaryExpr) exprNode() {}
func (*UnaryExpr) exprNode()  {}
func (*AssignExpr) exprNode() {}
func (*Identifier) exprNode() {}
func (*Literal) exprNode()    {}
func (*TupleExpr) exprNode()  {}

func (e *CallExpr) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Callee.String() + "(" + strings.Join(args, ",") + ")"
}

func (e *BinaryExpr) String() string {
	return e.Left.String() + " " + string(e.Op) + " " + e.Right.String()
}

func (e *UnaryExpr) String() string {
	return string(e.Op) + e.Operand.String()
}

func (e *AssignExpr) String() string {
	return e.Left.String() + " = " + e.Right.String()
}

func (e *Identifier) String() string {
	return e.Var.Name
}

func (e *Literal) String() string {
	return e.Value.String()
}

func (e *TupleExpr) String() string {
	elems := make([]string, len(e.Elems))
	for i, el := range e.Elems {
		elems[i] = el.String()
	}
	return "(" + strings.Join(elems, ",") + ")"
}
