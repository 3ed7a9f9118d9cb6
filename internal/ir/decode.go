package ir

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Snapshot is one decoded front-end export: the full contract set of a
// single analysis run. Snapshots are immutable once decoded.
type Snapshot struct {
	Version   int
	Contracts []*Contract
}

// SnapshotVersion is the export format version this decoder understands.
const SnapshotVersion = 1

// Raw wire types for the front end's compact JSON export. Expressions are
// a tagged union on the "nodeType" discriminator, the same scheme solc
// uses for its compact AST JSON.
type rawSnapshot struct {
	Version   int           `json:"version"`
	Contracts []rawContract `json:"contracts"`
}

type rawContract struct {
	Name           string        `json:"name"`
	Address        string        `json:"address,omitempty"`
	IsToken        bool          `json:"is_token"`
	StateVariables []rawVariable `json:"state_variables"`
	Functions      []rawFunction `json:"functions"`
}

type rawVariable struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type rawFunction struct {
	Name      string        `json:"name"`
	Signature string        `json:"signature"`
	Modifiers []string      `json:"modifiers,omitempty"`
	Locals    []rawVariable `json:"locals,omitempty"`
	Nodes     []rawNode     `json:"nodes"`
}

type rawNode struct {
	Type       string   `json:"type"`
	Expression *rawExpr `json:"expression,omitempty"`
}

type rawExpr struct {
	NodeType  string     `json:"nodeType"`
	Callee    *rawExpr   `json:"callee,omitempty"`
	Arguments []*rawExpr `json:"arguments,omitempty"`
	Operator  string     `json:"operator,omitempty"`
	Left      *rawExpr   `json:"left,omitempty"`
	Right     *rawExpr   `json:"right,omitempty"`
	Operand   *rawExpr   `json:"operand,omitempty"`
	Name      string     `json:"name,omitempty"`
	Value     string     `json:"value,omitempty"`
	Elements  []*rawExpr `json:"elements,omitempty"`
}

// Environment members the front end exports as identifiers. It models them
// as pseudo state variables: they live outside any function frame, so the
// state storage class is what its resolver assigns them.
var builtinVars = map[string]*Variable{
	"msg.value":       {Name: "msg.value", Type: Type{Name: "uint256"}, IsState: true},
	"msg.sender":      {Name: "msg.sender", Type: Type{Name: "address"}, IsState: true},
	"block.timestamp": {Name: "block.timestamp", Type: Type{Name: "uint256"}, IsState: true},
	"block.number":    {Name: "block.number", Type: Type{Name: "uint256"}, IsState: true},
}

// DecodeSnapshot decodes a front-end export into the IR model. The export
// is trusted to be well-formed; what fails here is a broken export (wrong
// version, unknown expression tag, unparsable literal), not a detector
// concern.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing snapshot JSON: %w", err)
	}

	if raw.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d (want %d)", raw.Version, SnapshotVersion)
	}

	snap := &Snapshot{Version: raw.Version}
	for _, rc := range raw.Contracts {
		contract, err := decodeContract(rc)
		if err != nil {
			return nil, fmt.Errorf("contract %s: %w", rc.Name, err)
		}
		snap.Contracts = append(snap.Contracts, contract)
	}
	return snap, nil
}

func decodeContract(rc rawContract) (*Contract, error) {
	c := &Contract{
		Name:    rc.Name,
		IsToken: rc.IsToken,
	}
	if rc.Address != "" {
		if !common.IsHexAddress(rc.Address) {
			return nil, fmt.Errorf("malformed address %q", rc.Address)
		}
		c.Address = common.HexToAddress(rc.Address)
	}

	scope := map[string]*Variable{}
	for _, rv := range rc.StateVariables {
		v := &Variable{Name: rv.Name, Type: Type{Name: rv.Type}, IsState: true}
		c.StateVariables = append(c.StateVariables, v)
		scope[v.Name] = v
	}

	for _, rf := range rc.Functions {
		f, err := decodeFunction(rf, scope)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", rf.Name, err)
		}
		c.Functions = append(c.Functions, f)
	}
	return c, nil
}

func decodeFunction(rf rawFunction, contractScope map[string]*Variable) (*Function, error) {
	f := &Function{
		Name:      rf.Name,
		Signature: rf.Signature,
	}
	for _, m := range rf.Modifiers {
		f.Modifiers = append(f.Modifiers, Modifier{Name: m})
	}

	// Locals shadow contract state within this function's frame.
	scope := make(map[string]*Variable, len(contractScope)+len(rf.Locals))
	for name, v := range contractScope {
		scope[name] = v
	}
	for _, rv := range rf.Locals {
		v := &Variable{Name: rv.Name, Type: Type{Name: rv.Type}}
		scope[v.Name] = v
	}

	for _, rn := range rf.Nodes {
		node := Node{Type: NodeType(rn.Type)}
		if rn.Expression != nil {
			expr, err := decodeExpr(rn.Expression, scope)
			if err != nil {
				return nil, err
			}
			node.Expr = expr
		}
		f.Nodes = append(f.Nodes, node)
	}
	return f, nil
}

func decodeExpr(re *rawExpr, scope map[string]*Variable) (Expr, error) {
	switch re.NodeType {
	case "Call":
		if re.Callee == nil {
			return nil, fmt.Errorf("Call without callee")
		}
		callee, err := decodeExpr(re.Callee, scope)
		if err != nil {
			return nil, err
		}
		call := &CallExpr{Callee: callee}
		for _, ra := range re.Arguments {
			arg, err := decodeExpr(ra, scope)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
		}
		return call, nil

	case "BinaryOperation":
		if re.Left == nil || re.Right == nil {
			return nil, fmt.Errorf("BinaryOperation without both operands")
		}
		left, err := decodeExpr(re.Left, scope)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(re.Right, scope)
		if err != nil {
			return nil, err
		}
		op, ok := binaryOps[re.Operator]
		if !ok {
			return nil, fmt.Errorf("unknown binary operator %q", re.Operator)
		}
		return &BinaryExpr{Op: op, Left: left, Right: right}, nil

	case "UnaryOperation":
		if re.Operand == nil {
			return nil, fmt.Errorf("UnaryOperation without operand")
		}
		operand, err := decodeExpr(re.Operand, scope)
		if err != nil {
			return nil, err
		}
		op, ok := unaryOps[re.Operator]
		if !ok {
			return nil, fmt.Errorf("unknown unary operator %q", re.Operator)
		}
		return &UnaryExpr{Op: op, Operand: operand}, nil

	case "Assignment":
		if re.Left == nil || re.Right == nil {
			return nil, fmt.Errorf("Assignment without both sides")
		}
		left, err := decodeExpr(re.Left, scope)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(re.Right, scope)
		if err != nil {
			return nil, err
		}
		return &AssignExpr{Left: left, Right: right}, nil

	case "Identifier":
		return &Identifier{Var: resolveVariable(re.Name, scope)}, nil

	case "Literal":
		value, ok := new(big.Int).SetString(re.Value, 10)
		if !ok {
			return nil, fmt.Errorf("unparsable literal %q", re.Value)
		}
		return &Literal{Value: value}, nil

	case "Tuple":
		tuple := &TupleExpr{}
		for _, rel := range re.Elements {
			el, err := decodeExpr(rel, scope)
			if err != nil {
				return nil, err
			}
			tuple.Elems = append(tuple.Elems, el)
		}
		return tuple, nil
	}
	return nil, fmt.Errorf("unknown expression nodeType %q", re.NodeType)
}

// resolveVariable keeps the "every identifier is resolved" invariant: a
// name outside the frame and the builtin table decodes to a synthetic
// untyped local rather than a nil reference.
func resolveVariable(name string, scope map[string]*Variable) *Variable {
	if v, ok := scope[name]; ok {
		return v
	}
	if v, ok := builtinVars[name]; ok {
		return v
	}
	return &Variable{Name: name}
}

var binaryOps = map[string]BinaryOp{
	"+":  OpAdd,
	"-":  OpSub,
	"*":  OpMul,
	"/":  OpDiv,
	"<":  OpLT,
	">":  OpGT,
	"<=": OpLE,
	">=": OpGE,
	"==": OpEQ,
	"!=": OpNE,
	"&&": OpAnd,
	"||": OpOr,
}

var unaryOps = map[string]UnaryOp{
	"!": OpNot,
	"-": OpNeg,
}
