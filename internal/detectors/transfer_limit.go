package detectors

import (
	"fmt"
	"math/big"

	"github.com/solguard/erc20lint/internal/ir"
)

// TransferLimit flags token contracts whose canonical transfer entry
// points are guarded by a numeric ceiling check, and extracts the ceiling.
type TransferLimit struct{}

func init() {
	Register(&TransferLimit{})
}

// transferSignatures are the two canonical ERC20 transfer entry points.
// A contract missing either one is silently skipped for that signature.
var transferSignatures = []string{
	"transfer(address,uint256)",
	"transferFrom(address,address,uint256)",
}

func (d *TransferLimit) Argument() string { return "erc20-transfer-limit" }
func (d *TransferLimit) Title() string    { return "ERC20 Transfer Limit Detector" }
func (d *TransferLimit) Description() string {
	return "Detect ERC20 contracts with transfer limits."
}
func (d *TransferLimit) Recommendation() string {
	return "Ensure the token transfer limits are set appropriately to avoid potential issues."
}
func (d *TransferLimit) Impact() Impact         { return ImpactInformational }
func (d *TransferLimit) Confidence() Confidence { return ConfidenceHigh }

// Detect reports one finding per (token contract, transfer function) pair
// where a limit value was extracted.
func (d *TransferLimit) Detect(contracts []*ir.Contract) []Finding {
	var findings []Finding
	for _, c := range contracts {
		if !c.IsToken {
			continue
		}
		for _, sig := range transferSignatures {
			f := c.FunctionBySignature(sig)
			if f == nil {
				continue
			}
			if limit := detectTransferLimit(f); limit != nil {
				findings = append(findings, Finding{
					Contract: c.Name,
					Function: f.Name,
					Message:  fmt.Sprintf("%s.%s caps transfers at %s", c.Name, f.Name, limit),
					Limit:    limit,
				})
			}
		}
	}
	return findings
}

// detectTransferLimit scans the function's nodes in order for the first
// EXPRESSION node shaped like a transfer guard and extracts its limit.
// First structural match wins: a guard whose limit cannot be extracted
// still stops the scan.
func detectTransferLimit(f *ir.Function) *big.Int {
	for _, n := range f.Nodes {
		if n.Type != ir.NodeExpression {
			continue
		}
		and, ok := n.Expr.(*ir.BinaryExpr)
		if !ok || and.Op != ir.OpAnd {
			continue
		}
		left, okLeft := limitComparison(and.Left)
		right, okRight := limitComparison(and.Right)
		if !okLeft || !okRight {
			continue
		}
		return extractLimit(left, right)
	}
	return nil
}

// guardComparison is one matched branch of the guard: the identifier side
// and the literal side of a strict less-than.
type guardComparison struct {
	ident *ir.Variable
	limit *big.Int
}

// limitComparison matches a strict less-than between an identifier
// referencing a uint256-typed state variable and an integer literal, in
// either operand order.
func limitComparison(e ir.Expr) (guardComparison, bool) {
	bin, ok := e.(*ir.BinaryExpr)
	if !ok || bin.Op != ir.OpLT {
		return guardComparison{}, false
	}

	if id, lit, ok := identAndLiteral(bin.Left, bin.Right); ok {
		return guardComparison{ident: id.Var, limit: lit.Value}, true
	}
	if id, lit, ok := identAndLiteral(bin.Right, bin.Left); ok {
		return guardComparison{ident: id.Var, limit: lit.Value}, true
	}
	return guardComparison{}, false
}

func identAndLiteral(a, b ir.Expr) (*ir.Identifier, *ir.Literal, bool) {
	id, ok := a.(*ir.Identifier)
	if !ok {
		return nil, nil, false
	}
	lit, ok := b.(*ir.Literal)
	if !ok {
		return nil, nil, false
	}
	if !id.Var.IsState || id.Var.Type.Name != "uint256" {
		return nil, nil, false
	}
	return id, lit, true
}

// extractLimit returns the literal paired with whichever branch compares
// msg.value. If neither branch does, the guard yields no limit and the
// function is treated as having none.
func extractLimit(left, right guardComparison) *big.Int {
	if left.ident.Name == "msg.value" {
		return left.limit
	}
	if right.ident.Name == "msg.value" {
		return right.limit
	}
	return nil
}
