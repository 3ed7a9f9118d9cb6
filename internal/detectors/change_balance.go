package detectors

import (
	"fmt"
	"strings"

	"github.com/solguard/erc20lint/internal/ir"
)

// ChangeBalance flags owner-restricted functions that both invoke a
// transfer-like call and add to or subtract from the balanceOf mapping.
// Minting, burning and the standard transfer entry points are expected to
// do this; anything else doing it under onlyOwner deserves a look.
type ChangeBalance struct{}

func init() {
	Register(&ChangeBalance{})
}

const ownerModifier = "onlyOwner"

// balanceMappingType is compared against the front end's stringified type
// signature. A renamed or aliased mapping type is missed on purpose: this
// is a cheap heuristic, not structural type equality.
const balanceMappingType = "mapping(address => uint256)"

// expectedMutators are functions that legitimately rewrite balances.
var expectedMutators = map[string]bool{
	"mint":         true,
	"burn":         true,
	"Transfer":     true,
	"transferFrom": true,
}

func (d *ChangeBalance) Argument() string { return "erc20-change-balance" }
func (d *ChangeBalance) Title() string    { return "ERC20 Change Balance Functionality" }
func (d *ChangeBalance) Description() string {
	return "Detect ERC20 change balance functionality."
}
func (d *ChangeBalance) Recommendation() string {
	return "Make sure users are clear about how and when the owner can move balances."
}
func (d *ChangeBalance) Impact() Impact         { return ImpactInformational }
func (d *ChangeBalance) Confidence() Confidence { return ConfidenceHigh }

// Detect reports one finding per qualifying function.
func (d *ChangeBalance) Detect(contracts []*ir.Contract) []Finding {
	var findings []Finding
	for _, c := range contracts {
		for _, name := range d.changeBalanceFunctions(c) {
			findings = append(findings, Finding{
				Contract: c.Name,
				Function: name,
				Message:  fmt.Sprintf("%s.%s is owner-restricted but performs a transfer and rewrites balanceOf", c.Name, name),
			})
		}
	}
	return findings
}

// changeBalanceFunctions returns the names of functions that carry the
// onlyOwner modifier, are not expected mutators, and satisfy both node
// predicates. The two scans are independent: the matched nodes need not
// be the same statement or in any order.
func (d *ChangeBalance) changeBalanceFunctions(c *ir.Contract) []string {
	var results []string
	for _, f := range c.Functions {
		if expectedMutators[f.Name] {
			continue
		}
		if !f.HasModifier(ownerModifier) {
			continue
		}
		if hasTransferCall(f.Nodes) && hasBalanceArithmetic(f.Nodes) {
			results = append(results, f.Name)
		}
	}
	return results
}

// hasTransferCall reports whether any node's expression is a call whose
// callee text contains "transfer".
func hasTransferCall(nodes []ir.Node) bool {
	for _, n := range nodes {
		if call, ok := n.Expr.(*ir.CallExpr); ok {
			if strings.Contains(call.Callee.String(), "transfer") {
				return true
			}
		}
	}
	return false
}

// hasBalanceArithmetic reports whether any node's expression is an
// additive or subtractive binary operation touching the balanceOf mapping.
func hasBalanceArithmetic(nodes []ir.Node) bool {
	for _, n := range nodes {
		bin, ok := n.Expr.(*ir.BinaryExpr)
		if !ok {
			continue
		}
		if bin.Op != ir.OpAdd && bin.Op != ir.OpSub {
			continue
		}
		if isBalanceVariable(bin.Left) || isBalanceVariable(bin.Right) {
			return true
		}
	}
	return false
}

// isBalanceVariable matches an identifier resolving to the state variable
// balanceOf declared as mapping(address => uint256).
func isBalanceVariable(e ir.Expr) bool {
	id, ok := e.(*ir.Identifier)
	if !ok {
		return false
	}
	return id.Var.IsState &&
		id.Var.Name == "balanceOf" &&
		id.Var.Type.Name == balanceMappingType
}
