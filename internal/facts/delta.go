package facts

// Delta captures added and removed fact rows between two snapshots, e.g.
// successive front-end exports of the same codebase.
type Delta struct {
	Added   Tables `json:"added"`
	Removed Tables `json:"removed"`
}

// ComputeDelta computes row-level additions and removals between two
// snapshots.
func ComputeDelta(prev, next Tables) Delta {
	return Delta{
		Added:   diffTables(prev, next),
		Removed: diffTables(next, prev),
	}
}

func diffTables(from, to Tables) Tables {
	out := emptyTables()

	out.Contracts = diffRows(from.Contracts, to.Contracts, func(r ContractRow) string {
		return r.Name + "|" + r.Address + "|" + boolKey(r.IsToken)
	})
	out.Functions = diffRows(from.Functions, to.Functions, func(r FunctionRow) string {
		return r.Contract + "|" + r.Name + "|" + r.Signature + "|" + r.Selector + "|" + intKey(r.Nodes)
	})
	out.Modifiers = diffRows(from.Modifiers, to.Modifiers, func(r ModifierRow) string {
		return r.Contract + "|" + r.Function + "|" + r.Name
	})
	out.StateVariables = diffRows(from.StateVariables, to.StateVariables, func(r StateVariableRow) string {
		return r.Contract + "|" + r.Name + "|" + r.Type
	})
	out.Findings = diffRows(from.Findings, to.Findings, func(r FindingRow) string {
		return r.Detector + "|" + r.Contract + "|" + r.Function + "|" + r.Message + "|" + r.Impact + "|" + r.Limit
	})

	return out
}

func emptyTables() Tables {
	return Tables{
		Contracts:      []ContractRow{},
		Functions:      []FunctionRow{},
		Modifiers:      []ModifierRow{},
		StateVariables: []StateVariableRow{},
		Findings:       []FindingRow{},
	}
}

func diffRows[T any](from, to []T, key func(T) string) []T {
	fromSet := make(map[string]T, len(from))
	for _, row := range from {
		fromSet[key(row)] = row
	}
	var diff []T
	for _, row := range to {
		rowKey := key(row)
		if _, ok := fromSet[rowKey]; !ok {
			diff = append(diff, row)
		}
	}
	if diff == nil {
		diff = []T{}
	}
	return diff
}

func boolKey(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func intKey(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
