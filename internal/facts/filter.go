package facts

// FilterTablesByContracts returns a new Tables object containing only rows
// belonging to a contract in the provided name set.
func FilterTablesByContracts(tables Tables, names map[string]bool) Tables {
	if len(names) == 0 {
		return emptyTables()
	}
	out := emptyTables()

	for _, row := range tables.Contracts {
		if names[row.Name] {
			out.Contracts = append(out.Contracts, row)
		}
	}
	for _, row := range tables.Functions {
		if names[row.Contract] {
			out.Functions = append(out.Functions, row)
		}
	}
	for _, row := range tables.Modifiers {
		if names[row.Contract] {
			out.Modifiers = append(out.Modifiers, row)
		}
	}
	for _, row := range tables.StateVariables {
		if names[row.Contract] {
			out.StateVariables = append(out.StateVariables, row)
		}
	}
	for _, row := range tables.Findings {
		if names[row.Contract] {
			out.Findings = append(out.Findings, row)
		}
	}

	return out
}
