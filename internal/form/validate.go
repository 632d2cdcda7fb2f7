package form

import "fmt"

type Rule int

const (
	RuleDoer Rule = iota + 1
	RuleProductionDate
	RuleShift
	RuleSupervisor
	RuleTypes
	RuleTypeName
	RuleMachines
	RuleMachineID
	RuleEntries
	RuleCategory
	RuleSubCategory
	RuleSize
	RuleUOM
)

// ValidationError is the first rule a tree breaks. Type, Machine and Entry are
// 1-based positions; zero means the rule is not scoped to that level.
type ValidationError struct {
	Rule    Rule
	Type    int
	Machine int
	Entry   int
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(rule Rule, ti, mi, ei int, format string, args ...any) error {
	return &ValidationError{Rule: rule, Type: ti, Machine: mi, Entry: ei, Message: fmt.Sprintf(format, args...)}
}

// Validate walks types, machines and entries depth-first and returns the first
// failure as a *ValidationError, or nil. Quantities and weights are optional.
func Validate(t *Tree) error {
	if t.Doer == "" {
		return invalid(RuleDoer, 0, 0, 0, "Doer is required.")
	}
	if t.ProductionDate.IsZero() {
		return invalid(RuleProductionDate, 0, 0, 0, "Production date is required.")
	}
	if t.Shift == "" {
		return invalid(RuleShift, 0, 0, 0, "Shift is required.")
	}
	if !t.Shift.Valid() {
		return invalid(RuleShift, 0, 0, 0, "Shift must be one of A, B or A+B.")
	}
	if t.Supervisor == "" {
		return invalid(RuleSupervisor, 0, 0, 0, "Supervisor is required.")
	}
	if len(t.Types) == 0 {
		return invalid(RuleTypes, 0, 0, 0, "At least one type section is required.")
	}

	for i, typ := range t.Types {
		ti := i + 1
		if typ.TypeName == "" {
			return invalid(RuleTypeName, ti, 0, 0, "Type selection is required for type section %d.", ti)
		}
		if len(typ.Machines) == 0 {
			return invalid(RuleMachines, ti, 0, 0, "At least one machine section is required for type section %d.", ti)
		}

		for j, m := range typ.Machines {
			mi := j + 1
			if m.MachineID == "" {
				return invalid(RuleMachineID, ti, mi, 0,
					"Machine selection is required for machine section %d in type section %d.", mi, ti)
			}
			if len(m.Entries) == 0 {
				return invalid(RuleEntries, ti, mi, 0,
					"At least one item entry is required for machine section %d in type section %d.", mi, ti)
			}

			for k, e := range m.Entries {
				ei := k + 1
				var rule Rule
				var label string
				switch {
				case e.Category == "":
					rule, label = RuleCategory, "Category"
				case e.SubCategory == "":
					rule, label = RuleSubCategory, "Sub-category"
				case e.Size == "":
					rule, label = RuleSize, "Size"
				case e.UOM == "":
					rule, label = RuleUOM, "UOM"
				default:
					continue
				}
				return invalid(rule, ti, mi, ei,
					"%s is required for entry %d in machine section %d of type section %d.", label, ei, mi, ti)
			}
		}
	}

	return nil
}
