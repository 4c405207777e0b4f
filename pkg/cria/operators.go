package cria

// Operator is a binary operator symbol.
type Operator string

const (
	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpMul Operator = "*"
	OpDiv Operator = "/"
	OpMod Operator = "%"

	OpEq  Operator = "=="
	OpNeq Operator = "!="
	OpLt  Operator = "<"
	OpLte Operator = "<="
	OpGt  Operator = ">"
	OpGte Operator = ">="
)

// Operators lists every operator, longest spellings first so that a prefix
// match never shadows a longer one.
var Operators = []Operator{
	OpEq, OpNeq, OpLte, OpGte,
	OpAdd, OpSub, OpMul, OpDiv, OpMod, OpLt, OpGt,
}

// IsComparison reports whether op compares its operands and yields a
// boolean.
func (op Operator) IsComparison() bool {
	switch op {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte:
		return true
	default:
		return false
	}
}

// Valid reports whether op is a known operator.
func (op Operator) Valid() bool {
	for _, known := range Operators {
		if op == known {
			return true
		}
	}
	return false
}
