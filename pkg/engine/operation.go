package engine

import (
	"fmt"
	"strings"
)

// Operation is a pending binary arithmetic operation.
type Operation string

const (
	OpNone     Operation = ""
	OpAdd      Operation = "add"
	OpSubtract Operation = "subtract"
	OpMultiply Operation = "multiply"
	OpDivide   Operation = "divide"
)

// ParseOperation accepts either the operation name or its symbol.
func ParseOperation(s string) (Operation, error) {
	switch strings.TrimSpace(s) {
	case "add", "+":
		return OpAdd, nil
	case "subtract", "-", "−":
		return OpSubtract, nil
	case "multiply", "*", "x", "×":
		return OpMultiply, nil
	case "divide", "/", "÷":
		return OpDivide, nil
	default:
		return OpNone, fmt.Errorf("unknown operation %q", s)
	}
}

// Symbol returns the button label of the operation.
func (o Operation) Symbol() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSubtract:
		return "−"
	case OpMultiply:
		return "×"
	case OpDivide:
		return "÷"
	default:
		return ""
	}
}

// apply computes a op b with ordinary float64 semantics. Division by zero
// yields ±Inf or NaN.
func (o Operation) apply(a, b float64) float64 {
	switch o {
	case OpAdd:
		return a + b
	case OpSubtract:
		return a - b
	case OpMultiply:
		return a * b
	case OpDivide:
		return a / b
	default:
		return b
	}
}
