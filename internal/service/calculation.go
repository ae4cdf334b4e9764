package service

import (
	"errors"
	"strings"
)

// Operation is the closed set of arithmetic operations.  Adding one
// means extending the enum and the switch in Compute; there is no
// runtime string dispatch.
type Operation string

const (
	OpAdd Operation = "add"
	OpSub Operation = "sub"
	OpMul Operation = "mul"
	OpDiv Operation = "div"
)

// Validation failures for calculation input.  All are detected locally
// before anything is persisted.
var (
	ErrUnknownOperation = errors.New("unsupported operation")
	ErrOperandCount     = errors.New("at least two operands required")
	ErrDivisionByZero   = errors.New("division by zero is not allowed")
)

// ParseOperation normalizes a raw operation string.  Long-form aliases
// (subtract, multiply, divide) are accepted for compatibility with the
// stateless calculator routes.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add":
		return OpAdd, nil
	case "sub", "subtract":
		return OpSub, nil
	case "mul", "multiply":
		return OpMul, nil
	case "div", "divide":
		return OpDiv, nil
	}
	return "", ErrUnknownOperation
}

// Compute folds the operation over the operand list left to right.
// At least two operands are required; a zero divisor anywhere in a
// division chain fails before any result is produced.
func Compute(op Operation, operands []float64) (float64, error) {
	if len(operands) < 2 {
		return 0, ErrOperandCount
	}
	acc := operands[0]
	for _, v := range operands[1:] {
		switch op {
		case OpAdd:
			acc += v
		case OpSub:
			acc -= v
		case OpMul:
			acc *= v
		case OpDiv:
			if v == 0 {
				return 0, ErrDivisionByZero
			}
			acc /= v
		default:
			return 0, ErrUnknownOperation
		}
	}
	return acc, nil
}
