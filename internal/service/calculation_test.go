package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperation(t *testing.T) {
	cases := []struct {
		in   string
		want Operation
		ok   bool
	}{
		{"add", OpAdd, true},
		{"sub", OpSub, true},
		{"subtract", OpSub, true},
		{"mul", OpMul, true},
		{"multiply", OpMul, true},
		{"div", OpDiv, true},
		{"divide", OpDiv, true},
		{"ADD", OpAdd, true},
		{"  add  ", OpAdd, true},
		{"pow", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseOperation(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrUnknownOperation, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestCompute(t *testing.T) {
	cases := []struct {
		name     string
		op       Operation
		operands []float64
		want     float64
	}{
		{"add two", OpAdd, []float64{2, 3}, 5},
		{"add many", OpAdd, []float64{1, 2, 3, 4}, 10},
		{"sub folds left", OpSub, []float64{10, 3, 2}, 5},
		{"mul", OpMul, []float64{2, 3, 4}, 24},
		{"div", OpDiv, []float64{100, 5, 2}, 10},
		{"div negative", OpDiv, []float64{9, -3}, -3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Compute(tc.op, tc.operands)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestCompute_DivisionByZero(t *testing.T) {
	_, err := Compute(OpDiv, []float64{1, 0})
	assert.ErrorIs(t, err, ErrDivisionByZero)

	// A zero divisor anywhere in the chain fails, not just in position two.
	_, err = Compute(OpDiv, []float64{8, 2, 0, 4})
	assert.ErrorIs(t, err, ErrDivisionByZero)

	// Zero as the dividend is fine.
	got, err := Compute(OpDiv, []float64{0, 5})
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestCompute_OperandCount(t *testing.T) {
	for _, operands := range [][]float64{nil, {}, {1}} {
		_, err := Compute(OpAdd, operands)
		assert.ErrorIs(t, err, ErrOperandCount, "operands %v", operands)
	}
}
