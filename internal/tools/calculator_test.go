package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatorEvaluates(t *testing.T) {
	cases := []struct {
		expression string
		want       string
	}{
		{"2+2", "4"},
		{"2 + 3 * 4", "14"},
		{"(2+3)*4", "20"},
		{"10/4", "2.5"},
		{"-3 + 5", "2"},
		{"-(2+3)", "-5"},
		{"1.5*2", "3"},
		{"100 - 10 - 5", "85"},
	}
	calc := NewCalculatorTool()
	for _, tc := range cases {
		t.Run(tc.expression, func(t *testing.T) {
			args := map[string]interface{}{"expression": tc.expression}
			require.NoError(t, calc.Validate(args))
			result, err := calc.Call(context.Background(), args)
			require.NoError(t, err)
			m, ok := result.(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, tc.want, m["result"])
		})
	}
}

func TestCalculatorRejectsBadInput(t *testing.T) {
	calc := NewCalculatorTool()

	assert.Error(t, calc.Validate(map[string]interface{}{}))
	assert.Error(t, calc.Validate(map[string]interface{}{"expression": 42}))
	assert.Error(t, calc.Validate(map[string]interface{}{"expression": "  "}))

	for _, expr := range []string{"2+", "1/0", "2**3", "(1+2", "abc"} {
		_, err := calc.Call(context.Background(), map[string]interface{}{"expression": expr})
		assert.Error(t, err, "expression %q", expr)
	}
}
