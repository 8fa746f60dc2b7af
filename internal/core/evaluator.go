package core

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// EvaluateCondition compiles and runs a guard expression against the
// SystemContext. An empty guard is always true. Fields like Distro and
// Version are addressable directly: `Distro == "rhel" && Version >= "9"`.
func EvaluateCondition(condition string, ctx *SystemContext) (bool, error) {
	if condition == "" {
		return true, nil
	}

	program, err := expr.Compile(condition, expr.Env(ctx))
	if err != nil {
		return false, fmt.Errorf("invalid guard '%s': %v", condition, err)
	}

	output, err := expr.Run(program, ctx)
	if err != nil {
		return false, fmt.Errorf("guard evaluation failed: %v", err)
	}

	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("guard must return a boolean, got %T", output)
	}
	return result, nil
}
