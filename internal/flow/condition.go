package flow

import (
	"strings"

	"github.com/expr-lang/expr"

	"github.com/vaniflow/vaniflow/internal/domain"
)

// EvaluateCondition evaluates a boolean guard expression against the flat
// runtime context. Evaluation is sandboxed: the expression can only read the
// named context variables, compare, test membership and combine with logical
// operators. Anything that fails to compile, fails at run time, or references
// an unknown variable evaluates to false rather than aborting the traversal.
func EvaluateCondition(condition string, ctx domain.RuntimeContext) bool {
	src := normalizeCondition(condition)
	if src == "" {
		return false
	}

	program, err := expr.Compile(src,
		expr.Env(map[string]any(ctx)),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return false
	}

	out, err := expr.Run(program, map[string]any(ctx))
	if err != nil {
		return false
	}

	result, ok := out.(bool)
	return ok && result
}

// normalizeCondition maps the authoring surface's JavaScript-style strict
// equality operators onto their plain counterparts. Stored definitions
// predate this runtime and routinely use ===/!==.
func normalizeCondition(condition string) string {
	s := strings.TrimSpace(condition)
	s = strings.ReplaceAll(s, "!==", "!=")
	s = strings.ReplaceAll(s, "===", "==")
	return s
}
