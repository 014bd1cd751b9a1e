package cpu

import (
	"maps"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Eval evaluates a Starlark integer expression with predeclared integers.
func Eval(expr string, predeclared map[string]int64) (value int64, err error) {
	thread := starlark.Thread{Name: "expr"}
	opts := syntax.FileOptions{}
	pred := make(starlark.StringDict, len(predeclared))
	for key, val := range maps.All(predeclared) {
		pred[key] = starlark.MakeInt64(val)
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}

	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}

	return
}
