package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tfemit/internal/ast"
	"tfemit/internal/diag"
	"tfemit/internal/source"
)

const tryUnit = `
[[function]]
name = "f"
line = 1
col = 10
return = "?int"

[[function.param]]
name = "x"
inout = true
hint = "int"

[[function.body]]
kind = "try"
line = 2

[[function.body.body]]
kind = "foreach"
line = 3
expr = "items($x)"
as = "v"

[[function.body.body.body]]
kind = "break"
level = 2

[[function.body.body.body]]
kind = "continue"

[[function.body.finally]]
kind = "expr"
line = 6
expr = 'log("done", -1, null, true)'

[[function.body]]
kind = "return"
line = 8
expr = "$x"
`

func mustLoad(t *testing.T, src string) *ast.Unit {
	t.Helper()
	u, err := Load(source.NewFileSet(), "unit.toml", []byte(src))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return u
}

func TestLoadFunction(t *testing.T) {
	u := mustLoad(t, tryUnit)
	if len(u.Funcs) != 1 {
		t.Fatalf("got %d functions", len(u.Funcs))
	}
	fn := u.Funcs[0]
	if fn.Name != "f" || fn.Kind != ast.FuncFunction {
		t.Fatalf("unexpected function header: %+v", fn)
	}
	if fn.Pos.Line != 1 || fn.Pos.Col != 10 {
		t.Fatalf("function pos = %v", fn.Pos)
	}
	if fn.ReturnHint == nil || fn.ReturnHint.String() != "?int" {
		t.Fatalf("return hint = %v", fn.ReturnHint)
	}
	if len(fn.Params) != 1 || !fn.Params[0].InOut || fn.Params[0].Hint.String() != "int" {
		t.Fatalf("params = %+v", fn.Params)
	}
	if len(fn.Body) != 2 || fn.Body[0].Kind != ast.StmtTry || fn.Body[1].Kind != ast.StmtReturn {
		t.Fatalf("body kinds wrong: %+v", fn.Body)
	}

	try := fn.Body[0].Data.(ast.TryData)
	loop := try.Body[0].Data.(ast.ForeachData)
	if loop.Value != "v" || loop.Collection.Kind != ast.ExprCall || loop.Collection.Str != "items" {
		t.Fatalf("foreach = %+v", loop)
	}
	if got := loop.Body[0].Data.(ast.JumpData).Level; got != 2 {
		t.Fatalf("break level = %d, want 2", got)
	}
	if got := loop.Body[1].Data.(ast.JumpData).Level; got != 1 {
		t.Fatalf("continue level = %d, want default 1", got)
	}

	call := try.Finally[0].Data.(ast.ExprStmtData).Expr
	if len(call.Args) != 4 {
		t.Fatalf("call args = %+v", call.Args)
	}
	if call.Args[0].Str != "done" || call.Args[1].Int != -1 || call.Args[2].Kind != ast.ExprNull || !call.Args[3].Bool {
		t.Fatalf("call args decoded wrong: %+v", call.Args)
	}
	if try.Finally[0].Pos.Line != 6 || try.Finally[0].Pos.Col != 1 {
		t.Fatalf("finally stmt pos = %v", try.Finally[0].Pos)
	}
	if ret := fn.Body[1].Data.(ast.ReturnData); ret.Value.Kind != ast.ExprVar || ret.Value.Str != "x" {
		t.Fatalf("return value = %+v", ret.Value)
	}
}

func TestLoadNormalizesIdentifiers(t *testing.T) {
	src := `
[[function]]
name = "g"

[[function.body]]
kind = "goto"
label = "cafe\u0301"

[[function.body]]
kind = "label"
label = "café"
`
	fn := mustLoad(t, src).Funcs[0]
	from := fn.Body[0].Data.(ast.GotoData).Label
	to := fn.Body[1].Data.(ast.GotoData).Label
	if from != to {
		t.Fatalf("labels differ after normalization: %q vs %q", from, to)
	}
}

func TestLoadMethodAndSwitch(t *testing.T) {
	src := `
[[function]]
name = "m"
kind = "method"
reified = ["T"]
class = { name = "C", line = 4, reified = ["U"] }

[[function.body]]
kind = "switch"
expr = "$s"

[[function.body.case]]
value = "1"

[[function.body.case.body]]
kind = "break"

[[function.body.case]]
default = true
`
	fn := mustLoad(t, src).Funcs[0]
	if fn.Kind != ast.FuncMethod || fn.Class == nil || fn.Class.Name != "C" || fn.Class.Pos.Line != 4 {
		t.Fatalf("method header = %+v", fn)
	}
	if len(fn.Reified) != 1 || fn.Class.Reified[0] != "U" {
		t.Fatalf("reified = %v / %v", fn.Reified, fn.Class.Reified)
	}
	sw := fn.Body[0].Data.(ast.SwitchData)
	if len(sw.Cases) != 2 || sw.Cases[0].Value.Int != 1 || sw.Cases[1].Value != nil {
		t.Fatalf("cases = %+v", sw.Cases)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		code diag.Code
		msg  string
	}{
		{"syntax", "[[function]\n", diag.IOBadUnit, "failed to parse TOML"},
		{"no functions", "x = 1\n", diag.IOBadUnit, "unknown keys: x"},
		{"empty", "", diag.IOBadUnit, "missing [[function]]"},
		{"unknown key", "[[function]]\nname = \"f\"\nbogus = 1\n", diag.IOBadUnit, "function.bogus"},
		{"unknown stmt", "[[function]]\nname = \"f\"\n[[function.body]]\nkind = \"yield\"\n", diag.IOUnknownStmt, `unknown statement kind "yield"`},
		{"missing kind", "[[function]]\nname = \"f\"\n[[function.body]]\nline = 2\n", diag.IOUnknownStmt, "without a kind"},
		{"bad hint", "[[function]]\nname = \"f\"\nreturn = \"?\"\n", diag.IOBadHint, "hint"},
		{"bad expr", "[[function]]\nname = \"f\"\n[[function.body]]\nkind = \"expr\"\nexpr = \"f(1\"\n", diag.IOBadUnit, "expected ',' or ')'"},
		{"method without class", "[[function]]\nname = \"f\"\nkind = \"method\"\n", diag.IOBadUnit, "has no class"},
		{"goto without label", "[[function]]\nname = \"f\"\n[[function.body]]\nkind = \"goto\"\n", diag.IOBadUnit, "goto without a label"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(source.NewFileSet(), "bad.toml", []byte(tc.src))
			var lerr *Error
			if !errors.As(err, &lerr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if lerr.Code != tc.code {
				t.Fatalf("code = %v, want %v", lerr.Code, tc.code)
			}
			if !strings.Contains(err.Error(), tc.msg) {
				t.Fatalf("error %q does not mention %q", err, tc.msg)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unit.toml")
	if err := os.WriteFile(path, []byte(tryUnit), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	u, err := LoadFile(fs, path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if f := fs.Get(u.File); f == nil || !strings.HasSuffix(f.Path, "unit.toml") {
		t.Fatalf("file not registered: %+v", f)
	}

	_, err = LoadFile(fs, filepath.Join(t.TempDir(), "missing.toml"))
	var lerr *Error
	if !errors.As(err, &lerr) || lerr.Code != diag.IOLoadFileError {
		t.Fatalf("expected load error, got %v", err)
	}
}
