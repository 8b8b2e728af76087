// Package loader reads compilation units written as TOML documents.
//
// A unit is a list of [[function]] tables. Statement lists are arrays of
// tables keyed by their role (body, then, else, finally, case.body) and every
// statement names its kind:
//
//	[[function]]
//	name = "f"
//	line = 1
//
//	[[function.body]]
//	kind = "try"
//	line = 2
//
//	[[function.body.body]]
//	kind = "return"
//	expr = "1"
//
//	[[function.body.finally]]
//	kind = "expr"
//	expr = "log(\"done\")"
//
// Identifiers are normalized to NFC so that a label spelled with combining
// marks matches its precomposed spelling.
package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"

	"tfemit/internal/ast"
	"tfemit/internal/diag"
	"tfemit/internal/source"
)

// Error is a malformed unit.
type Error struct {
	Code diag.Code
	Pos  source.Pos
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// Report emits the error as a diagnostic through r.
func (e *Error) Report(r diag.Reporter) {
	diag.ReportError(r, e.Code, e.Pos, e.Msg).Emit()
}

type unitDoc struct {
	Function []funcDoc `toml:"function"`
}

type funcDoc struct {
	Name    string     `toml:"name"`
	Kind    string     `toml:"kind"`
	Line    uint32     `toml:"line"`
	Col     uint32     `toml:"col"`
	Class   *classDoc  `toml:"class"`
	Async   bool       `toml:"async"`
	Return  string     `toml:"return"`
	Reified []string   `toml:"reified"`
	Erased  []string   `toml:"erased"`
	Param   []paramDoc `toml:"param"`
	Body    []stmtDoc  `toml:"body"`
}

type classDoc struct {
	Name    string   `toml:"name"`
	Line    uint32   `toml:"line"`
	Col     uint32   `toml:"col"`
	Reified []string `toml:"reified"`
}

type paramDoc struct {
	Name  string `toml:"name"`
	InOut bool   `toml:"inout"`
	Hint  string `toml:"hint"`
}

type stmtDoc struct {
	Kind    string    `toml:"kind"`
	Line    uint32    `toml:"line"`
	Col     uint32    `toml:"col"`
	Expr    string    `toml:"expr"`
	Level   *int      `toml:"level"`
	Label   string    `toml:"label"`
	As      string    `toml:"as"`
	Then    []stmtDoc `toml:"then"`
	Else    []stmtDoc `toml:"else"`
	Body    []stmtDoc `toml:"body"`
	Finally []stmtDoc `toml:"finally"`
	Case    []caseDoc `toml:"case"`
}

type caseDoc struct {
	Value   string    `toml:"value"`
	Default bool      `toml:"default"`
	Line    uint32    `toml:"line"`
	Col     uint32    `toml:"col"`
	Body    []stmtDoc `toml:"body"`
}

// LoadFile reads the unit at path into fileSet and decodes it.
func LoadFile(fileSet *source.FileSet, path string) (*ast.Unit, error) {
	id, err := fileSet.Load(path)
	if err != nil {
		return nil, &Error{Code: diag.IOLoadFileError, Msg: fmt.Sprintf("failed to load %s: %v", path, err)}
	}
	return decode(fileSet.Get(id))
}

// Load decodes an in-memory unit. The content is registered as a virtual file.
func Load(fileSet *source.FileSet, name string, content []byte) (*ast.Unit, error) {
	id := fileSet.AddVirtual(name, content)
	return decode(fileSet.Get(id))
}

func decode(file *source.File) (*ast.Unit, error) {
	var doc unitDoc
	meta, err := toml.Decode(string(file.Content), &doc)
	if err != nil {
		return nil, &Error{Code: diag.IOBadUnit, Msg: fmt.Sprintf("%s: failed to parse TOML: %v", file.Path, err)}
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, &Error{Code: diag.IOBadUnit, Msg: fmt.Sprintf("%s: unknown keys: %s", file.Path, strings.Join(keys, ", "))}
	}
	if !meta.IsDefined("function") {
		return nil, &Error{Code: diag.IOBadUnit, Msg: fmt.Sprintf("%s: missing [[function]]", file.Path)}
	}

	b := &builder{file: file.ID, path: file.Path}
	unit := &ast.Unit{Path: file.Path, File: file.ID}
	for i := range doc.Function {
		fn, err := b.function(&doc.Function[i])
		if err != nil {
			return nil, err
		}
		unit.Funcs = append(unit.Funcs, fn)
	}
	return unit, nil
}

type builder struct {
	file source.FileID
	path string
}

func (b *builder) pos(line, col uint32) source.Pos {
	if line == 0 {
		return source.NoPos
	}
	if col == 0 {
		col = 1
	}
	return source.At(b.file, line, col)
}

func (b *builder) errorf(code diag.Code, pos source.Pos, format string, args ...any) error {
	return &Error{Code: code, Pos: pos, Msg: fmt.Sprintf("%s: %s", b.path, fmt.Sprintf(format, args...))}
}

func ident(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func idents(ss []string) []string {
	if len(ss) == 0 {
		return nil
	}
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = ident(s)
	}
	return out
}

func (b *builder) hint(pos source.Pos, s string) (*ast.Hint, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	h, err := ast.ParseHint(norm.NFC.String(s))
	if err != nil {
		return nil, b.errorf(diag.IOBadHint, pos, "%v", err)
	}
	return h, nil
}

func (b *builder) function(d *funcDoc) (*ast.Func, error) {
	pos := b.pos(d.Line, d.Col)
	fn := &ast.Func{
		Name:    ident(d.Name),
		Pos:     pos,
		Async:   d.Async,
		Reified: idents(d.Reified),
		Erased:  idents(d.Erased),
	}
	if fn.Name == "" {
		return nil, b.errorf(diag.IOBadUnit, pos, "function without a name")
	}
	switch d.Kind {
	case "", "function":
		fn.Kind = ast.FuncFunction
	case "method":
		fn.Kind = ast.FuncMethod
	case "lambda":
		fn.Kind = ast.FuncLambda
	default:
		return nil, b.errorf(diag.IOBadUnit, pos, "function %s: unknown kind %q", fn.Name, d.Kind)
	}
	if d.Class != nil {
		fn.Class = &ast.Class{
			Name:    ident(d.Class.Name),
			Pos:     b.pos(d.Class.Line, d.Class.Col),
			Reified: idents(d.Class.Reified),
		}
	}
	if fn.Kind == ast.FuncMethod && fn.Class == nil {
		return nil, b.errorf(diag.IOBadUnit, pos, "method %s has no class", fn.Name)
	}

	var err error
	if fn.ReturnHint, err = b.hint(pos, d.Return); err != nil {
		return nil, err
	}
	for _, p := range d.Param {
		h, err := b.hint(pos, p.Hint)
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, ast.Param{Name: ident(p.Name), InOut: p.InOut, Hint: h})
	}
	if fn.Body, err = b.stmts(d.Body); err != nil {
		return nil, fmt.Errorf("function %s: %w", fn.Name, err)
	}
	return fn, nil
}
