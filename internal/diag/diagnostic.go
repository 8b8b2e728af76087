package diag

import (
	"tfemit/internal/source"
)

type Note struct {
	Pos source.Pos
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Pos
	// Func names the function whose compilation produced the diagnostic, if any.
	Func  string
	Notes []Note
}
