package source

import "fmt"

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual marks files added from memory (tests, stdin).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File captures metadata and content for a single unit file.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// Pos is a line/column range inside one file. Line 0 means "no position".
type Pos struct {
	File    FileID
	Line    uint32 // 1-based
	Col     uint32 // 1-based
	EndLine uint32
	EndCol  uint32
}

// NoPos is the zero position used when nothing better is known.
var NoPos = Pos{}

// At builds a single-character position.
func At(file FileID, line, col uint32) Pos {
	return Pos{File: file, Line: line, Col: col, EndLine: line, EndCol: col + 1}
}

// IsNone reports whether the position carries no location.
func (p Pos) IsNone() bool {
	return p.Line == 0
}

// FirstCharOfLine narrows the position to the first character of its starting line.
func (p Pos) FirstCharOfLine() Pos {
	if p.IsNone() {
		return p
	}
	return Pos{File: p.File, Line: p.Line, Col: 1, EndLine: p.Line, EndCol: 2}
}

func (p Pos) String() string {
	if p.IsNone() {
		return "-"
	}
	return fmt.Sprintf("%d:%d:%d", p.File, p.Line, p.Col)
}
