package source

import "testing"

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("unit.toml", []byte("first\nsecond\n\nfourth"))
	f := fs.Get(id)

	tests := []struct {
		line uint32
		want string
	}{
		{0, ""},
		{1, "first"},
		{2, "second"},
		{3, ""},
		{4, "fourth"},
		{5, ""},
	}
	for _, tt := range tests {
		if got := f.GetLine(tt.line); got != tt.want {
			t.Errorf("GetLine(%d) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestNormalizeCRLFAndBOM(t *testing.T) {
	in := []byte{0xEF, 0xBB, 0xBF, 'a', '\r', '\n', 'b', '\r'}
	out, hadBOM := removeBOM(in)
	if !hadBOM {
		t.Fatalf("expected BOM to be detected")
	}
	out, changed := normalizeCRLF(out)
	if !changed {
		t.Fatalf("expected CRLF to be normalized")
	}
	if string(out) != "a\nb\r" {
		t.Fatalf("unexpected normalized content %q", out)
	}
}

func TestBuildLineIndex(t *testing.T) {
	got := buildLineIndex([]byte("ab\n\ncd\n"))
	want := []uint32{2, 3, 6}
	if len(got) != len(want) {
		t.Fatalf("buildLineIndex = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("buildLineIndex = %v, want %v", got, want)
		}
	}
	if _, changed := normalizeCRLF([]byte("a\rb")); changed {
		t.Fatalf("lone CR must not count as a change")
	}
}

func TestGetByPathReturnsLatest(t *testing.T) {
	fs := NewFileSet()
	fs.AddVirtual("./dir/../unit.toml", []byte("old"))
	second := fs.AddVirtual("unit.toml", []byte("new"))
	f, ok := fs.GetByPath("unit.toml")
	if !ok || f.ID != second {
		t.Fatalf("expected latest file id %d, got %+v (ok=%v)", second, f, ok)
	}
	if fs.Get(FileID(42)) != nil {
		t.Fatalf("expected nil for unknown file id")
	}
}

func TestPosFirstCharOfLine(t *testing.T) {
	p := Pos{File: 1, Line: 7, Col: 12, EndLine: 9, EndCol: 3}
	got := p.FirstCharOfLine()
	want := Pos{File: 1, Line: 7, Col: 1, EndLine: 7, EndCol: 2}
	if got != want {
		t.Fatalf("FirstCharOfLine() = %+v, want %+v", got, want)
	}
	if !NoPos.FirstCharOfLine().IsNone() {
		t.Fatalf("expected NoPos to stay empty")
	}
}
