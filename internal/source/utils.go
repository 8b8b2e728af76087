package source

import (
	"bytes"
	"fmt"
	"path/filepath"

	"fortio.org/safecast"
)

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}
	crlf    = []byte("\r\n")
	lf      = []byte("\n")
)

// normalizeCRLF rewrites Windows line endings. A lone \r stays as is.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !bytes.Contains(content, crlf) {
		return content, false
	}
	return bytes.ReplaceAll(content, crlf, lf), true
}

func removeBOM(content []byte) ([]byte, bool) {
	if rest, ok := bytes.CutPrefix(content, utf8BOM); ok {
		return rest, true
	}
	return content, false
}

// buildLineIndex records the byte offset of every '\n'. Line n (1-based)
// ends at index n-1; GetLine relies on that.
func buildLineIndex(content []byte) []uint32 {
	idx := make([]uint32, 0, bytes.Count(content, lf))
	for off := 0; ; {
		i := bytes.IndexByte(content[off:], '\n')
		if i < 0 {
			return idx
		}
		pos, err := safecast.Conv[uint32](off + i)
		if err != nil {
			panic(fmt.Errorf("line offset overflow: %w", err))
		}
		idx = append(idx, pos)
		off += i + 1
	}
}

// normalizePath gives every path one spelling so GetByPath lookups match
// regardless of separators and ./ segments.
func normalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
