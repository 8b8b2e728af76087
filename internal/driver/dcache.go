package driver

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"tfemit/internal/asm"
	"tfemit/internal/diag"
	"tfemit/internal/source"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores assembled units keyed by content and emitter options.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is one cached unit.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16
	Path   string
	Funcs  []*asm.Function
	Diags  []CachedDiag
}

// CachedDiag is a diagnostic stripped of its file id; the file is the unit itself.
type CachedDiag struct {
	Severity uint8
	Code     uint16
	Line     uint32
	Col      uint32
	EndLine  uint32
	EndCol   uint32
	Func     string
	Message  string
}

func cacheDiag(d diag.Diagnostic) CachedDiag {
	return CachedDiag{
		Severity: uint8(d.Severity),
		Code:     uint16(d.Code),
		Line:     d.Primary.Line,
		Col:      d.Primary.Col,
		EndLine:  d.Primary.EndLine,
		EndCol:   d.Primary.EndCol,
		Func:     d.Func,
		Message:  d.Message,
	}
}

func (c CachedDiag) replay(r diag.Reporter, file source.FileID) {
	pos := source.NoPos
	if c.Line != 0 {
		pos = source.Pos{File: file, Line: c.Line, Col: c.Col, EndLine: c.EndLine, EndCol: c.EndCol}
	}
	diag.NewReportBuilder(r, diag.Severity(c.Severity), diag.Code(c.Code), pos, c.Message).InFunc(c.Func).Emit()
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache opens a cache rooted at dir.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "units", hex.EncodeToString(key[:])+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		// already renamed on success
		_ = os.Remove(f.Name())
	}()

	payload.Schema = diskCacheSchemaVersion
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// atomic replace
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload. A payload written by another schema
// version counts as a miss.
func (c *DiskCache) Get(key Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return out.Schema == diskCacheSchemaVersion, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
