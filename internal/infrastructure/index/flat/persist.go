package flat

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/lexilocal/lexilocal/internal/core/domain"
)

// Binary artifact layout, little endian:
//
//	magic "LXFI" | version uint16 | dim uint32 | count uint32
//	per entry: id length uint16 | id bytes | dim * float32
//
// The dimension tag lets a loaded index reject queries from a reconfigured
// embedder at first search.
const (
	fileMagic   = "LXFI"
	fileVersion = uint16(1)
)

// Save writes the full vector set atomically: a temp file in the target
// directory, fsync, then rename. A failed write never leaves a partial
// artifact in place.
func (ix *Index) Save(path string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.WrapError(domain.ErrPersistence, "save index", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "save index", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := bufio.NewWriter(tmp)
	if err := ix.writeLocked(w); err != nil {
		return domain.WrapError(domain.ErrPersistence, "save index", err)
	}
	if err := w.Flush(); err != nil {
		return domain.WrapError(domain.ErrPersistence, "save index", err)
	}
	if err := tmp.Sync(); err != nil {
		return domain.WrapError(domain.ErrPersistence, "save index", err)
	}
	if err := tmp.Close(); err != nil {
		return domain.WrapError(domain.ErrPersistence, "save index", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return domain.WrapError(domain.ErrPersistence, "save index", err)
	}
	return nil
}

func (ix *Index) writeLocked(w io.Writer) error {
	if _, err := w.Write([]byte(fileMagic)); err != nil {
		return err
	}
	header := []any{fileVersion, uint32(ix.dim), uint32(len(ix.ids))}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	for i, id := range ix.ids {
		if len(id) > math.MaxUint16 {
			return fmt.Errorf("chunk id too long: %d bytes", len(id))
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(len(id))); err != nil {
			return err
		}
		if _, err := w.Write([]byte(id)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, ix.vectors[i]); err != nil {
			return err
		}
	}
	return nil
}

// Load replaces the index contents with the persisted vector set. Format
// violations fail fast with ErrPersistence. The artifact dimension is not
// checked against any embedder here; callers compare it at startup or let
// the first search surface the mismatch.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "load index", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	magic := make([]byte, len(fileMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "load index", err)
	}
	if string(magic) != fileMagic {
		return nil, domain.WrapError(domain.ErrPersistence, "load index",
			fmt.Errorf("not a vector index artifact: bad magic %q", magic))
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "load index", err)
	}
	if version != fileVersion {
		return nil, domain.WrapError(domain.ErrPersistence, "load index",
			fmt.Errorf("unsupported artifact version %d", version))
	}

	var dim, count uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "load index", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "load index", err)
	}

	ix := New()
	ix.dim = int(dim)
	ix.ids = make([]string, 0, count)
	ix.vectors = make([][]float32, 0, count)

	for i := uint32(0); i < count; i++ {
		var idLen uint16
		if err := binary.Read(r, binary.LittleEndian, &idLen); err != nil {
			return nil, domain.WrapError(domain.ErrPersistence, "load index", err)
		}
		id := make([]byte, idLen)
		if _, err := io.ReadFull(r, id); err != nil {
			return nil, domain.WrapError(domain.ErrPersistence, "load index", err)
		}
		vec := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return nil, domain.WrapError(domain.ErrPersistence, "load index", err)
		}
		ix.ids = append(ix.ids, string(id))
		ix.vectors = append(ix.vectors, vec)
	}
	return ix, nil
}
