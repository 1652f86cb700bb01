package vector

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Index files start with a magic, a version, the dimension, the count, and a flags word,
// followed by each entry: id length, id bytes, and (when flagVectors is set) the vector
// as little-endian float32.
const (
	fileMagic   = "GSVI"
	fileVersion = 1
	flagVectors = 1
	maxIDLen    = 1 << 16
	maxDims     = 1 << 16
	// maxPrealloc bounds the capacity taken from the header count; longer files grow by append.
	maxPrealloc = 1 << 14
)

// ErrCorruptIndex is returned when an index file cannot be decoded.
var ErrCorruptIndex = errors.New("corrupt index file")

type indexFile struct {
	dimensions int
	ids        []string
	vectors    [][]float32
}

func writeIndexFile(path string, f *indexFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	w := bufio.NewWriter(out)
	if err := encodeIndexFile(w, f); err != nil {
		out.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return fmt.Errorf("flush index file: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("sync index file: %w", err)
	}
	return out.Close()
}

func encodeIndexFile(w io.Writer, f *indexFile) error {
	var flags uint32
	if f.vectors != nil {
		flags |= flagVectors
	}
	if _, err := io.WriteString(w, fileMagic); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	header := []uint32{fileVersion, uint32(f.dimensions), uint32(len(f.ids)), flags}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	buf := make([]byte, f.dimensions*4)
	for i, id := range f.ids {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(id))); err != nil {
			return fmt.Errorf("write id len: %w", err)
		}
		if _, err := io.WriteString(w, id); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		if flags&flagVectors == 0 {
			continue
		}
		for j, v := range f.vectors[i] {
			binary.LittleEndian.PutUint32(buf[j*4:], math.Float32bits(v))
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

func readIndexFile(path string) (*indexFile, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer in.Close()
	return decodeIndexFile(bufio.NewReader(in))
}

func decodeIndexFile(r io.Reader) (*indexFile, error) {
	magic := make([]byte, len(fileMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != fileMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorruptIndex)
	}
	var header [4]uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrCorruptIndex, err)
	}
	version, dim, n, flags := header[0], header[1], header[2], header[3]
	if version != fileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptIndex, version)
	}
	if dim > maxDims {
		return nil, fmt.Errorf("%w: dimension %d", ErrCorruptIndex, dim)
	}
	hint := min(int(n), maxPrealloc)
	f := &indexFile{dimensions: int(dim), ids: make([]string, 0, hint)}
	if flags&flagVectors != 0 {
		f.vectors = make([][]float32, 0, hint)
	}
	buf := make([]byte, int(dim)*4)
	for i := uint32(0); i < n; i++ {
		var idLen uint32
		if err := binary.Read(r, binary.LittleEndian, &idLen); err != nil {
			return nil, fmt.Errorf("%w: read id len: %v", ErrCorruptIndex, err)
		}
		if idLen > maxIDLen {
			return nil, fmt.Errorf("%w: id length %d", ErrCorruptIndex, idLen)
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(r, idBytes); err != nil {
			return nil, fmt.Errorf("%w: read id: %v", ErrCorruptIndex, err)
		}
		f.ids = append(f.ids, string(idBytes))
		if f.vectors == nil {
			continue
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("%w: read vector: %v", ErrCorruptIndex, err)
		}
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4:]))
		}
		f.vectors = append(f.vectors, vec)
	}
	return f, nil
}
