package flat

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"path/filepath"
)

const (
	floatSize = 4 // float32 is 4 bytes

	// File header (v1):
	//   0..7   magic "MVVEC001"
	//   8..11  dim (uint32)
	//   12..19 count (uint64)
	// followed by count*dim little-endian float32 values and a CRC-32
	// (IEEE) of everything before it.
	headerSize  = 20
	trailerSize = 4
)

var fileMagic = [8]byte{'M', 'V', 'V', 'E', 'C', '0', '0', '1'}

// writeVectorFile replaces path with the given vectors. The data is written
// to a temporary file in the same directory, synced, then renamed over path
// so a crash leaves either the old or the new file, never a mix.
func writeVectorFile(path string, dim int, data []float32) error {
	if dim <= 0 || len(data)%dim != 0 {
		return fmt.Errorf("invalid vector payload: %d values for dim %d", len(data), dim)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".index.vec-*")
	if err != nil {
		return fmt.Errorf("create temp vector file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	crc := crc32.NewIEEE()
	w := bufio.NewWriter(io.MultiWriter(tmp, crc))

	var header [headerSize]byte
	copy(header[:8], fileMagic[:])
	binary.LittleEndian.PutUint32(header[8:12], uint32(dim))
	binary.LittleEndian.PutUint64(header[12:20], uint64(len(data)/dim))
	if _, err := w.Write(header[:]); err != nil {
		_ = tmp.Close()
		return err
	}

	var buf [floatSize]byte
	for _, v := range data {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		if _, err := w.Write(buf[:]); err != nil {
			_ = tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return err
	}

	var trailer [trailerSize]byte
	binary.LittleEndian.PutUint32(trailer[:], crc.Sum32())
	if _, err := tmp.Write(trailer[:]); err != nil {
		_ = tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync vector file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace vector file: %w", err)
	}
	tmpName = ""

	syncDir(filepath.Dir(path))
	return nil
}

// readVectorFile loads and validates a vector file written by writeVectorFile.
// Returns the flat float32 payload and the stored count.
func readVectorFile(path string, dim int) ([]float32, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	if len(raw) < headerSize+trailerSize {
		return nil, 0, fmt.Errorf("vector file too small: %d bytes", len(raw))
	}

	var magic [8]byte
	copy(magic[:], raw[:8])
	if magic != fileMagic {
		return nil, 0, errors.New("vector file magic mismatch")
	}

	body := raw[:len(raw)-trailerSize]
	want := binary.LittleEndian.Uint32(raw[len(raw)-trailerSize:])
	if got := crc32.ChecksumIEEE(body); got != want {
		return nil, 0, fmt.Errorf("vector file checksum mismatch: %08x != %08x", got, want)
	}

	onDiskDim := int(binary.LittleEndian.Uint32(raw[8:12]))
	if onDiskDim != dim {
		return nil, 0, fmt.Errorf("vector file dim=%d, configured dim=%d", onDiskDim, dim)
	}

	count := binary.LittleEndian.Uint64(raw[12:20])
	payload := body[headerSize:]
	if uint64(len(payload)) != count*uint64(dim)*floatSize {
		return nil, 0, fmt.Errorf("vector file holds %d bytes, header claims %d vectors", len(payload), count)
	}

	data := make([]float32, len(payload)/floatSize)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*floatSize:]))
	}
	return data, int(count), nil
}

// syncDir flushes a directory entry after a rename. Best effort; some
// platforms cannot open directories for sync.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
