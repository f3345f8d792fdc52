package osmnetwork

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"unsafe"

	"windloop/pkg/fullgraph"
)

const (
	cacheMagic   = "WLOOPNET"
	cacheVersion = uint32(1)
	maxCacheNodes = 10_000_000
	maxCacheEdges = 50_000_000
)

// cacheHeader is the binary header. The bounding box is stored so a reader
// can confirm the cached graph actually covers the region it is about to
// be asked for, without re-parsing the source PBF.
type cacheHeader struct {
	Magic    [8]byte
	Version  uint32
	NumNodes uint32
	NumEdges uint32
	BBox     BBox
}

// WriteCache serializes a fullgraph.Graph keyed by the bounding box it was
// built from, following the teacher's magic-bytes/CRC32-trailer/unsafe.Slice
// binary format, generalized to this graph's field set.
func WriteCache(path string, g *fullgraph.Graph, bbox BBox) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath)
	}()

	crcWriter := crc32Writer{w: f, hash: crc32.NewIEEE()}
	w := &crcWriter

	hdr := cacheHeader{
		Version:  cacheVersion,
		NumNodes: g.NumNodes,
		NumEdges: g.NumEdges,
		BBox:     bbox,
	}
	copy(hdr.Magic[:], cacheMagic)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if err := writeUint32Slice(w, g.FirstOut); err != nil {
		return fmt.Errorf("write FirstOut: %w", err)
	}
	if err := writeUint32Slice(w, g.Head); err != nil {
		return fmt.Errorf("write Head: %w", err)
	}
	if err := writeFloat64Slice(w, g.Weight); err != nil {
		return fmt.Errorf("write Weight: %w", err)
	}
	if err := writeFloat64Slice(w, g.Bearing); err != nil {
		return fmt.Errorf("write Bearing: %w", err)
	}
	if err := writeFloat64Slice(w, g.NodeLat); err != nil {
		return fmt.Errorf("write NodeLat: %w", err)
	}
	if err := writeFloat64Slice(w, g.NodeLon); err != nil {
		return fmt.Errorf("write NodeLon: %w", err)
	}
	if err := writeBoolSlice(w, g.IsJunction); err != nil {
		return fmt.Errorf("write IsJunction: %w", err)
	}
	if err := writeStringSlice(w, g.Label); err != nil {
		return fmt.Errorf("write Label: %w", err)
	}
	if err := writeUint64Slice(w, g.EdgeRawID); err != nil {
		return fmt.Errorf("write EdgeRawID: %w", err)
	}

	// Geometry is length-prefixed: small synthetic graphs built directly by
	// tests may carry no shape points at all.
	if err := writeLenPrefixedUint32(w, g.GeoFirstOut); err != nil {
		return fmt.Errorf("write GeoFirstOut: %w", err)
	}
	if err := writeLenPrefixedFloat64(w, g.GeoShapeLat); err != nil {
		return fmt.Errorf("write GeoShapeLat: %w", err)
	}
	if err := writeLenPrefixedFloat64(w, g.GeoShapeLon); err != nil {
		return fmt.Errorf("write GeoShapeLon: %w", err)
	}

	checksum := crcWriter.hash.Sum32()
	if err := binary.Write(f, binary.LittleEndian, checksum); err != nil {
		return fmt.Errorf("write CRC32: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// ReadCache deserializes a fullgraph.Graph and the bounding box it was
// cached under. Callers should treat a cache whose BBox does not cover the
// requested region as a miss and fall back to Loader.Fetch.
func ReadCache(path string) (*fullgraph.Graph, BBox, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, BBox{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	crcReader := crc32Reader{r: f, hash: crc32.NewIEEE()}
	r := &crcReader

	var hdr cacheHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, BBox{}, fmt.Errorf("read header: %w", err)
	}
	if string(hdr.Magic[:]) != cacheMagic {
		return nil, BBox{}, fmt.Errorf("invalid magic bytes: %q", hdr.Magic)
	}
	if hdr.Version != cacheVersion {
		return nil, BBox{}, fmt.Errorf("unsupported cache version: %d", hdr.Version)
	}
	if hdr.NumNodes > maxCacheNodes {
		return nil, BBox{}, fmt.Errorf("NumNodes %d exceeds limit %d", hdr.NumNodes, maxCacheNodes)
	}
	if hdr.NumEdges > maxCacheEdges {
		return nil, BBox{}, fmt.Errorf("NumEdges %d exceeds limit %d", hdr.NumEdges, maxCacheEdges)
	}

	g := &fullgraph.Graph{NumNodes: hdr.NumNodes, NumEdges: hdr.NumEdges}

	if g.FirstOut, err = readUint32Slice(r, int(hdr.NumNodes+1)); err != nil {
		return nil, BBox{}, fmt.Errorf("read FirstOut: %w", err)
	}
	if g.Head, err = readUint32Slice(r, int(hdr.NumEdges)); err != nil {
		return nil, BBox{}, fmt.Errorf("read Head: %w", err)
	}
	if g.Weight, err = readFloat64Slice(r, int(hdr.NumEdges)); err != nil {
		return nil, BBox{}, fmt.Errorf("read Weight: %w", err)
	}
	if g.Bearing, err = readFloat64Slice(r, int(hdr.NumEdges)); err != nil {
		return nil, BBox{}, fmt.Errorf("read Bearing: %w", err)
	}
	if g.NodeLat, err = readFloat64Slice(r, int(hdr.NumNodes)); err != nil {
		return nil, BBox{}, fmt.Errorf("read NodeLat: %w", err)
	}
	if g.NodeLon, err = readFloat64Slice(r, int(hdr.NumNodes)); err != nil {
		return nil, BBox{}, fmt.Errorf("read NodeLon: %w", err)
	}
	if g.IsJunction, err = readBoolSlice(r, int(hdr.NumNodes)); err != nil {
		return nil, BBox{}, fmt.Errorf("read IsJunction: %w", err)
	}
	if g.Label, err = readStringSlice(r, int(hdr.NumNodes)); err != nil {
		return nil, BBox{}, fmt.Errorf("read Label: %w", err)
	}
	if g.EdgeRawID, err = readUint64Slice(r, int(hdr.NumEdges)); err != nil {
		return nil, BBox{}, fmt.Errorf("read EdgeRawID: %w", err)
	}

	g.GeoFirstOut, _ = readUint32SliceOptional(r)
	g.GeoShapeLat, _ = readFloat64SliceOptional(r)
	g.GeoShapeLon, _ = readFloat64SliceOptional(r)

	expectedCRC := crcReader.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(f, binary.LittleEndian, &storedCRC); err != nil {
		return nil, BBox{}, fmt.Errorf("read CRC32: %w", err)
	}
	if storedCRC != expectedCRC {
		return nil, BBox{}, fmt.Errorf("CRC32 mismatch: stored=%08x computed=%08x", storedCRC, expectedCRC)
	}

	if err := validateCSR(g.FirstOut, g.Head, hdr.NumNodes); err != nil {
		return nil, BBox{}, fmt.Errorf("CSR invalid: %w", err)
	}

	return g, hdr.BBox, nil
}

// Covers reports whether the cached bbox fully contains the requested
// region, so a cache hit never silently under-serves a wider query.
func (b BBox) Covers(other BBox) bool {
	return b.MinLat <= other.MinLat && b.MaxLat >= other.MaxLat &&
		b.MinLon <= other.MinLon && b.MaxLon >= other.MaxLon
}

func validateCSR(firstOut, head []uint32, numNodes uint32) error {
	if uint32(len(firstOut)) != numNodes+1 {
		return fmt.Errorf("FirstOut length %d != NumNodes+1 %d", len(firstOut), numNodes+1)
	}
	numEdges := firstOut[numNodes]
	if uint32(len(head)) != numEdges {
		return fmt.Errorf("Head length %d != FirstOut[NumNodes] %d", len(head), numEdges)
	}
	for i := uint32(1); i <= numNodes; i++ {
		if firstOut[i] < firstOut[i-1] {
			return fmt.Errorf("FirstOut not monotonic at %d: %d < %d", i, firstOut[i], firstOut[i-1])
		}
	}
	for i, h := range head {
		if h >= numNodes {
			return fmt.Errorf("Head[%d]=%d >= NumNodes=%d", i, h, numNodes)
		}
	}
	return nil
}

// Zero-copy I/O helpers using unsafe.Slice, mirroring the teacher's
// pkg/graph/binary.go.

func writeUint32Slice(w io.Writer, s []uint32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeUint64Slice(w io.Writer, s []uint64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func writeFloat64Slice(w io.Writer, s []float64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func writeBoolSlice(w io.Writer, s []bool) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s))
	_, err := w.Write(b)
	return err
}

// writeStringSlice writes each string length-prefixed; string data is
// variable length and cannot use the fixed-width zero-copy path.
func writeStringSlice(w io.Writer, s []string) error {
	for _, str := range s {
		n := uint32(len(str))
		if err := binary.Write(w, binary.LittleEndian, n); err != nil {
			return err
		}
		if n > 0 {
			if _, err := w.Write([]byte(str)); err != nil {
				return err
			}
		}
	}
	return nil
}

func readUint32Slice(r io.Reader, n int) ([]uint32, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]uint32, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readUint64Slice(r io.Reader, n int) ([]uint64, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]uint64, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readFloat64Slice(r io.Reader, n int) ([]float64, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]float64, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readBoolSlice(r io.Reader, n int) ([]bool, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]bool, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readStringSlice(r io.Reader, n int) ([]string, error) {
	if n == 0 {
		return nil, nil
	}
	out := make([]string, n)
	for i := range out {
		var length uint32
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			return nil, err
		}
		if length == 0 {
			continue
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		out[i] = string(buf)
	}
	return out, nil
}

func writeLenPrefixedUint32(w io.Writer, s []uint32) error {
	n := uint32(len(s))
	if err := binary.Write(w, binary.LittleEndian, n); err != nil {
		return err
	}
	return writeUint32Slice(w, s)
}

func writeLenPrefixedFloat64(w io.Writer, s []float64) error {
	n := uint32(len(s))
	if err := binary.Write(w, binary.LittleEndian, n); err != nil {
		return err
	}
	return writeFloat64Slice(w, s)
}

func readUint32SliceOptional(r io.Reader) ([]uint32, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, nil
	}
	if n == 0 || n > math.MaxUint32/4 {
		return nil, nil
	}
	return readUint32Slice(r, int(n))
}

func readFloat64SliceOptional(r io.Reader) ([]float64, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, nil
	}
	if n == 0 || n > math.MaxUint32/8 {
		return nil, nil
	}
	return readFloat64Slice(r, int(n))
}

type crc32Hash interface {
	Write([]byte) (int, error)
	Sum32() uint32
}

type crc32Writer struct {
	w    io.Writer
	hash crc32Hash
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash crc32Hash
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
