package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Faultbox/bullyae-tools/pkg/encoding"
)

// Container versions.
const (
	TEXVersion    = 7
	MSHMinVersion = 6
	MSHMaxVersion = 12
)

// headerFixedSize covers version, stored count, reserved slot and info offset.
const headerFixedSize = 0x10

// Entry is one (format, offset) pair of the container's entry table.
type Entry struct {
	Format uint32
	Offset uint32
}

// Header is the envelope shared by texture and mesh containers.
type Header struct {
	Version    uint32
	EntryCount uint32 // real entry count; stored on disk as EntryCount+1
	Reserved   uint32 // slot at 0x8, kept verbatim
	InfoOffset uint32
	Entries    []Entry
}

// Size returns the encoded header length in bytes.
func (h Header) Size() int {
	return headerFixedSize + 8*len(h.Entries)
}

// ReadHeader reads a container header from the start of r.
func ReadHeader(r io.ReadSeeker) (Header, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return Header{}, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Header{}, err
	}

	var fixed struct {
		Version     uint32
		StoredCount uint32
		Reserved    uint32
		InfoOffset  uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &fixed); err != nil {
		return Header{}, fmt.Errorf("%w: reading fixed fields", ErrTruncatedHeader)
	}
	if fixed.StoredCount == 0 {
		return Header{}, fmt.Errorf("%w: stored entry count is 0", ErrInvalidFormat)
	}

	h := Header{
		Version:    fixed.Version,
		EntryCount: fixed.StoredCount - 1,
		Reserved:   fixed.Reserved,
		InfoOffset: fixed.InfoOffset,
	}
	if headerFixedSize+8*int64(h.EntryCount) > size {
		return Header{}, fmt.Errorf("%w: %d entries declared, stream is %d bytes",
			ErrTruncatedHeader, h.EntryCount, size)
	}

	h.Entries = make([]Entry, h.EntryCount)
	if err := binary.Read(r, binary.LittleEndian, h.Entries); err != nil {
		return Header{}, fmt.Errorf("%w: reading entry table", ErrTruncatedHeader)
	}
	return h, nil
}

// EncodeTo writes the header in its on-disk layout.
func (h Header) EncodeTo(w io.Writer) error {
	fixed := [4]uint32{h.Version, h.EntryCount + 1, h.Reserved, h.InfoOffset}
	if err := binary.Write(w, binary.LittleEndian, fixed); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, h.Entries)
}

// MarshalBinary returns the on-disk bytes of the header.
func (h Header) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(h.Size())
	if err := h.EncodeTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func leadingVersion(data []byte) (uint32, bool) {
	if len(data) < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(data), true
}

// IsTEX reports whether data starts with the texture container version.
func IsTEX(data []byte) bool {
	v, ok := leadingVersion(data)
	return ok && v == TEXVersion
}

// IsMSH reports whether data starts with a mesh container version.
func IsMSH(data []byte) bool {
	v, ok := leadingVersion(data)
	return ok && v >= MSHMinVersion && v <= MSHMaxVersion
}

// readUint32 reads one little-endian uint32, mapping short reads to
// ErrTruncatedData.
func readUint32(r *bytes.Reader, what string) (uint32, error) {
	var v uint32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, fmt.Errorf("%w: reading %s", ErrTruncatedData, what)
	}
	return v, nil
}

// readBytes reads exactly n bytes.
func readBytes(r *bytes.Reader, n int, what string) ([]byte, error) {
	if n < 0 || n > r.Len() {
		return nil, fmt.Errorf("%w: %s needs %d bytes, %d left", ErrTruncatedData, what, n, r.Len())
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: reading %s", ErrTruncatedData, what)
	}
	return buf, nil
}

// readSizedString reads a uint32 length followed by that many text bytes.
func readSizedString(r *bytes.Reader, what string) (string, error) {
	n, err := readUint32(r, what+" length")
	if err != nil {
		return "", err
	}
	raw, err := readBytes(r, int(n), what)
	if err != nil {
		return "", err
	}
	return encoding.DecodeText(raw), nil
}

// skip advances r by n bytes.
func skip(r *bytes.Reader, n int64, what string) error {
	if n > int64(r.Len()) {
		return fmt.Errorf("%w: skipping %s", ErrTruncatedData, what)
	}
	_, err := r.Seek(n, io.SeekCurrent)
	return err
}

// seekTo moves r to an absolute offset inside the container.
func seekTo(r *bytes.Reader, off uint32, what string) error {
	if int64(off) > r.Size() {
		return fmt.Errorf("%w: %s offset 0x%X past end (size 0x%X)", ErrTruncatedData, what, off, r.Size())
	}
	_, err := r.Seek(int64(off), io.SeekStart)
	return err
}
