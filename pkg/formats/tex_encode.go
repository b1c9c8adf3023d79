package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"

	"github.com/Faultbox/bullyae-tools/pkg/encoding"
	"github.com/Faultbox/bullyae-tools/pkg/metatext"
)

// EncodeOption configures EncodeTEX.
type EncodeOption func(*encodeOptions)

type encodeOptions struct {
	level int
}

// WithCompressionLevel sets the zlib level used when compressing.
func WithCompressionLevel(level int) EncodeOption {
	return func(o *encodeOptions) { o.level = level }
}

// infoKeyPatterns match "key=value" in a raw info block. The key must not
// be preceded by a name character; the value runs to the next separator.
var infoKeyPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	for _, key := range []string{"mode", "width", "height", "nomips", "compressondisk"} {
		patterns[key] = regexp.MustCompile(`(?i)(?:^|[^0-9a-z_])(` + regexp.QuoteMeta(key) + `=[^,}\]\s]*)`)
	}
	return patterns
}()

// rewriteInfoKey replaces every "key=old" in info with "key=value" and
// reports whether the key was present.
func rewriteInfoKey(info []byte, key, value string) ([]byte, bool) {
	re, ok := infoKeyPatterns[key]
	if !ok {
		return info, false
	}
	locs := re.FindAllSubmatchIndex(info, -1)
	if len(locs) == 0 {
		return info, false
	}
	out := make([]byte, 0, len(info)+len(locs)*len(value))
	last := 0
	for _, loc := range locs {
		out = append(out, info[last:loc[2]]...)
		out = append(out, key+"="+value...)
		last = loc[3]
	}
	return append(out, info[last:]...), true
}

// addInfoKey appends "key=value" to info, inside the outer braces when the
// block has them. Trailing NULs stay at the end.
func addInfoKey(info []byte, key, value string) []byte {
	body := bytes.TrimRight(info, "\x00")
	at := len(body)
	if trimmed := bytes.TrimSpace(body); bytes.HasPrefix(trimmed, []byte("{")) && bytes.HasSuffix(trimmed, []byte("}")) {
		at = bytes.LastIndexByte(body, '}')
	}

	pair := key + "=" + value
	prev := bytes.TrimRight(body[:at], " \t\r\n")
	if len(prev) > 0 {
		if c := prev[len(prev)-1]; c != '{' && c != ',' {
			pair = "," + pair
		}
	}
	at = len(prev)

	out := make([]byte, 0, len(info)+len(pair))
	out = append(out, info[:at]...)
	out = append(out, pair...)
	return append(out, info[at:]...)
}

// EncodeTEX builds a single-entry texture container from a DDS image and
// the info block of an existing container. The existing header's version
// and reserved slot are kept; every other entry is dropped.
func EncodeTEX(dds, existing []byte, compress bool, opts ...EncodeOption) ([]byte, error) {
	o := encodeOptions{level: DefaultCompressionLevel}
	for _, opt := range opts {
		opt(&o)
	}

	img, err := ParseDDS(dds)
	if err != nil {
		return nil, err
	}
	format, payload, err := img.TEXPayload()
	if err != nil {
		return nil, err
	}

	if len(existing) < 4 {
		return nil, ErrTruncatedHeader
	}
	if !IsTEX(existing) {
		return nil, fmt.Errorf("%w: target is not a texture container", ErrInvalidFormat)
	}
	r := bytes.NewReader(existing)
	hdr, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if err := seekTo(r, hdr.InfoOffset, "info block"); err != nil {
		return nil, err
	}
	n, err := readUint32(r, "info block length")
	if err != nil {
		return nil, err
	}
	info, err := readBytes(r, int(n), "info block")
	if err != nil {
		return nil, err
	}
	if _, err := metatext.Parse(encoding.DecodeText(info)); err != nil {
		return nil, fmt.Errorf("parsing info block: %w", err)
	}

	if compress {
		if payload, err = packCompressed(payload, o.level); err != nil {
			return nil, fmt.Errorf("compressing pixel data: %w", err)
		}
	}

	nomips := "true"
	if img.Header.MipMapCount > 1 {
		nomips = "false"
	}
	info, _ = rewriteInfoKey(info, "mode", format.Mode())
	info, _ = rewriteInfoKey(info, "width", strconv.FormatUint(uint64(img.Header.Width), 10))
	info, _ = rewriteInfoKey(info, "height", strconv.FormatUint(uint64(img.Header.Height), 10))
	info, _ = rewriteInfoKey(info, "nomips", nomips)
	info, found := rewriteInfoKey(info, "compressondisk", strconv.FormatBool(compress))
	// A missing key reads as uncompressed, so a compressed payload needs it.
	if !found && compress {
		info = addInfoKey(info, "compressondisk", "true")
	}

	out := Header{
		Version:    hdr.Version,
		EntryCount: 1,
		Reserved:   hdr.Reserved,
		InfoOffset: headerFixedSize + 8,
	}
	out.Entries = []Entry{{
		Format: uint32(format),
		Offset: out.InfoOffset + 4 + uint32(len(info)),
	}}

	var buf bytes.Buffer
	buf.Grow(int(out.Entries[0].Offset) + 20 + len(payload))
	if err := out.EncodeTo(&buf); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(info))); err != nil {
		return nil, err
	}
	buf.Write(info)

	entry := [...]uint32{
		uint32(format),
		img.Header.Width,
		img.Header.Height,
		img.Header.MipMapCount,
		uint32(len(payload)),
	}
	if err := binary.Write(&buf, binary.LittleEndian, entry); err != nil {
		return nil, err
	}
	buf.Write(payload)
	return buf.Bytes(), nil
}
