package encoding

// Material sidecars store their info text as a stream of key characters,
// each carrying 5 bits, followed by an additive keystream. Nothing here is
// cryptographic; the transform is fully reversible.

// obfuscationKey maps 5-bit values to stream characters.
const obfuscationKey = "6Ev2GlK1sWoCa5MfQ0pj43DH8Rzi9UnX"

const (
	obfuscationHashSeed = 0x0CEB538D
	obfuscationXorSeed  = 18
	obfuscationXorStep  = 6
)

// reverseKey maps stream characters back to their 5-bit value. Characters
// outside the key map to zero.
var reverseKey = func() [256]byte {
	var table [256]byte
	for i := 0; i < len(obfuscationKey); i++ {
		table[obfuscationKey[i]] = byte(i)
	}
	return table
}()

func nextHash(h uint32) uint32 {
	return 0xAB*(h%0xB1) - 2*(h/0xB1)
}

// Deobfuscate decodes a material text stream (the bytes after the "Wx"
// magic) into text.
func Deobfuscate(src []byte) string {
	return DecodeText(DeobfuscateBytes(src))
}

// DeobfuscateBytes decodes a material text stream into raw bytes.
func DeobfuscateBytes(src []byte) []byte {
	buf := deobfuscate(src)
	return buf[:len(buf)-1]
}

// deobfuscate returns the decoded buffer including its trailing pad byte.
func deobfuscate(src []byte) []byte {
	size := 5 * len(src) >> 3
	out := make([]byte, size+1)

	// phase is the bit position of the next 5-bit group inside out[pos].
	phase, pos := 0, 0
	for _, c := range src {
		v := reverseKey[c]
		if phase <= 3 {
			out[pos] |= v << (3 - phase)
		} else {
			out[pos] |= v >> (phase - 3)
			out[pos+1] |= v << (11 - phase)
		}

		next := (phase + 5) % 8
		if next < phase {
			pos++
		}
		phase = next
	}

	h := uint32(obfuscationHashSeed)
	key := byte(obfuscationXorSeed)
	for i := 0; i < size; i++ {
		h = nextHash(h)
		out[i] = (out[i] ^ key) + byte(h)
		key += obfuscationXorStep
	}
	return out
}

// Obfuscate is the inverse of DeobfuscateBytes.
func Obfuscate(plain []byte) []byte {
	packed := make([]byte, len(plain))
	h := uint32(obfuscationHashSeed)
	key := byte(obfuscationXorSeed)
	for i, b := range plain {
		h = nextHash(h)
		packed[i] = (b - byte(h)) ^ key
		key += obfuscationXorStep
	}

	out := make([]byte, (8*len(plain)+4)/5)
	for i := range out {
		bit := 5 * i
		idx, off := bit/8, bit%8
		window := uint16(packed[idx]) << 8
		if idx+1 < len(packed) {
			window |= uint16(packed[idx+1])
		}
		out[i] = obfuscationKey[(window>>(11-off))&0x1F]
	}
	return out
}
