package formats

import (
	"bytes"
	"encoding/binary"
	"math"
)

// builder assembles little-endian test fixtures.
type builder struct {
	buf bytes.Buffer
}

func (b *builder) u32(vs ...uint32) *builder {
	for _, v := range vs {
		binary.Write(&b.buf, binary.LittleEndian, v)
	}
	return b
}

func (b *builder) i32(v int32) *builder {
	binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

func (b *builder) u16(vs ...uint16) *builder {
	for _, v := range vs {
		binary.Write(&b.buf, binary.LittleEndian, v)
	}
	return b
}

func (b *builder) i16(vs ...int16) *builder {
	for _, v := range vs {
		binary.Write(&b.buf, binary.LittleEndian, v)
	}
	return b
}

func (b *builder) f32(vs ...float32) *builder {
	for _, v := range vs {
		b.u32(math.Float32bits(v))
	}
	return b
}

func (b *builder) str(s string) *builder {
	b.u32(uint32(len(s)))
	b.buf.WriteString(s)
	return b
}

func (b *builder) pad(n int) *builder {
	b.buf.Write(make([]byte, n))
	return b
}

func (b *builder) raw(data []byte) *builder {
	b.buf.Write(data)
	return b
}

func (b *builder) bytes() []byte {
	return b.buf.Bytes()
}

// texSpec describes one texture entry as stored on disk.
type texSpec struct {
	format, width, height, mips uint32
	data                        []byte
}

const testReserved = 0xABCD

// makeTEX lays out a texture container: header, info block, then entries.
func makeTEX(info string, entries ...texSpec) []byte {
	var b builder
	infoOffset := 0x10 + 8*len(entries)
	b.u32(TEXVersion, uint32(len(entries)+1), testReserved, uint32(infoOffset))

	offset := infoOffset + 4 + len(info)
	for _, e := range entries {
		b.u32(e.format, uint32(offset))
		offset += 20 + len(e.data)
	}
	b.str(info)
	for _, e := range entries {
		b.u32(e.format, e.width, e.height, e.mips, uint32(len(e.data)))
		b.raw(e.data)
	}
	return b.bytes()
}

// makeDDS builds a DDS image with the given pixel format.
func makeDDS(width, height, mips uint32, pf DDSPixelFormat, data []byte) []byte {
	h := DDSHeader{
		Magic:       DDSMagic,
		Size:        124,
		Height:      height,
		Width:       width,
		MipMapCount: mips,
		PixelFormat: pf,
	}
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, &h)
	buf.Write(data)
	return buf.Bytes()
}

func maskFormat(m ddsMask) DDSPixelFormat {
	return DDSPixelFormat{
		Size:        32,
		Flags:       ddpfRGB,
		RGBBitCount: m.bits,
		RBitMask:    m.r,
		GBitMask:    m.g,
		BBitMask:    m.b,
		ABitMask:    m.a,
	}
}

func fourCCFormat(cc string) DDSPixelFormat {
	pf := DDSPixelFormat{Size: 32, Flags: ddpfFourCC}
	copy(pf.FourCC[:], cc)
	return pf
}

// meshSpec describes one mesh of a mesh group.
type meshSpec struct {
	name        string
	padding     []uint32 // words read before the real vertex count
	vertexCount uint32
	indices     []uint16
	layout      []MSHAttribute
	vertices    []byte
	submeshes   [][3]uint32 // start, count, material index
}

func meshGroup(meshes ...meshSpec) []byte {
	var b builder
	b.u32(uint32(len(meshes)))
	for _, m := range meshes {
		b.str(m.name).pad(2)
		b.u32(m.padding...)
		b.u32(m.vertexCount, uint32(len(m.indices)))
		b.u16(m.indices...)
		b.u32(uint32(len(m.layout)))
		for _, attr := range m.layout {
			b.u32(attr.DataType, attr.Assignment).pad(2)
		}
		b.raw(m.vertices)
		b.u32(uint32(len(m.submeshes)))
		for _, s := range m.submeshes {
			b.u32(s[0], s[1], s[2]).pad(4)
		}
	}
	return b.bytes()
}

// mshTables builds the material name and bone tables of the info block.
func mshTables(materials []string, bones ...MSHBone) []byte {
	var b builder
	b.u32(uint32(len(materials)))
	for _, m := range materials {
		b.str(m)
	}
	b.u32(uint32(len(bones)))
	for _, bone := range bones {
		b.str(bone.Name)
		for row := 0; row < 4; row++ {
			for col := 0; col < 3; col++ {
				b.f32(bone.Matrix.At(row, col))
			}
		}
		b.i32(bone.Index)
	}
	return b.pad(1).bytes()
}

// makeMSH lays out a mesh container: header, tables, then mesh groups.
func makeMSH(version uint32, tables []byte, groups ...[]byte) []byte {
	var b builder
	headerSize := 0x10 + 8*len(groups)
	b.u32(version, uint32(len(groups)+1), 0, uint32(headerSize))

	offset := headerSize + len(tables)
	for _, g := range groups {
		b.u32(0, uint32(offset))
		offset += len(g)
	}
	b.raw(tables)
	for _, g := range groups {
		b.raw(g)
	}
	return b.bytes()
}
