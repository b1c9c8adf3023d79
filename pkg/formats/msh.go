package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Vertex attribute assignments. Codes 1-3, 6 and 7 are consumed but not
// interpreted.
const (
	AssignPosition uint32 = 0
	AssignUV       uint32 = 4
	AssignNormal   uint32 = 5
	maxAssignment  uint32 = 7
)

const (
	maxVertexCount  = 0xFFFF
	meshNamePadding = 2
	layoutPadding   = 2
	submeshPadding  = 4
)

// Vertex attribute data types. Types 8, 9 and 10 are four opaque bytes.
const (
	DataFloat2   uint32 = 1
	DataFloat3   uint32 = 2
	DataOpaque8  uint32 = 8
	DataOpaque9  uint32 = 9
	DataOpaque10 uint32 = 10
	DataShort2   uint32 = 11
)

// shortScale normalizes DataShort2 components.
const shortScale = 2048

// dataTypeSize returns the byte width of one attribute value.
func dataTypeSize(t uint32) (int, bool) {
	switch t {
	case DataFloat2:
		return 8, true
	case DataFloat3:
		return 12, true
	case DataOpaque8, DataOpaque9, DataOpaque10, DataShort2:
		return 4, true
	}
	return 0, false
}

// MSHAttribute is one entry of a mesh's vertex layout.
type MSHAttribute struct {
	Assignment uint32
	DataType   uint32
}

// Interpreted reports whether the attribute's values are kept.
func (a MSHAttribute) Interpreted() bool {
	switch a.Assignment {
	case AssignPosition, AssignUV, AssignNormal:
	default:
		return false
	}
	return a.DataType == DataFloat2 || a.DataType == DataFloat3 || a.DataType == DataShort2
}

// MSHBone is a raw bone record. No hierarchy is built from it.
type MSHBone struct {
	Name   string
	Matrix mgl32.Mat4x3 // 4 rows of 3 as stored
	Index  int32
}

// MSHSubmesh binds a range of a mesh's triangle indices to a material.
type MSHSubmesh struct {
	IndexStart    uint32 // in indices; byte offset is IndexStart*2
	IndexCount    uint32
	MaterialIndex uint32
	Indices       []uint16
	Material      *MaterialBinding // nil when the material could not be resolved
}

// MaterialBinding is a resolved material with its textures.
type MaterialBinding struct {
	Name     string
	Material *Material
	Base     *TEX
	Normal   *TEX
	Specular *TEX
	TwoSided bool
}

// MSHMesh is one mesh of a mesh group.
type MSHMesh struct {
	Name        string
	VertexCount uint32
	Layout      []MSHAttribute
	Positions   []float32
	UVs         []float32
	Normals     []float32
	Indices     []uint16
	Submeshes   []MSHSubmesh
}

// stride returns the float count per vertex of an attribute buffer.
func (m *MSHMesh) stride(buf []float32) int {
	if m.VertexCount == 0 {
		return 0
	}
	return len(buf) / int(m.VertexCount)
}

// PositionVec3 returns one position per vertex. Two-component positions get
// a zero Z.
func (m *MSHMesh) PositionVec3() []mgl32.Vec3 {
	n := m.stride(m.Positions)
	if n < 2 {
		return nil
	}
	out := make([]mgl32.Vec3, m.VertexCount)
	for i := range out {
		p := m.Positions[i*n:]
		out[i] = mgl32.Vec3{p[0], p[1], 0}
		if n >= 3 {
			out[i][2] = p[2]
		}
	}
	return out
}

// UVVec2 returns one texture coordinate per vertex, or nil without UVs.
func (m *MSHMesh) UVVec2() []mgl32.Vec2 {
	n := m.stride(m.UVs)
	if n < 2 {
		return nil
	}
	out := make([]mgl32.Vec2, m.VertexCount)
	for i := range out {
		out[i] = mgl32.Vec2{m.UVs[i*n], m.UVs[i*n+1]}
	}
	return out
}

// MSH is a parsed mesh container.
type MSH struct {
	Header        Header
	MaterialNames []string
	Bones         []MSHBone
	Meshes        []MSHMesh
	Materials     map[uint32]*MaterialBinding // resolved bindings by material index
	SidecarErrors []error                     // each wraps ErrSidecarResolution
}

// MSHOption configures ParseMSH.
type MSHOption func(*mshOptions)

type mshOptions struct {
	resolver    SidecarResolver
	logger      *zap.Logger
	cache       bool
	textureExt  string
	materialExt string
	texOpts     []TEXOption
}

// WithResolver sets where sidecars are loaded from. Without a resolver no
// materials are bound.
func WithResolver(r SidecarResolver) MSHOption {
	return func(o *mshOptions) { o.resolver = r }
}

// WithLogger sets the logger used for sidecar diagnostics.
func WithLogger(l *zap.Logger) MSHOption {
	return func(o *mshOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTextureCache toggles reuse of textures referenced by several
// materials within one parse.
func WithTextureCache(enabled bool) MSHOption {
	return func(o *mshOptions) { o.cache = enabled }
}

// WithSidecarExtensions overrides the texture and material file extensions.
func WithSidecarExtensions(texture, material string) MSHOption {
	return func(o *mshOptions) {
		o.textureExt = texture
		o.materialExt = material
	}
}

// WithTextureOptions passes options to every texture sidecar parse.
func WithTextureOptions(opts ...TEXOption) MSHOption {
	return func(o *mshOptions) { o.texOpts = append(o.texOpts, opts...) }
}

// ParseMSH parses a mesh container and resolves its sidecars.
func ParseMSH(data []byte, opts ...MSHOption) (*MSH, error) {
	o := mshOptions{
		logger:      zap.NewNop(),
		cache:       true,
		textureExt:  ".tex",
		materialExt: ".mtl",
	}
	for _, opt := range opts {
		opt(&o)
	}

	if len(data) < 4 {
		return nil, ErrTruncatedHeader
	}
	if !IsMSH(data) {
		v, _ := leadingVersion(data)
		return nil, fmt.Errorf("%w: mesh version %d, want %d-%d", ErrInvalidFormat, v, MSHMinVersion, MSHMaxVersion)
	}

	r := bytes.NewReader(data)
	hdr, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	d := &mshDecoder{
		opts:     o,
		msh:      &MSH{Header: hdr, Materials: make(map[uint32]*MaterialBinding)},
		bindings: make(map[uint32]*MaterialBinding),
		textures: make(map[string]*TEX),
	}

	if err := seekTo(r, hdr.InfoOffset, "info block"); err != nil {
		return nil, err
	}
	if err := d.readTables(r); err != nil {
		return nil, err
	}

	for i, e := range hdr.Entries {
		if err := seekTo(r, e.Offset, "mesh group"); err != nil {
			return nil, fmt.Errorf("mesh group %d: %w", i, err)
		}
		count, err := readUint32(r, "mesh count")
		if err != nil {
			return nil, fmt.Errorf("mesh group %d: %w", i, err)
		}
		if count == 0 {
			break
		}
		for j := uint32(0); j < count; j++ {
			mesh, err := d.readMesh(r)
			if err != nil {
				return nil, fmt.Errorf("mesh group %d, mesh %d: %w", i, j, err)
			}
			d.msh.Meshes = append(d.msh.Meshes, mesh)
		}
	}

	return d.msh, nil
}

// ParseMSHFile parses a mesh container from disk, resolving sidecars from
// the file's directory unless a resolver is given.
func ParseMSHFile(path string, opts ...MSHOption) (*MSH, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading MSH file: %w", err)
	}
	opts = append([]MSHOption{WithResolver(DirResolver(filepath.Dir(path)))}, opts...)
	return ParseMSH(data, opts...)
}

// mshDecoder holds the state of one ParseMSH call.
type mshDecoder struct {
	opts     mshOptions
	msh      *MSH
	bindings map[uint32]*MaterialBinding // every attempted index, nil on failure
	textures map[string]*TEX
}

// readTables reads the material name table and the bone table.
func (d *mshDecoder) readTables(r *bytes.Reader) error {
	count, err := readUint32(r, "material count")
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		name, err := readSizedString(r, "material name")
		if err != nil {
			return err
		}
		d.msh.MaterialNames = append(d.msh.MaterialNames, name)
	}

	count, err = readUint32(r, "bone count")
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		var bone MSHBone
		if bone.Name, err = readSizedString(r, "bone name"); err != nil {
			return err
		}
		var m [12]float32
		if err := binary.Read(r, binary.LittleEndian, &m); err != nil {
			return fmt.Errorf("%w: reading bone matrix", ErrTruncatedData)
		}
		for row := 0; row < 4; row++ {
			for col := 0; col < 3; col++ {
				bone.Matrix.Set(row, col, m[row*3+col])
			}
		}
		if err := binary.Read(r, binary.LittleEndian, &bone.Index); err != nil {
			return fmt.Errorf("%w: reading bone index", ErrTruncatedData)
		}
		d.msh.Bones = append(d.msh.Bones, bone)
	}
	return nil
}

func (d *mshDecoder) readMesh(r *bytes.Reader) (MSHMesh, error) {
	var mesh MSHMesh
	var err error

	if mesh.Name, err = readSizedString(r, "mesh name"); err != nil {
		return mesh, err
	}
	if err := skip(r, meshNamePadding, "mesh padding"); err != nil {
		return mesh, err
	}

	// Zero or oversized words before the vertex count are padding.
	for mesh.VertexCount == 0 || mesh.VertexCount > maxVertexCount {
		if mesh.VertexCount, err = readUint32(r, "vertex count"); err != nil {
			return mesh, err
		}
	}

	faceCount, err := readUint32(r, "index count")
	if err != nil {
		return mesh, err
	}
	raw, err := readBytes(r, int(faceCount)*2, "triangle indices")
	if err != nil {
		return mesh, err
	}
	mesh.Indices = make([]uint16, faceCount)
	for i := range mesh.Indices {
		mesh.Indices[i] = binary.LittleEndian.Uint16(raw[i*2:])
	}

	if mesh.Layout, err = readLayout(r); err != nil {
		return mesh, err
	}
	if err := mesh.readVertices(r); err != nil {
		return mesh, err
	}

	subCount, err := readUint32(r, "submesh count")
	if err != nil {
		return mesh, err
	}
	for i := uint32(0); i < subCount; i++ {
		sub, err := d.readSubmesh(r, mesh.Indices)
		if err != nil {
			return mesh, fmt.Errorf("submesh %d: %w", i, err)
		}
		mesh.Submeshes = append(mesh.Submeshes, sub)
	}
	return mesh, nil
}

// readLayout reads (data type, assignment) pairs, each followed by padding.
func readLayout(r *bytes.Reader) ([]MSHAttribute, error) {
	count, err := readUint32(r, "layout count")
	if err != nil {
		return nil, err
	}

	var layout []MSHAttribute
	for i := uint32(0); i < count; i++ {
		var attr MSHAttribute
		if attr.DataType, err = readUint32(r, "attribute type"); err != nil {
			return nil, err
		}
		if attr.Assignment, err = readUint32(r, "attribute assignment"); err != nil {
			return nil, err
		}
		if err := skip(r, layoutPadding, "layout padding"); err != nil {
			return nil, err
		}

		if _, ok := dataTypeSize(attr.DataType); !ok {
			return nil, fmt.Errorf("%w: data type %d", ErrUnsupportedVertexAttribute, attr.DataType)
		}
		if attr.Assignment > maxAssignment {
			return nil, fmt.Errorf("%w: assignment %d", ErrUnsupportedVertexAttribute, attr.Assignment)
		}
		layout = append(layout, attr)
	}
	return layout, nil
}

// readVertices reads the interleaved vertex block described by the layout.
func (m *MSHMesh) readVertices(r *bytes.Reader) error {
	stride := 0
	for _, attr := range m.Layout {
		size, _ := dataTypeSize(attr.DataType)
		stride += size
	}

	block, err := readBytes(r, stride*int(m.VertexCount), "vertex data")
	if err != nil {
		return err
	}

	off := 0
	for v := uint32(0); v < m.VertexCount; v++ {
		for _, attr := range m.Layout {
			size, _ := dataTypeSize(attr.DataType)
			values := block[off : off+size]
			off += size

			var dst *[]float32
			switch attr.Assignment {
			case AssignPosition:
				dst = &m.Positions
			case AssignUV:
				dst = &m.UVs
			case AssignNormal:
				dst = &m.Normals
			default:
				continue
			}

			switch attr.DataType {
			case DataFloat2, DataFloat3:
				for i := 0; i < size; i += 4 {
					*dst = append(*dst, math.Float32frombits(binary.LittleEndian.Uint32(values[i:])))
				}
			case DataShort2:
				for i := 0; i < size; i += 2 {
					*dst = append(*dst, float32(int16(binary.LittleEndian.Uint16(values[i:])))/shortScale)
				}
			}
		}
	}
	return nil
}

func (d *mshDecoder) readSubmesh(r *bytes.Reader, indices []uint16) (MSHSubmesh, error) {
	var sub MSHSubmesh
	var err error

	if sub.IndexStart, err = readUint32(r, "index start"); err != nil {
		return sub, err
	}
	if sub.IndexCount, err = readUint32(r, "index count"); err != nil {
		return sub, err
	}
	if sub.MaterialIndex, err = readUint32(r, "material index"); err != nil {
		return sub, err
	}
	if err := skip(r, submeshPadding, "submesh padding"); err != nil {
		return sub, err
	}

	// Ranges past the index blob are clamped; some shipped models have them.
	start := min(uint64(sub.IndexStart), uint64(len(indices)))
	end := min(uint64(sub.IndexStart)+uint64(sub.IndexCount), uint64(len(indices)))
	if end-start < uint64(sub.IndexCount) {
		d.opts.logger.Warn("submesh index range clamped",
			zap.Uint32("start", sub.IndexStart),
			zap.Uint32("count", sub.IndexCount),
			zap.Int("indices", len(indices)))
	}
	sub.Indices = indices[start:end]
	sub.Material = d.material(sub.MaterialIndex)
	return sub, nil
}
