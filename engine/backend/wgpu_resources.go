package backend

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
)

// defaultUniformBufferSize holds 1024 parameter blocks of the default layout.
const defaultUniformBufferSize = 1 << 22

// minInstanceBufferSize is the smallest instance stream allocation in bytes.
const minInstanceBufferSize = 64 * 1024

// appendFloat32s appends the little-endian bytes of src to dst.
func appendFloat32s(dst []byte, src []float32) []byte {
	for _, f := range src {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}

// appendUint32s appends the little-endian bytes of src to dst.
func appendUint32s(dst []byte, src []uint32) []byte {
	for _, v := range src {
		dst = binary.LittleEndian.AppendUint32(dst, v)
	}
	return dst
}

// uniformRing is the per-frame parameter buffer. Every draw writes its block at the next
// aligned offset and binds it with a dynamic offset. Buffers outgrown mid-frame are kept
// until the frame is submitted.
type uniformRing struct {
	initialSize uint64

	group     *wgpu.BindGroupLayout
	buffer    *wgpu.Buffer
	bindGroup *wgpu.BindGroup
	size      uint64
	offset    uint64
	staging   []float32
	bytes     []byte

	retiredBuffers []*wgpu.Buffer
	retiredGroups  []*wgpu.BindGroup
}

func (r *uniformRing) allocate(device *wgpu.Device, group *wgpu.BindGroupLayout, layout *UniformLayout, size uint64) error {
	size = alignUp(max(size, layout.AlignedSize()), uniformAlignment)
	buffer, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "parameter blocks",
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "parameter blocks",
		Layout: group,
		Entries: []wgpu.BindGroupEntry{{
			Binding: 0,
			Buffer:  buffer,
			Offset:  0,
			Size:    layout.Size(),
		}},
	})
	if err != nil {
		buffer.Release()
		return err
	}

	if r.buffer != nil {
		r.retiredBuffers = append(r.retiredBuffers, r.buffer)
		r.retiredGroups = append(r.retiredGroups, r.bindGroup)
	}
	r.group = group
	r.buffer = buffer
	r.bindGroup = bindGroup
	r.size = size
	r.offset = 0
	return nil
}

func (r *uniformRing) reset() {
	r.offset = 0
}

// push packs params into the next block and returns its dynamic offset.
func (r *uniformRing) push(device *wgpu.Device, queue *wgpu.Queue, layout *UniformLayout, params map[graphics.ShaderParam][]float32) (uint32, error) {
	if len(r.staging) != int(layout.Size()/4) {
		r.staging = make([]float32, layout.Size()/4)
	}
	used := layout.Pack(r.staging, params)
	return r.pushRaw(device, queue, layout, r.staging[:used])
}

// pushRaw writes data at the start of the next block and returns its dynamic offset.
func (r *uniformRing) pushRaw(device *wgpu.Device, queue *wgpu.Queue, layout *UniformLayout, data []float32) (uint32, error) {
	stride := layout.AlignedSize()
	if r.offset+stride > r.size {
		logger().Debug("growing parameter buffer", "from", r.size, "to", r.size*2)
		if err := r.allocate(device, r.group, layout, r.size*2); err != nil {
			return 0, fmt.Errorf("grow parameter buffer: %w", err)
		}
	}
	offset := r.offset
	if len(data) > 0 {
		r.bytes = appendFloat32s(r.bytes[:0], data)
		queue.WriteBuffer(r.buffer, offset, r.bytes)
	}
	r.offset += stride
	return uint32(offset), nil
}

func (r *uniformRing) releaseRetired() {
	for _, g := range r.retiredGroups {
		g.Release()
	}
	for _, b := range r.retiredBuffers {
		b.Release()
	}
	r.retiredGroups, r.retiredBuffers = r.retiredGroups[:0], r.retiredBuffers[:0]
}

func (r *uniformRing) release() {
	r.releaseRetired()
	if r.bindGroup != nil {
		r.bindGroup.Release()
		r.bindGroup = nil
	}
	if r.buffer != nil {
		r.buffer.Release()
		r.buffer = nil
	}
	r.size, r.offset = 0, 0
}

// instanceStream is the per-frame vertex buffer of instance transforms. Each upload is
// appended; instanced draws index into the most recent one.
type instanceStream struct {
	buffer  *wgpu.Buffer
	size    uint64
	used    uint64
	base    uint64
	count   int
	bytes   []byte
	retired []*wgpu.Buffer
}

func (s *instanceStream) reset() {
	s.used, s.base, s.count = 0, 0, 0
}

func (s *instanceStream) push(device *wgpu.Device, queue *wgpu.Queue, data []float32) error {
	n := uint64(len(data) * 4)
	if s.used+n > s.size {
		size := max(s.size*2, s.used+n, minInstanceBufferSize)
		buffer, err := device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "instance transforms",
			Size:  alignUp(size, 4),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		if s.buffer != nil {
			s.retired = append(s.retired, s.buffer)
		}
		s.buffer, s.size, s.used = buffer, alignUp(size, 4), 0
	}
	s.bytes = appendFloat32s(s.bytes[:0], data)
	queue.WriteBuffer(s.buffer, s.used, s.bytes)
	s.base = s.used
	s.count = len(data) / 12
	s.used += n
	return nil
}

// slice returns the byte range of count instances starting at start in the last upload.
func (s *instanceStream) slice(start, count int) (*wgpu.Buffer, uint64, uint64, bool) {
	if s.buffer == nil || start < 0 || start+count > s.count {
		return nil, 0, 0, false
	}
	return s.buffer, s.base + uint64(start)*instanceStride, uint64(count) * instanceStride, true
}

func (s *instanceStream) releaseRetired() {
	for _, b := range s.retired {
		b.Release()
	}
	s.retired = s.retired[:0]
}

func (s *instanceStream) release() {
	s.releaseRetired()
	if s.buffer != nil {
		s.buffer.Release()
		s.buffer = nil
	}
	s.size = 0
	s.reset()
}

type geometryBuffers struct {
	vertex, index *wgpu.Buffer
	vertexData    *float32
	vertexLen     int
	indexData     *uint32
	indexLen      int
	lastUsed      uint64
}

func (g *geometryBuffers) matches(geometry *graphics.Geometry) bool {
	return g.vertexData == &geometry.Vertices[0] && g.vertexLen == len(geometry.Vertices) &&
		g.indexData == &geometry.Indices[0] && g.indexLen == len(geometry.Indices)
}

func (g *geometryBuffers) release() {
	g.vertex.Release()
	g.index.Release()
}

type cachedBindGroup struct {
	group    *wgpu.BindGroup
	lastUsed uint64
}

type samplerKey struct {
	kind textureKind
	wrap bool
}

// resourceCache holds the GPU copies of geometry and the texture bind groups. Geometry is
// re-uploaded when its vertex or index slices are replaced; in-place edits of a drawn
// slice are not detected.
type resourceCache struct {
	geometries  map[*graphics.Geometry]*geometryBuffers
	bindGroups  map[[graphics.MaxTextureUnits]graphics.Texture]*cachedBindGroup
	samplers    map[samplerKey]*wgpu.Sampler
	placeholder *gpuTexture
	bytes       []byte
}

func (c *resourceCache) init() {
	c.geometries = make(map[*graphics.Geometry]*geometryBuffers)
	c.bindGroups = make(map[[graphics.MaxTextureUnits]graphics.Texture]*cachedBindGroup)
	c.samplers = make(map[samplerKey]*wgpu.Sampler)
}

// createDefaults creates the white texture bound to empty units.
func (c *resourceCache) createDefaults(b *wgpuBackend) error {
	t, err := b.createGPUTexture("placeholder", 1, 1, wgpu.TextureFormatRGBA8Unorm, 1,
		wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst)
	if err != nil {
		return err
	}
	b.writeTexture(t.texture, 1, 1, []byte{255, 255, 255, 255})
	c.placeholder = t
	return nil
}

func (c *resourceCache) createBuffer(device *wgpu.Device, queue *wgpu.Queue, label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (c *resourceCache) geometryBuffers(device *wgpu.Device, queue *wgpu.Queue, geometry *graphics.Geometry, frame uint64) (*geometryBuffers, error) {
	if len(geometry.Indices) == 0 || geometry.IndexStart < 0 || geometry.IndexStart+geometry.IndexCount > len(geometry.Indices) {
		return nil, fmt.Errorf("index range %d+%d outside %d indices", geometry.IndexStart, geometry.IndexCount, len(geometry.Indices))
	}
	if cached, ok := c.geometries[geometry]; ok {
		if cached.matches(geometry) {
			cached.lastUsed = frame
			return cached, nil
		}
		cached.release()
		delete(c.geometries, geometry)
	}

	c.bytes = appendFloat32s(c.bytes[:0], geometry.Vertices)
	vertex, err := c.createBuffer(device, queue, geometry.Name+" vertices", wgpu.BufferUsageVertex, c.bytes)
	if err != nil {
		return nil, err
	}
	c.bytes = appendUint32s(c.bytes[:0], geometry.Indices)
	index, err := c.createBuffer(device, queue, geometry.Name+" indices", wgpu.BufferUsageIndex, c.bytes)
	if err != nil {
		vertex.Release()
		return nil, err
	}

	g := &geometryBuffers{
		vertex:     vertex,
		index:      index,
		vertexData: &geometry.Vertices[0],
		vertexLen:  len(geometry.Vertices),
		indexData:  &geometry.Indices[0],
		indexLen:   len(geometry.Indices),
		lastUsed:   frame,
	}
	c.geometries[geometry] = g
	return g, nil
}

func (c *resourceCache) sampler(device *wgpu.Device, unit graphics.TextureUnit, kind textureKind) (*wgpu.Sampler, error) {
	key := samplerKey{kind: kind, wrap: kind == textureFilterable && unit < graphics.TULightRamp}
	if s, ok := c.samplers[key]; ok {
		return s, nil
	}

	address := wgpu.AddressModeClampToEdge
	if key.wrap {
		address = wgpu.AddressModeRepeat
	}
	desc := &wgpu.SamplerDescriptor{
		Label:         "texture sampler",
		AddressModeU:  address,
		AddressModeV:  address,
		AddressModeW:  address,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
	switch kind {
	case textureUnfilterable:
		desc.MagFilter, desc.MinFilter = wgpu.FilterModeNearest, wgpu.FilterModeNearest
	case textureDepth:
		desc.Label = "shadow comparison sampler"
		desc.Compare = wgpu.CompareFunctionLessEqual
	}
	s, err := device.CreateSampler(desc)
	if err != nil {
		return nil, err
	}
	c.samplers[key] = s
	return s, nil
}

// textureBindGroup returns the bind group of the bound textures.
func (b *wgpuBackend) textureBindGroup(kinds textureLayoutKey) (*wgpu.BindGroup, error) {
	c := &b.resources
	if cached, ok := c.bindGroups[b.textures]; ok {
		cached.lastUsed = b.frame
		return cached.group, nil
	}

	layout, err := b.textureGroupLayout(kinds)
	if err != nil {
		return nil, err
	}
	entries := make([]wgpu.BindGroupEntry, 0, 2*graphics.MaxTextureUnits)
	for unit, tex := range b.textures {
		g := c.placeholder
		if tex != nil {
			if g = gpuTextureOf(tex); g == nil {
				return nil, fmt.Errorf("texture %q at unit %d was not created by this backend", tex.Name(), unit)
			}
		}
		s, err := c.sampler(b.device, graphics.TextureUnit(unit), kinds[unit])
		if err != nil {
			return nil, err
		}
		entries = append(entries,
			wgpu.BindGroupEntry{Binding: uint32(2 * unit), TextureView: g.sampleView},
			wgpu.BindGroupEntry{Binding: uint32(2*unit + 1), Sampler: s},
		)
	}

	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "textures",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	c.bindGroups[b.textures] = &cachedBindGroup{group: group, lastUsed: b.frame}
	return group, nil
}

// evict releases geometry and bind groups unused for evictAfterFrames frames.
func (c *resourceCache) evict(frame uint64) {
	if frame < evictAfterFrames {
		return
	}
	limit := frame - evictAfterFrames
	for key, g := range c.geometries {
		if g.lastUsed < limit {
			g.release()
			delete(c.geometries, key)
		}
	}
	for key, g := range c.bindGroups {
		if g.lastUsed < limit {
			g.group.Release()
			delete(c.bindGroups, key)
		}
	}
}

func (c *resourceCache) release() {
	for _, g := range c.geometries {
		g.release()
	}
	for _, g := range c.bindGroups {
		g.group.Release()
	}
	for _, s := range c.samplers {
		s.Release()
	}
	c.placeholder.release()
	c.placeholder = nil
	c.init()
}
