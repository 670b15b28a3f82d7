package rdg

import (
	"encoding/binary"

	"github.com/forge-engine/forge/driver"
	"github.com/forge-engine/forge/id"
	"github.com/forge-engine/forge/internal/bitm"
)

// defaultEvictionAge is the number of frames a pooled object may
// sit unused before GC reclaims it, resolving the Open Question
// on eviction policy in favor of a short fixed window: transient
// render-graph resources are reused within a handful of frames or
// not at all.
const defaultEvictionAge = 3

// fingerprintTexture derives a stable key for desc by hashing its
// fields through CRC32, the quick-fingerprint recipe id.CRC32
// exists for.
func fingerprintTexture(desc TextureDesc) uint32 {
	var buf [40]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(desc.Format))
	binary.LittleEndian.PutUint64(buf[4:12], uint64(desc.Size.Width))
	binary.LittleEndian.PutUint64(buf[12:20], uint64(desc.Size.Height))
	binary.LittleEndian.PutUint64(buf[20:28], uint64(desc.Size.Depth))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(desc.Layers))
	binary.LittleEndian.PutUint32(buf[32:36], uint32(desc.Levels))
	binary.LittleEndian.PutUint32(buf[36:40], uint32(desc.Samples)^uint32(desc.Usage)<<16)
	return id.CRC32(buf[:])
}

// fingerprintBuffer derives a stable key for desc.
func fingerprintBuffer(desc BufferDesc) uint32 {
	var buf [17]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(desc.Size))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(desc.Usage))
	if desc.Visible {
		buf[16] = 1
	}
	return id.CRC32(buf[:])
}

// poolSlot is one object in a fingerprint bucket plus the frame it
// was last released on, used by GC to evict objects unused for
// longer than the pool's evictionAge frames. A slot with a nil obj is
// reserved capacity that has not been materialized into a GPU
// object yet.
type poolSlot struct {
	obj        any
	lastUsed   uint64
	checkedOut bool
}

// bucket holds every pooled object sharing one descriptor
// fingerprint. free.Len() always equals len(slots): bitm grows in
// fixed-width words, so growing capacity pads slots with
// not-yet-materialized entries rather than letting the two drift
// out of step.
type bucket struct {
	slots []poolSlot
	free  bitm.Bitm[uint32]
}

// acquire returns a checked-out slot from b, reusing a checked-in
// one if available and otherwise growing the bucket, calling
// create to materialize the GPU object only when a slot has none
// yet.
func (b *bucket) acquire(create func() (any, error)) (any, int, error) {
	if idx, ok := b.free.Search(); ok {
		if b.slots[idx].obj != nil {
			b.free.Set(idx)
			b.slots[idx].checkedOut = true
			return b.slots[idx].obj, idx, nil
		}
		obj, err := create()
		if err != nil {
			return nil, -1, err
		}
		b.free.Set(idx)
		b.slots[idx] = poolSlot{obj: obj, checkedOut: true}
		return obj, idx, nil
	}

	start := b.free.Grow(1)
	for len(b.slots) < b.free.Len() {
		b.slots = append(b.slots, poolSlot{})
	}
	obj, err := create()
	if err != nil {
		return nil, -1, err
	}
	b.free.Set(start)
	b.slots[start] = poolSlot{obj: obj, checkedOut: true}
	return obj, start, nil
}

func (b *bucket) release(idx int, frame uint64) {
	b.free.Unset(idx)
	b.slots[idx].checkedOut = false
	b.slots[idx].lastUsed = frame
}

// Pool is a fingerprint-keyed multi-map of pooled GPU objects
// (images and buffers), generalizing the teacher's single growable
// vertex/index buffer allocator (engine/storage.go's meshBuffer) to
// N independently-sized buckets, one per distinct descriptor.
// Each bucket tracks checked-out slots with a bitm.Bitm[uint32],
// exactly as meshBuffer.spanMap/primMap track checked-out spans.
type Pool struct {
	gpu         driver.GPU
	frame       uint64
	evictionAge uint64

	textures map[uint32]*bucket
	buffers  map[uint32]*bucket
}

// NewPool returns an empty Pool backed by gpu, evicting unused
// objects after evictionAge frames (use defaultEvictionAge for the
// spec's default of 3).
func NewPool(gpu driver.GPU, evictionAge uint64) *Pool {
	if evictionAge == 0 {
		evictionAge = defaultEvictionAge
	}
	return &Pool{
		gpu:         gpu,
		evictionAge: evictionAge,
		textures:    make(map[uint32]*bucket),
		buffers:     make(map[uint32]*bucket),
	}
}

// BeginFrame advances the pool's frame counter; call once per
// frame before Executor.Execute.
func (p *Pool) BeginFrame() { p.frame++ }

func (p *Pool) textureBucket(fp uint32) *bucket {
	b, ok := p.textures[fp]
	if !ok {
		b = &bucket{}
		p.textures[fp] = b
	}
	return b
}

func (p *Pool) bufferBucket(fp uint32) *bucket {
	b, ok := p.buffers[fp]
	if !ok {
		b = &bucket{}
		p.buffers[fp] = b
	}
	return b
}

// AcquireTexture returns a pooled image matching desc, creating a
// new one if every existing slot in its bucket is checked out.
func (p *Pool) AcquireTexture(desc TextureDesc, fp uint32) (driver.Image, int, error) {
	obj, idx, err := p.textureBucket(fp).acquire(func() (any, error) {
		return p.gpu.NewImage(desc.Format, desc.Size, desc.Layers, desc.Levels, desc.Samples, desc.Usage)
	})
	if err != nil {
		return nil, -1, err
	}
	return obj.(driver.Image), idx, nil
}

// ReleaseTexture returns slot idx of the bucket for fp to the
// pool, available for reuse by the next matching Acquire, even
// within the same frame.
func (p *Pool) ReleaseTexture(fp uint32, idx int) {
	if b, ok := p.textures[fp]; ok {
		b.release(idx, p.frame)
	}
}

// AcquireBuffer returns a pooled buffer matching desc.
func (p *Pool) AcquireBuffer(desc BufferDesc, fp uint32) (driver.Buffer, int, error) {
	obj, idx, err := p.bufferBucket(fp).acquire(func() (any, error) {
		return p.gpu.NewBuffer(desc.Size, desc.Visible, desc.Usage)
	})
	if err != nil {
		return nil, -1, err
	}
	return obj.(driver.Buffer), idx, nil
}

// ReleaseBuffer returns slot idx of the bucket for fp to the pool.
func (p *Pool) ReleaseBuffer(fp uint32, idx int) {
	if b, ok := p.buffers[fp]; ok {
		b.release(idx, p.frame)
	}
}

// GC destroys every checked-in slot whose age exceeds the pool's
// evictionAge, across every bucket. Call once per frame, after
// Executor.Execute has released that frame's pooled resources.
func (p *Pool) GC() {
	gcBuckets(p.textures, p.frame, p.evictionAge)
	gcBuckets(p.buffers, p.frame, p.evictionAge)
}

func gcBuckets(buckets map[uint32]*bucket, frame, age uint64) {
	for fp, b := range buckets {
		var kept []poolSlot
		var freeRebuilt bitm.Bitm[uint32]
		for _, s := range b.slots {
			if s.obj == nil {
				continue
			}
			if !s.checkedOut && frame-s.lastUsed > age {
				if d, ok := s.obj.(driver.Destroyer); ok {
					d.Destroy()
				}
				continue
			}
			idx := freeRebuilt.Grow(1)
			for len(kept) < freeRebuilt.Len() {
				kept = append(kept, poolSlot{})
			}
			kept[idx] = s
			if s.checkedOut {
				freeRebuilt.Set(idx)
			}
		}
		b.slots = kept
		b.free = freeRebuilt
		if len(b.slots) == 0 {
			delete(buckets, fp)
		}
	}
}
