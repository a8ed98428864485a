package skinning

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrUploaderFull is returned by Stage when every actor slot is taken.
var ErrUploaderFull = errors.New("skinning: no free palette slot")

// BufferWrite is one staged write into the palette storage buffer.
type BufferWrite struct {
	Offset uint64
	Data   []byte
}

// BufferWriter receives the writes produced by Uploader.Flush.
type BufferWriter interface {
	WriteBuffer(w BufferWrite)
}

type queueWriter struct {
	queue  *wgpu.Queue
	buffer *wgpu.Buffer
}

// NewQueueWriter returns a BufferWriter that copies writes into buffer through queue.
//
// Parameters:
//   - queue: the device queue
//   - buffer: the palette storage buffer, at least Uploader.BufferSize bytes
//
// Returns:
//   - BufferWriter: the writer
func NewQueueWriter(queue *wgpu.Queue, buffer *wgpu.Buffer) BufferWriter {
	return &queueWriter{queue: queue, buffer: buffer}
}

func (q *queueWriter) WriteBuffer(w BufferWrite) {
	q.queue.WriteBuffer(q.buffer, w.Offset, w.Data)
}

// uploaderImpl is the implementation of Uploader.
type uploaderImpl struct {
	mu *sync.Mutex

	writer               BufferWriter
	maxActors, maxBones  int
	slots                map[uint64]int
	free                 []int
	staging              []byte
	dirty                bool
	dirtyStart, dirtyEnd int
}

// Uploader packs actor palettes into fixed slots of one storage buffer and flushes the
// changed slot range in a single write. Stage is safe to call from several goroutines.
type Uploader interface {
	// Stage copies an actor's palette into its slot, assigning a slot on first use.
	//
	// Parameters:
	//   - actorID: the owning actor
	//   - palette: the palette; at most MaxBones entries
	//
	// Returns:
	//   - int: the slot index
	//   - error: ErrUploaderFull, or when the palette is too long
	Stage(actorID uint64, palette []GPUBoneMatrix) (int, error)

	// Release frees the actor's slot.
	Release(actorID uint64)

	// Slot returns the slot assigned to an actor.
	Slot(actorID uint64) (int, bool)

	// Flush hands the dirty slot range to the writer.
	//
	// Returns:
	//   - int: bytes written, 0 when nothing was staged
	Flush() int

	// BufferSize is the byte size the palette storage buffer needs.
	BufferSize() uint64

	// MaxBones is the number of palette entries per slot.
	MaxBones() int
}

var _ Uploader = &uploaderImpl{}

// NewUploader creates an Uploader. A nil writer discards flushed data.
//
// Parameters:
//   - writer: destination of flushed writes
//   - options: builder options
//
// Returns:
//   - Uploader: the uploader
func NewUploader(writer BufferWriter, options ...UploaderBuilderOption) Uploader {
	u := &uploaderImpl{
		mu:        &sync.Mutex{},
		writer:    writer,
		maxActors: 64,
		maxBones:  128,
		slots:     make(map[uint64]int),
	}
	for _, option := range options {
		option(u)
	}
	u.staging = make([]byte, u.slotSize()*u.maxActors)
	u.free = make([]int, 0, u.maxActors)
	for i := u.maxActors - 1; i >= 0; i-- {
		u.free = append(u.free, i)
	}
	return u
}

func (u *uploaderImpl) slotSize() int {
	return u.maxBones * (&GPUBoneMatrix{}).Size()
}

func (u *uploaderImpl) Stage(actorID uint64, palette []GPUBoneMatrix) (int, error) {
	if len(palette) > u.maxBones {
		return -1, fmt.Errorf("skinning: palette of %d bones exceeds slot size %d", len(palette), u.maxBones)
	}
	raw := common.SliceToBytes(palette)

	u.mu.Lock()
	defer u.mu.Unlock()

	slot, ok := u.slots[actorID]
	if !ok {
		if len(u.free) == 0 {
			return -1, ErrUploaderFull
		}
		slot = u.free[len(u.free)-1]
		u.free = u.free[:len(u.free)-1]
		u.slots[actorID] = slot
	}

	start := slot * u.slotSize()
	copy(u.staging[start:start+len(raw)], raw)

	if !u.dirty {
		u.dirty = true
		u.dirtyStart, u.dirtyEnd = slot, slot+1
	} else {
		u.dirtyStart = min(u.dirtyStart, slot)
		u.dirtyEnd = max(u.dirtyEnd, slot+1)
	}
	return slot, nil
}

func (u *uploaderImpl) Release(actorID uint64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	slot, ok := u.slots[actorID]
	if !ok {
		return
	}
	delete(u.slots, actorID)
	u.free = append(u.free, slot)
}

func (u *uploaderImpl) Slot(actorID uint64) (int, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	slot, ok := u.slots[actorID]
	return slot, ok
}

func (u *uploaderImpl) Flush() int {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.dirty {
		return 0
	}
	size := u.slotSize()
	w := BufferWrite{
		Offset: uint64(u.dirtyStart * size),
		Data:   u.staging[u.dirtyStart*size : u.dirtyEnd*size],
	}
	u.dirty = false
	u.dirtyStart, u.dirtyEnd = 0, 0

	if u.writer != nil {
		u.writer.WriteBuffer(w)
	}
	return len(w.Data)
}

func (u *uploaderImpl) BufferSize() uint64 {
	return uint64(len(u.staging))
}

func (u *uploaderImpl) MaxBones() int {
	return u.maxBones
}
