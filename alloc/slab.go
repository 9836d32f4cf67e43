package alloc

import (
	"sync"
	"unsafe"
)

const headerSize = 8

// MaxSlabAlloc is the largest request a Slab can serve.
const MaxSlabAlloc = ChunkSize - 2*headerSize

// Slab is a chunked bump allocator. Every allocation is prefixed with its
// size; the first word of every chunk counts the chunk's free bytes. A chunk
// whose allocations were all released goes back to the free list.
//
// Slab memory is not scanned by the garbage collector: store only
// pointer-free data in it.
type Slab struct {
	sync.Mutex
	gen        chunkGen
	chunks     []*Chunk
	cur        chunk
	free       []chunk
	totalAlloc int
	totalFree  int
	// Log enables debug tracing tagged with its value.
	Log string
}

type chunk struct {
	mem *Chunk
	off int
}

func (c chunk) counter() *int {
	return (*int)(unsafe.Pointer(c.mem))
}

// SlabStats is a snapshot of a Slab's accounting.
type SlabStats struct {
	Chunks     int
	FreeChunks int
	// Allocated and Free are bytes, headers included.
	Allocated int
	Free      int
}

func (s *Slab) Alloc(ln int) unsafe.Pointer {
	s.Lock()
	defer s.Unlock()
	return s.alloc(ln)
}

func (s *Slab) alloc(ln int) unsafe.Pointer {
	if ln < 0 || ln > MaxSlabAlloc {
		return nil
	}
	n := headerSize + (ln+7)&^7
	if n == headerSize {
		n += 8
	}
	if s.cur.mem == nil || s.cur.off+n > ChunkSize {
		if s.cur.mem != nil {
			*s.cur.counter() += headerSize
			if *s.cur.counter() == ChunkSize {
				s.cur.off = headerSize
				s.free = append(s.free, s.cur)
			}
			s.cur = chunk{}
		}
		if len(s.free) > 0 {
			s.cur = s.free[len(s.free)-1]
			s.free = s.free[:len(s.free)-1]
			*s.cur.counter() = ChunkSize - headerSize
		} else {
			mem, err := s.gen.gen()
			if err != nil {
				log.WithError(err).Error("can't map slab")
				return nil
			}
			if uintptr(unsafe.Pointer(mem))&ChunkMask != 0 {
				panic("alloc: misaligned chunk")
			}
			s.chunks = append(s.chunks, mem)
			s.cur = chunk{mem: mem, off: headerSize}
			*s.cur.counter() = ChunkSize - headerSize
			s.totalFree += ChunkSize - headerSize
			if s.Log != "" {
				log.WithField("slab", s.Log).Debugf("%p chunk", mem)
			}
		}
	}
	hdr := unsafe.Add(unsafe.Pointer(s.cur.mem), s.cur.off)
	*(*int)(hdr) = n
	res := unsafe.Add(hdr, headerSize)
	s.cur.off += n
	*s.cur.counter() -= n
	s.totalAlloc += n
	s.totalFree -= n
	if s.Log != "" {
		log.WithField("slab", s.Log).Debugf("%p alloc %d", res, n)
	}
	return res
}

func (s *Slab) Dealloc(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	s.Lock()
	defer s.Unlock()
	s.dealloc(ptr)
}

func (s *Slab) dealloc(ptr unsafe.Pointer) {
	sz := *(*int)(unsafe.Add(ptr, -headerSize))
	s.totalFree += sz
	s.totalAlloc -= sz
	c := chunk{
		mem: (*Chunk)(unsafe.Add(ptr, -int(uintptr(ptr)&ChunkMask))),
		off: headerSize,
	}
	*c.counter() += sz
	if s.Log != "" {
		log.WithField("slab", s.Log).Debugf("%p dealloc %d", ptr, sz)
	}
	if *c.counter() == ChunkSize {
		s.free = append(s.free, c)
	}
}

// Trim returns the physical pages of free chunks to the OS. The chunks stay
// mapped and are reused by later allocations.
func (s *Slab) Trim() error {
	s.Lock()
	defer s.Unlock()
	for _, c := range s.free {
		if err := trimChunk(c.mem); err != nil {
			return err
		}
	}
	return nil
}

func (s *Slab) Stats() SlabStats {
	s.Lock()
	defer s.Unlock()
	return SlabStats{
		Chunks:     len(s.chunks),
		FreeChunks: len(s.free),
		Allocated:  s.totalAlloc,
		Free:       s.totalFree,
	}
}

// DefaultSlab backs SlabAllocator.
var DefaultSlab Slab

// SlabAllocator routes to DefaultSlab.
type SlabAllocator struct{}

func (SlabAllocator) Alloc(ln int) unsafe.Pointer { return DefaultSlab.Alloc(ln) }

func (SlabAllocator) Dealloc(ptr unsafe.Pointer) { DefaultSlab.Dealloc(ptr) }
