package alloc

import (
	"unsafe"

	"github.com/sirupsen/logrus"
)

const SlabSize = 1 << 24
const ChunkSizeShift = 18
const ChunkSize = 1 << ChunkSizeShift
const ChunkMask = ChunkSize - 1

type Chunk = [ChunkSize]byte

var log = logrus.WithField("prefix", "slab")

// chunkGen carves chunk-aligned chunks out of SlabSize mappings.
type chunkGen struct {
	cur []byte
}

func (g *chunkGen) gen() (*Chunk, error) {
	if len(g.cur) == 0 {
		mem, err := mapSlab(SlabSize + ChunkSize)
		if err != nil {
			return nil, err
		}
		base := uintptr(unsafe.Pointer(&mem[0]))
		skip := int((ChunkSize - base&ChunkMask) & ChunkMask)
		g.cur = mem[skip : skip+SlabSize]
	}
	res := (*Chunk)(unsafe.Pointer(&g.cur[0]))
	g.cur = g.cur[ChunkSize:]
	return res, nil
}
