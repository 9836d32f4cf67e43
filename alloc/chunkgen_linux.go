package alloc

import (
	"golang.org/x/sys/unix"
)

func mapSlab(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
}

func trimChunk(c *Chunk) error {
	return unix.Madvise(c[:], unix.MADV_DONTNEED)
}
