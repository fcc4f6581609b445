//go:build unix

package matchy

import "golang.org/x/sys/unix"

func mmapOS(fd int, size int) ([]byte, error) {
	return unix.Mmap(fd, 0, size, unix.PROT_READ, unix.MAP_SHARED)
}

func munmapOS(buf []byte) error {
	return unix.Munmap(buf)
}
