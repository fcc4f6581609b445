//go:build !unix

package matchy

import "errors"

var errMmapUnsupported = errors.New("matchy: mmap unsupported on this platform")

func mmapOS(fd int, size int) ([]byte, error) {
	return nil, errMmapUnsupported
}

func munmapOS(buf []byte) error { return nil }
