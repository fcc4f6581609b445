package simd

// memchrInTableGeneric is the scalar implementation of MemchrInTable.
func memchrInTableGeneric(haystack []byte, table *[256]bool) int {
	for i, b := range haystack {
		if table[b] {
			return i
		}
	}
	return -1
}

// memchrNotInTableGeneric is the scalar implementation of MemchrNotInTable.
func memchrNotInTableGeneric(haystack []byte, table *[256]bool) int {
	for i, b := range haystack {
		if !table[b] {
			return i
		}
	}
	return -1
}
