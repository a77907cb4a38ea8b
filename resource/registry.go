// Package resource keeps the deduplicating registries for data referenced by
// display lists: textures, vertex buffers and matrices, each keyed by original
// source offset.
package resource

// Registry maps original source offsets to captured byte extents. Entries are
// created on first reference and never removed. A later reference to the same
// offset replaces the stored bytes only when it claims at least as many; a
// captured extent never shrinks.
//
// Iteration follows insertion order, so emission order matches discovery order
// and output buffers are reproducible.
type Registry struct {
	data  map[int][]byte
	order []int
}

func NewRegistry() *Registry {
	return &Registry{data: make(map[int][]byte)}
}

// Put records data at offset under the keep-larger merge policy. The registry
// stores its own copy; callers may reuse the slice.
func (r *Registry) Put(offset int, data []byte) {
	if old, ok := r.data[offset]; ok {
		if len(data) < len(old) {
			return
		}
	} else {
		r.order = append(r.order, offset)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	r.data[offset] = buf
}

// Extent returns the stored byte length at offset, or -1 if the offset has
// never been registered.
func (r *Registry) Extent(offset int) int {
	if b, ok := r.data[offset]; ok {
		return len(b)
	}
	return -1
}

// Len returns the number of distinct offsets registered.
func (r *Registry) Len() int { return len(r.order) }

// TotalBytes returns the sum of all stored extents.
func (r *Registry) TotalBytes() int {
	n := 0
	for _, b := range r.data {
		n += len(b)
	}
	return n
}

// Each visits every entry in insertion order.
func (r *Registry) Each(fn func(offset int, data []byte)) {
	for _, off := range r.order {
		fn(off, r.data[off])
	}
}
