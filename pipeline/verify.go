package pipeline

import (
	"fmt"

	"dlopt/scan"
)

// Verify re-runs the optimization at rebase 0 and checks the output buffer
// against its own remap table: it must re-scan cleanly from the relocated
// entry offsets, reach the same number of lists, keep every resource inside
// the resource region, and its length must equal the sum of all distinct
// extents. Patched offsets are only self-describing at base 0, which is why
// verification ignores the caller's rebase.
func Verify(src []byte, entries []int, opts Options) error {
	opts.Rebase = 0
	res, err := Optimize(src, entries, opts)
	if err != nil {
		return err
	}

	st := res.Stats
	if sum := st.ResourceBytes() + st.ListBytes; sum != len(res.Buffer) {
		return fmt.Errorf("verify: output is %d bytes but extents sum to %d", len(res.Buffer), sum)
	}

	newEntries := make([]int, 0, len(entries))
	for _, e := range entries {
		n, ok := res.ListMap[e]
		if !ok {
			return fmt.Errorf("verify: entry %#x missing from remap table", e)
		}
		newEntries = append(newEntries, n)
	}

	s := scan.New(res.Buffer, opts.segment(), Logger())
	if err := s.Run(newEntries); err != nil {
		return fmt.Errorf("verify: optimized buffer does not re-scan: %w", err)
	}

	if got, want := len(s.Lists), len(res.ListMap); got != want {
		return fmt.Errorf("verify: re-scan reached %d lists, want %d", got, want)
	}
	if got, want := s.Textures.Len(), st.Textures; got != want {
		return fmt.Errorf("verify: re-scan found %d textures, want %d", got, want)
	}
	if got, want := s.Vertices.Len(), st.VertexBuffers; got != want {
		return fmt.Errorf("verify: re-scan found %d vertex buffers, want %d", got, want)
	}
	if got, want := s.Matrices.Len(), st.Matrices; got != want {
		return fmt.Errorf("verify: re-scan found %d matrices, want %d", got, want)
	}

	resourceEnd := st.ResourceBytes()
	var bad error
	check := func(off int, data []byte) {
		if bad == nil && off+len(data) > resourceEnd {
			bad = fmt.Errorf("verify: resource at %#x (%d bytes) extends past the resource region (%#x)",
				off, len(data), resourceEnd)
		}
	}
	s.Textures.Each(check)
	s.Vertices.Each(check)
	s.Matrices.Each(check)
	if bad != nil {
		return bad
	}

	for off := range s.Lists {
		if off < resourceEnd {
			return fmt.Errorf("verify: display list at %#x overlaps the resource region (%#x)",
				off, resourceEnd)
		}
	}
	return nil
}
