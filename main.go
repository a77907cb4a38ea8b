package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"dlopt/manifest"
	"dlopt/pipeline"
	"dlopt/texview"
)

func main() {
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "-v" {
		pipeline.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
		args = args[1:]
	}
	if len(args) != 1 {
		fmt.Println("Usage: dlopt [-v] <job.yaml>")
		os.Exit(1)
	}

	job, err := manifest.Load(args[0])
	if err != nil {
		fmt.Printf("Error reading job: %v\n", err)
		os.Exit(1)
	}

	raw, err := os.ReadFile(job.Input)
	if err != nil {
		fmt.Printf("Error reading input: %v\n", err)
		os.Exit(1)
	}

	opts := pipeline.Options{Segment: byte(job.Segment), Rebase: job.Rebase}
	fmt.Printf("Optimizing: %s (%d bytes, %d entry points)\n", job.Input, len(raw), len(job.Entries))

	res, err := pipeline.Optimize(raw, job.Entries, opts)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	st := res.Stats
	fmt.Printf("  Display lists: %d (%d bytes)\n", st.Lists, st.ListBytes)
	fmt.Printf("  Textures: %d (%d bytes), vertex buffers: %d (%d bytes), matrices: %d\n",
		st.Textures, st.TextureBytes, st.VertexBuffers, st.VertexBytes, st.Matrices)
	fmt.Printf("  Output: %d bytes (%.1f%% of input)\n",
		st.OutputBytes, 100*float64(st.OutputBytes)/float64(st.InputBytes))

	if job.Verify {
		if err := pipeline.Verify(raw, job.Entries, opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("  Output verified")
	}

	if err := os.WriteFile(job.Output, res.Buffer, 0644); err != nil {
		fmt.Printf("Error writing output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote: %s\n", job.Output)

	if job.MapFile != "" {
		if err := writeMap(job.MapFile, res.ListMap); err != nil {
			fmt.Printf("Error writing map: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote: %s\n", job.MapFile)
	}

	if job.TexDir != "" {
		n, err := dumpTextures(job.TexDir, res.Textures)
		if err != nil {
			fmt.Printf("Error writing previews: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d texture previews to %s\n", n, job.TexDir)
	}
}

// writeMap emits "original relocated" offset pairs, one per line, sorted by
// original offset so downstream build steps can diff runs.
func writeMap(path string, listMap map[int]int) error {
	offsets := make([]int, 0, len(listMap))
	for off := range listMap {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	for _, off := range offsets {
		fmt.Fprintf(f, "%06X %06X\n", off, listMap[off])
	}
	return f.Close()
}

func dumpTextures(dir string, textures []pipeline.Texture) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, err
	}
	for _, tex := range textures {
		img := texview.Preview(tex.Type, tex.Data, 4)
		name := filepath.Join(dir, fmt.Sprintf("tex_%06X.png", tex.Offset))
		if err := texview.WritePNG(name, img); err != nil {
			return 0, err
		}
	}
	return len(textures), nil
}
