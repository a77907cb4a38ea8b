// Package manifest reads the YAML job description consumed by the CLI.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Job describes one optimization run. Offsets may use YAML hex notation
// (entries: [0x0, 0x1A8]).
type Job struct {
	Input   string `yaml:"input"`
	Output  string `yaml:"output"`
	Entries []int  `yaml:"entries"`
	Segment int    `yaml:"segment"` // 0 selects the pipeline default
	Rebase  int    `yaml:"rebase"`
	MapFile string `yaml:"mapfile"` // optional: write the remap table here
	TexDir  string `yaml:"texdir"`  // optional: write texture previews here
	Verify  bool   `yaml:"verify"`
}

// Load reads and validates a job file.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	job, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return job, nil
}

// Parse decodes and validates a job from YAML bytes.
func Parse(data []byte) (*Job, error) {
	var j Job
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	if j.Input == "" {
		return nil, fmt.Errorf("job has no input file")
	}
	if j.Output == "" {
		return nil, fmt.Errorf("job has no output file")
	}
	if len(j.Entries) == 0 {
		return nil, fmt.Errorf("job has no entry offsets")
	}
	if j.Segment < 0 || j.Segment > 0xFF {
		return nil, fmt.Errorf("segment %#x out of range", j.Segment)
	}
	for _, e := range j.Entries {
		if e < 0 {
			return nil, fmt.Errorf("negative entry offset %#x", e)
		}
	}
	return &j, nil
}
