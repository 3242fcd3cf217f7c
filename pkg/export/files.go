package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kilianp07/prosumer/core/dispatch"
)

// Config selects the output directory and the formats written per agent.
type Config struct {
	Dir     string   `json:"dir"`
	Formats []string `json:"formats"`
}

// SetDefaults writes CSV and JSON into ./out.
func (c *Config) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "out"
	}
	if len(c.Formats) == 0 {
		c.Formats = []string{"csv", "json"}
	}
}

// Validate rejects unknown formats.
func (c Config) Validate() error {
	for _, f := range c.Formats {
		if _, ok := writers[f]; !ok {
			return fmt.Errorf("export: unknown format %q", f)
		}
	}
	return nil
}

var writers = map[string]struct {
	ext   string
	write func(io.Writer, dispatch.AgentResult) error
}{
	"csv":  {"csv", func(w io.Writer, r dispatch.AgentResult) error { return WriteCSV(w, r.Series) }},
	"json": {"json", WriteJSON},
	"yaml": {"yaml", WriteYAML},
	"html": {"html", WriteChart},
}

// FileWriter writes each result to <dir>/<agent>.<ext> for every format.
type FileWriter struct {
	cfg Config
}

// NewFileWriter validates cfg and creates the output directory.
func NewFileWriter(cfg Config) (*FileWriter, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	return &FileWriter{cfg: cfg}, nil
}

// WriteResult writes every configured format.
func (fw *FileWriter) WriteResult(ctx context.Context, res dispatch.AgentResult) error {
	for _, name := range fw.cfg.Formats {
		if err := ctx.Err(); err != nil {
			return err
		}
		wr := writers[name]
		path := filepath.Join(fw.cfg.Dir, res.Agent+"."+wr.ext)
		if err := writeFile(path, res, wr.write); err != nil {
			return fmt.Errorf("export %s: %w", path, err)
		}
	}
	return nil
}

func writeFile(path string, res dispatch.AgentResult, write func(io.Writer, dispatch.AgentResult) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, res); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
