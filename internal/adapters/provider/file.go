package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/okian/torque/internal/domain/normalize"
)

// File serves raw bundles from a JSON fixture file mapping vehicle id to
// bundle. The file is read once and cached; fixtures do not change while
// the process runs.
type File struct {
	path string

	once    sync.Once
	loadErr error
	bundles map[string]normalize.Bundle
}

// NewFile creates a file provider over path.
func NewFile(path string) *File {
	return &File{path: path}
}

// FetchAll returns the fixture bundle for vehicleID. Unknown vehicles get
// an empty bundle: absence of data is evidence, not an error.
func (f *File) FetchAll(ctx context.Context, vehicleID, _, _ string) (normalize.Bundle, error) {
	if err := ctx.Err(); err != nil {
		return normalize.Bundle{}, err
	}
	f.once.Do(f.load)
	if f.loadErr != nil {
		return normalize.Bundle{}, f.loadErr
	}
	return f.bundles[vehicleID], nil
}

func (f *File) load() {
	data, err := os.ReadFile(f.path)
	if err != nil {
		f.loadErr = fmt.Errorf("read provider fixture: %w", err)
		return
	}
	if err := json.Unmarshal(data, &f.bundles); err != nil {
		f.loadErr = fmt.Errorf("decode provider fixture: %w", err)
	}
}
