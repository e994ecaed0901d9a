package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yndnr/ledgerd/pkg/crypto/seal"
)

// ExportResult describes a written export file.
type ExportResult struct {
	Path   string
	Count  int
	Sealed bool
}

// FileExporter writes the ledger's export document to a file.
type FileExporter struct {
	ledger *Ledger
	path   string
	sealer *seal.Sealer
	logger *slog.Logger
}

// NewFileExporter creates an exporter writing to path. A nil sealer writes
// the plain JSON document.
func NewFileExporter(ledger *Ledger, path string, sealer *seal.Sealer, logger *slog.Logger) *FileExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileExporter{
		ledger: ledger,
		path:   path,
		sealer: sealer,
		logger: logger,
	}
}

// Export writes the document atomically: a temp file in the target directory
// is renamed over the destination.
func (e *FileExporter) Export(ctx context.Context) (ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return ExportResult{}, err
	}

	var buf bytes.Buffer
	count, err := e.ledger.Export(&buf)
	if err != nil {
		return ExportResult{}, err
	}

	data := buf.Bytes()
	if e.sealer != nil {
		if data, err = e.sealer.Seal(data, []byte(filepath.Base(e.path))); err != nil {
			return ExportResult{}, fmt.Errorf("seal export: %w", err)
		}
	}

	if err := writeFileAtomic(e.path, data); err != nil {
		return ExportResult{}, err
	}

	e.logger.Info("accounts exported", "path", e.path, "count", count, "sealed", e.sealer != nil)
	return ExportResult{Path: e.path, Count: count, Sealed: e.sealer != nil}, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	if err := os.Chmod(tmpName, 0o640); err != nil {
		return fmt.Errorf("chmod export: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename export: %w", err)
	}
	return nil
}
