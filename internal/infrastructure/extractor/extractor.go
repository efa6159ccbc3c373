package extractor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/lexilocal/lexilocal/internal/core/domain"
)

// Dispatcher routes an uploaded file to the extractor registered for its
// extension. Unknown extensions are rejected, not guessed.
type Dispatcher struct {
	byExtension map[string]extractFunc
}

type extractFunc func(ctx context.Context, data io.Reader) (string, error)

func NewDispatcher() *Dispatcher {
	return &Dispatcher{byExtension: map[string]extractFunc{
		".txt": extractPlainText,
		".md":  extractPlainText,
		".pdf": extractPDF,
	}}
}

func (d *Dispatcher) Extract(ctx context.Context, filename string, data io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	extract, ok := d.byExtension[ext]
	if !ok {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract",
			fmt.Errorf("unsupported file type %q", ext))
	}
	text, err := extract(ctx, data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
