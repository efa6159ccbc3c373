package extractor

import (
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/lexilocal/lexilocal/internal/core/domain"
)

func extractPlainText(ctx context.Context, data io.Reader) (string, error) {
	content, err := io.ReadAll(data)
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", err)
	}
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	return strings.ReplaceAll(text, "\r\n", "\n"), nil
}
