package loaders

import (
	"context"
	"strings"

	"docsearch/backend/go/internal/rag_service/rag/interfaces"
)

const utf8BOM = "\ufeff"

// TxtLoader implements the Loader interface for plain text uploads.
type TxtLoader struct{}

// NewTxtLoader creates a new TxtLoader.
func NewTxtLoader() *TxtLoader {
	return &TxtLoader{}
}

// Load decodes data as UTF-8. Invalid byte sequences are dropped rather
// than rejected, and a leading byte order mark is removed.
func (l *TxtLoader) Load(_ context.Context, _ string, data []byte) string {
	text := strings.ToValidUTF8(string(data), "")
	return strings.TrimPrefix(text, utf8BOM)
}

// compile-time check to ensure TxtLoader implements the Loader interface
var _ interfaces.Loader = (*TxtLoader)(nil)
