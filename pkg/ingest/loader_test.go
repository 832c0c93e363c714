package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReader_Text(t *testing.T) {
	docs, err := LoadReader(context.Background(), "notes/faq.md", strings.NewReader("# FAQ\nGo has goroutines."))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].PageContent, "goroutines")
	assert.Equal(t, "faq.md", docs[0].Metadata["source"])
}

func TestLoadReader_Unsupported(t *testing.T) {
	_, err := LoadReader(context.Background(), "sheet.xlsx", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("first file"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("second file"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.csv"), []byte("x,y"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0o600))

	docs, failed, err := LoadDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Len(t, failed, 1)

	sources := []string{docs[0].Metadata["source"].(string), docs[1].Metadata["source"].(string)}
	assert.ElementsMatch(t, []string{"a.txt", "b.md"}, sources)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("REPORT.PDF"))
	assert.True(t, Supported("a.txt"))
	assert.False(t, Supported("a.docx"))
}
