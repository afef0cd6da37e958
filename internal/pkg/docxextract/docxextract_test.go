package docxextract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	if documentXML != "" {
		f, err := w.Create("word/document.xml")
		require.NoError(t, err)
		_, err = f.Write([]byte(documentXML))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestExtractTextParagraphs(t *testing.T) {
	docXML := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
<w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
</w:body>
</w:document>`

	text, err := ExtractText(bytes.NewReader(buildDOCX(t, docXML)))

	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", text)
}

func TestExtractTextIgnoresNonTextNodes(t *testing.T) {
	docXML := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:t>Visible text</w:t></w:r></w:p></w:body>
</w:document>`

	text, err := ExtractText(bytes.NewReader(buildDOCX(t, docXML)))

	require.NoError(t, err)
	assert.Equal(t, "Visible text", text)
}

func TestExtractTextMissingDocumentXML(t *testing.T) {
	_, err := ExtractText(bytes.NewReader(buildDOCX(t, "")))

	assert.ErrorIs(t, err, ErrNoDocumentXML)
}

func TestExtractTextNotAZip(t *testing.T) {
	_, err := ExtractText(bytes.NewReader([]byte("plainly not a zip archive")))

	assert.Error(t, err)
}
