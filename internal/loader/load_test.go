package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"contextchat/internal/model"
)

func TestLoadConcatenatesInUploadOrder(t *testing.T) {
	files := []File{
		{Name: "a.txt", Data: []byte("first ")},
		{Name: "notes.MD", Data: []byte("second ")},
		{Name: "page.html", Data: []byte("<html><body><h1>Title</h1><script>x()</script><p>third</p></body></html>")},
	}

	text, docs, skipped, err := Load(context.Background(), files)
	require.NoError(t, err)
	require.Empty(t, skipped)
	require.Len(t, docs, 3)
	require.Equal(t, "first second Title\nthird", text)
	require.Equal(t, KindMD, docs[1].Kind)
	require.Equal(t, KindHTML, docs[2].Kind)
}

func TestLoadSkipsUnsupported(t *testing.T) {
	files := []File{
		{Name: "image.png", Data: []byte{0x89, 'P', 'N', 'G'}},
		{Name: "doc.txt", Data: []byte("hello")},
	}

	text, docs, skipped, err := Load(context.Background(), files)
	require.NoError(t, err)
	require.Equal(t, "hello", text)
	require.Len(t, docs, 1)
	require.Equal(t, []string{"image.png"}, skipped)
}

func TestLoadWithoutSupportedFiles(t *testing.T) {
	_, _, skipped, err := Load(context.Background(), []File{{Name: "x.docx"}})
	require.ErrorIs(t, err, model.ErrUnsupportedFile)
	require.Equal(t, []string{"x.docx"}, skipped)

	_, _, _, err = Load(context.Background(), nil)
	require.ErrorIs(t, err, model.ErrNoDocument)
}

func TestLoadRejectsBrokenPDF(t *testing.T) {
	_, _, _, err := Load(context.Background(), []File{{Name: "broken.pdf", Data: []byte("not a pdf")}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken.pdf")
}

func TestLoadDropsInvalidUTF8(t *testing.T) {
	text, _, _, err := Load(context.Background(), []File{{Name: "bad.txt", Data: []byte{'o', 'k', 0xff}}})
	require.NoError(t, err)
	require.Equal(t, "ok", text)
}

func TestKindOf(t *testing.T) {
	require.Equal(t, KindPDF, KindOf("Report.PDF"))
	require.Equal(t, KindText, KindOf("a.txt"))
	require.Equal(t, KindHTML, KindOf("index.htm"))
	require.Equal(t, "", KindOf("archive.zip"))
	require.Equal(t, "", KindOf("README"))
}

func TestPDFText(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "hello.pdf"))
	require.NoError(t, err)

	text, err := PDFText(data)
	require.NoError(t, err)
	require.Contains(t, text, "Hello from the PDF fixture")
}

func TestLoadPDFBetweenTextFiles(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "hello.pdf"))
	require.NoError(t, err)

	files := []File{
		{Name: "intro.txt", Data: []byte("INTRO-MARKER ")},
		{Name: "hello.pdf", Data: data},
		{Name: "outro.txt", Data: []byte(" OUTRO-MARKER")},
	}

	text, docs, skipped, err := Load(context.Background(), files)
	require.NoError(t, err)
	require.Empty(t, skipped)
	require.Len(t, docs, 3)
	require.Equal(t, KindPDF, docs[1].Kind)
	require.Contains(t, docs[1].Text, "Hello from the PDF fixture")

	intro := strings.Index(text, "INTRO-MARKER")
	pdf := strings.Index(text, "Hello from the PDF fixture")
	outro := strings.Index(text, "OUTRO-MARKER")
	require.Equal(t, 0, intro)
	require.Less(t, intro, pdf)
	require.Less(t, pdf, outro)
}
