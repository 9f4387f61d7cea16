package loader

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"contextchat/internal/model"
)

// UnsupportedMessage is shown for every upload that is neither text nor pdf.
const UnsupportedMessage = "Please provide txt or pdf file."

const (
	KindPDF  = "pdf"
	KindText = "txt"
	KindMD   = "md"
	KindHTML = "html"
)

// File is an uploaded or downloaded document before text extraction.
type File struct {
	Name string
	Data []byte
}

// KindOf maps a file name to the extractor used for it; empty means unsupported.
func KindOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF
	case ".txt":
		return KindText
	case ".md", ".markdown":
		return KindMD
	case ".html", ".htm":
		return KindHTML
	}
	return ""
}

// Load extracts the text of every supported file and concatenates it in
// upload order. Unsupported files are skipped and returned by name.
func Load(ctx context.Context, files []File) (string, []model.Document, []string, error) {
	var (
		docs    []model.Document
		skipped []string
		sb      strings.Builder
	)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return "", nil, nil, err
		}

		kind := KindOf(f.Name)
		if kind == "" {
			log.Printf("[Upload] %s: %s", f.Name, UnsupportedMessage)
			skipped = append(skipped, f.Name)
			continue
		}

		text, err := extract(kind, f.Data)
		if err != nil {
			return "", nil, nil, fmt.Errorf("load %s: %w", f.Name, err)
		}

		docs = append(docs, model.Document{Name: f.Name, Kind: kind, Text: text})
		sb.WriteString(text)
		log.Printf("[Upload] %s (%s): %d caracteres", f.Name, kind, len(text))
	}

	if len(docs) == 0 {
		if len(skipped) > 0 {
			return "", nil, skipped, model.ErrUnsupportedFile
		}
		return "", nil, nil, model.ErrNoDocument
	}
	return sb.String(), docs, skipped, nil
}

func extract(kind string, data []byte) (string, error) {
	switch kind {
	case KindPDF:
		return PDFText(data)
	case KindHTML:
		return HTMLText(string(data))
	default:
		if !utf8.Valid(data) {
			return strings.ToValidUTF8(string(data), ""), nil
		}
		return string(data), nil
	}
}
