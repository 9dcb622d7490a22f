// Package extract pulls plain text out of stored interview transcript
// files so reviewers can read them without the original recording tools.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/storage/object"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"
)

// TranscriptText loads a stored transcript and extracts its plain text.
func TranscriptText(ctx context.Context, store object.ObjectStore, storageKey string, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, err := store.Open(ctx, storageKey)
	if err != nil {
		return "", fmt.Errorf("transcript key=%s mime=%s: %w", storageKey, mimeType, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("transcript key=%s mime=%s: read: %w", storageKey, mimeType, err)
	}

	text, err := TextFromBytes(ctx, raw, mimeType, fileName)
	if err != nil {
		return "", fmt.Errorf("transcript key=%s mime=%s: %w", storageKey, mimeType, err)
	}
	return text, nil
}

// TextFromBytes extracts text from an in-memory transcript payload.
func TextFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	normalized := normalizeMimeType(mimeType, fileName, data)
	switch normalized {
	case mimePDF:
		return extractPDF(data)
	case mimeDOCX:
		return extractDOCX(data)
	case mimeText:
		return strings.TrimSpace(string(data)), nil
	default:
		return "", fmt.Errorf("unsupported mime type: %s", normalized)
	}
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	readerAt := bytes.NewReader(data)
	doc, err := docx.ReadDocxFromMemory(readerAt, int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()
	return stripDocxXML(doc.Editable().GetContent()), nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if last := buf.Len(); last > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func normalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean == "" || clean == "application/octet-stream" {
		switch strings.ToLower(filepath.Ext(fileName)) {
		case ".txt":
			return mimeText
		case ".pdf":
			return mimePDF
		case ".docx":
			return mimeDOCX
		}
	}
	if clean != "application/zip" {
		return clean
	}

	if isDocxZip(data) {
		return mimeDOCX
	}

	if strings.ToLower(filepath.Ext(fileName)) == ".docx" {
		return mimeDOCX
	}
	return clean
}

func isDocxZip(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}
