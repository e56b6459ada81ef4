package pipeline

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// unzip expands a zip envelope into one Document per regular entry,
// inheriting the envelope's source type.
func unzip(doc Document) ([]Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(doc.Content), int64(len(doc.Content)))
	if err != nil {
		return nil, fmt.Errorf("reading zip: %w", err)
	}
	var docs []Document
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("reading zip entry %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading zip entry %s: %w", f.Name, err)
		}
		docs = append(docs, Document{
			Name:    doc.Name + "/" + f.Name,
			Source:  doc.Source,
			Content: content,
		})
	}
	return docs, nil
}
