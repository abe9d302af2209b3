package resume

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

const (
	minExtractedText = 50
	binarySample     = 1000
	binaryThreshold  = 0.3
)

// Extractor turns a stored resume into plain text. An empty string with a
// nil error means the format carries no extractable text for this extractor.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, path, contentType string) (string, error)
}

// PlainText handles txt and docx in-process and shells out to pdftotext
// and antiword when they are installed.
type PlainText struct{}

func (PlainText) Name() string { return "plain" }

func (PlainText) Extract(ctx context.Context, path, contentType string) (string, error) {
	switch contentType {
	case "text/plain":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		if isBinary(data) {
			return "", fmt.Errorf("%s does not look like text", path)
		}
		return strings.TrimSpace(string(data)), nil
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return docxText(path)
	case "application/pdf":
		return runTool(ctx, "pdftotext", "-layout", path, "-")
	case "application/msword":
		return runTool(ctx, "antiword", path)
	default:
		return "", nil
	}
}

func runTool(ctx context.Context, name string, args ...string) (string, error) {
	if _, err := exec.LookPath(name); err != nil {
		return "", nil
	}
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	text := strings.TrimSpace(string(out))
	if len(text) < minExtractedText {
		return "", nil
	}
	return text, nil
}

// docxText reads word/document.xml and joins the w:t runs, one line per w:p.
func docxText(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return wordprocessingText(rc)
	}
	return "", fmt.Errorf("docx has no word/document.xml")
}

func wordprocessingText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inText = t.Name.Local == "t"
			if t.Name.Local == "tab" {
				b.WriteByte('\t')
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				b.WriteByte('\n')
			}
			inText = false
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func isBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if strings.HasPrefix(string(data), "%PDF-") || (len(data) >= 2 && data[0] == 'P' && data[1] == 'K') {
		return true
	}
	n := len(data)
	if n > binarySample {
		n = binarySample
	}
	bad := 0
	for _, c := range data[:n] {
		if c < 32 && c != '\n' && c != '\r' && c != '\t' {
			bad++
		}
	}
	return float64(bad)/float64(n) > binaryThreshold
}
