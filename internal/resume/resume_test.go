package resume

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	stderrors "career-readiness/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  bool
	}{
		{"pdf ok", "cv.pdf", 1024, false},
		{"upper-case ext ok", "CV.DOCX", 1024, false},
		{"jpg ok", "scan.jpg", 1024, false},
		{"at the limit", "cv.txt", MaxSize, false},
		{"over the limit", "cv.txt", MaxSize + 1, true},
		{"empty", "cv.pdf", 0, true},
		{"unsupported", "cv.exe", 10, true},
		{"gif not accepted", "scan.gif", 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.filename, tt.size)
			if tt.wantErr {
				require.Error(t, err)
				se := stderrors.AsStandard(err)
				assert.Equal(t, stderrors.ErrCodeResumeInvalid, se.Code)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStore_Save(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "uploads"))

	rf, err := s.Save("a-1", "My Resume.TXT", strings.NewReader("ten years of logistics"))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", rf.ContentType)
	assert.Equal(t, int64(22), rf.Size)
	assert.True(t, strings.HasPrefix(filepath.Base(rf.Path), "a-1_"))
	assert.True(t, strings.HasSuffix(rf.Path, ".txt"))

	data, err := os.ReadFile(rf.Path)
	require.NoError(t, err)
	assert.Equal(t, "ten years of logistics", string(data))

	require.NoError(t, s.Remove(rf.Path))
	assert.NoError(t, s.Remove(rf.Path))
}

func TestStore_SaveTooLarge(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	_, err := s.Save("a-1", "cv.txt", bytes.NewReader(make([]byte, MaxSize+10)))
	require.Error(t, err)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestPlainText_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.txt")
	require.NoError(t, os.WriteFile(path, []byte("  Warehouse supervisor\n"), 0o644))

	text, err := PlainText{}.Extract(context.Background(), path, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "Warehouse supervisor", text)
}

func TestPlainText_BinaryTextRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.txt")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7 binary"), 0o644))

	_, err := PlainText{}.Extract(context.Background(), path, "text/plain")
	assert.Error(t, err)
}

func TestPlainText_Docx(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, _ = w.Write([]byte(`<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Jamie Doe</w:t></w:r></w:p>
<w:p><w:r><w:t>Operations</w:t></w:r><w:r><w:tab/><w:t>Lead</w:t></w:r></w:p>
</w:body></w:document>`))
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "cv.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	ct, _ := ContentType(path)
	text, err := PlainText{}.Extract(context.Background(), path, ct)
	require.NoError(t, err)
	assert.Equal(t, "Jamie Doe\nOperations\tLead", text)
}

func TestPlainText_ImageHasNoText(t *testing.T) {
	text, err := PlainText{}.Extract(context.Background(), "scan.png", "image/png")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func newVisionServer(t *testing.T) (*Vision, *[]string) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "images:annotate"):
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.NotEmpty(t, body["requests"])
			_, _ = w.Write([]byte(`{"responses":[{"fullTextAnnotation":{"text":"Scanned resume text"}}]}`))
		case strings.HasSuffix(r.URL.Path, "files:annotate"):
			_, _ = w.Write([]byte(`{"responses":[{"responses":[
				{"fullTextAnnotation":{"text":"Page one"}},
				{"fullTextAnnotation":{"text":"Page two"}}]}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	v, err := newVision(context.Background(), nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return v, &paths
}

func TestVision_Image(t *testing.T) {
	v, paths := newVisionServer(t)
	path := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o644))

	text, err := v.Extract(context.Background(), path, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "Scanned resume text", text)
	assert.Len(t, *paths, 1)
}

func TestVision_PDFJoinsPages(t *testing.T) {
	v, _ := newVisionServer(t)
	path := filepath.Join(t.TempDir(), "cv.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o644))

	text, err := v.Extract(context.Background(), path, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "Page one\n\nPage two", text)
}

func TestVision_TextFallsBack(t *testing.T) {
	v, paths := newVisionServer(t)
	path := filepath.Join(t.TempDir(), "cv.txt")
	require.NoError(t, os.WriteFile(path, []byte("Plain resume"), 0o644))

	text, err := v.Extract(context.Background(), path, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "Plain resume", text)
	assert.Empty(t, *paths)
}
