package enhance

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	fixzip "github.com/hidez8891/zip"
)

// TestIsArchiveFile tests archive file detection
func TestIsArchiveFile(t *testing.T) {
	tmpDir := t.TempDir()

	// Test non-zip extension
	t.Run("non-zip extension", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test.txt")
		if err := os.WriteFile(filePath, []byte("not a zip"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if got != false {
			t.Errorf("isArchiveFile() = %v, want false", got)
		}
	})

	// Test zip extension but invalid content
	t.Run("zip extension but invalid content", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test.zip")
		if err := os.WriteFile(filePath, []byte("not a real zip file"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if got != false {
			t.Errorf("isArchiveFile() = %v, want false", got)
		}
	})

	// Test valid zip file - using actual zip creation
	t.Run("valid zip file via zip package", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test2.zip")
		zipFile, err := os.Create(filePath)
		if err != nil {
			t.Fatalf("Failed to create zip file: %v", err)
		}
		w := zip.NewWriter(zipFile)
		f, err := w.Create("test.css")
		if err != nil {
			t.Fatalf("Failed to create file in zip: %v", err)
		}
		content := make([]byte, 300)
		f.Write(content)
		w.Close()
		zipFile.Close()

		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if got != true {
			t.Errorf("isArchiveFile() = %v, want true", got)
		}
	})
}

// TestIsArchiveFile_NonExistent tests with non-existent file
func TestIsArchiveFile_NonExistent(t *testing.T) {
	_, err := isArchiveFile("/nonexistent/file.zip")
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

// TestDetectUTF tests UTF encoding detection
func TestDetectUTF(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want srcEncoding
	}{
		{
			name: "UTF-8 BOM",
			buf:  []byte{0xEF, 0xBB, 0xBF, 0x00},
			want: encUTF8,
		},
		{
			name: "UTF-16 Big Endian BOM",
			buf:  []byte{0xFE, 0xFF, 0x00, 0x00},
			want: encUTF16BigEndian,
		},
		{
			name: "UTF-16 Little Endian BOM",
			buf:  []byte{0xFF, 0xFE, 0x01, 0x00}, // Different from UTF-32LE
			want: encUTF16LittleEndian,
		},
		{
			name: "UTF-32 Big Endian BOM",
			buf:  []byte{0x00, 0x00, 0xFE, 0xFF},
			want: encUTF32BigEndian,
		},
		{
			name: "UTF-32 Little Endian BOM",
			buf:  []byte{0xFF, 0xFE, 0x00, 0x00},
			want: encUTF32LittleEndian,
		},
		{
			name: "No BOM",
			buf:  []byte{0x00, 0x01, 0x02, 0x03},
			want: encUnknown,
		},
		{
			name: "short buffer",
			buf:  []byte{0xEF},
			want: encUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectUTF(tt.buf)
			if got != tt.want {
				t.Errorf("detectUTF() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestBOMDetectionFunctions tests individual BOM detection functions
func TestBOMDetectionFunctions(t *testing.T) {
	t.Run("isUTF8BOM3", func(t *testing.T) {
		if !isUTF8BOM3([]byte{0xEF, 0xBB, 0xBF}) {
			t.Error("Expected true for UTF-8 BOM")
		}
		if isUTF8BOM3([]byte{0x00, 0x00, 0x00}) {
			t.Error("Expected false for non-BOM")
		}
	})

	t.Run("isUTF16BigEndianBOM2", func(t *testing.T) {
		if !isUTF16BigEndianBOM2([]byte{0xFE, 0xFF}) {
			t.Error("Expected true for UTF-16 BE BOM")
		}
		if isUTF16BigEndianBOM2([]byte{0xFF, 0xFE}) {
			t.Error("Expected false for UTF-16 LE BOM")
		}
	})

	t.Run("isUTF16LittleEndianBOM2", func(t *testing.T) {
		if !isUTF16LittleEndianBOM2([]byte{0xFF, 0xFE}) {
			t.Error("Expected true for UTF-16 LE BOM")
		}
		if isUTF16LittleEndianBOM2([]byte{0xFE, 0xFF}) {
			t.Error("Expected false for UTF-16 BE BOM")
		}
	})

	t.Run("isUTF32BigEndianBOM4", func(t *testing.T) {
		if !isUTF32BigEndianBOM4([]byte{0x00, 0x00, 0xFE, 0xFF}) {
			t.Error("Expected true for UTF-32 BE BOM")
		}
		if isUTF32BigEndianBOM4([]byte{0xFF, 0xFE, 0x00, 0x00}) {
			t.Error("Expected false for UTF-32 LE BOM")
		}
	})

	t.Run("isUTF32LittleEndianBOM4", func(t *testing.T) {
		if !isUTF32LittleEndianBOM4([]byte{0xFF, 0xFE, 0x00, 0x00}) {
			t.Error("Expected true for UTF-32 LE BOM")
		}
		if isUTF32LittleEndianBOM4([]byte{0x00, 0x00, 0xFE, 0xFF}) {
			t.Error("Expected false for UTF-32 BE BOM")
		}
	})
}

// TestStyleKindForName tests extension based classification
func TestStyleKindForName(t *testing.T) {
	tests := []struct {
		name string
		want styleKind
	}{
		{"site.css", styleSheet},
		{"SITE.CSS", styleSheet},
		{"index.html", styleMarkup},
		{"index.htm", styleMarkup},
		{"page.xhtml", styleMarkup},
		{"readme.txt", styleNone},
		{"archive.zip", styleNone},
		{"noext", styleNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := styleKindForName(tt.name); got != tt.want {
				t.Errorf("styleKindForName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

// TestIsStyleFile tests style source detection
func TestIsStyleFile(t *testing.T) {
	tmpDir := t.TempDir()

	cssContent := []byte(".btn { color: #336699; padding: 16px; }")
	htmlContent := []byte("<!DOCTYPE html><html><head><style>.a{top:0}</style></head></html>")

	// PNG header makes filetype recognize the content as binary
	pngContent := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

	tests := []struct {
		name     string
		filename string
		content  []byte
		wantKind styleKind
		wantEnc  srcEncoding
	}{
		{
			name:     "plain css",
			filename: "site.css",
			content:  cssContent,
			wantKind: styleSheet,
			wantEnc:  encUnknown,
		},
		{
			name:     "css with UTF-8 BOM",
			filename: "bom.css",
			content:  append([]byte{0xEF, 0xBB, 0xBF}, cssContent...),
			wantKind: styleSheet,
			wantEnc:  encUTF8,
		},
		{
			name:     "html document",
			filename: "index.html",
			content:  htmlContent,
			wantKind: styleMarkup,
			wantEnc:  encUnknown,
		},
		{
			name:     "uppercase extension",
			filename: "SITE.CSS",
			content:  cssContent,
			wantKind: styleSheet,
			wantEnc:  encUnknown,
		},
		{
			name:     "non-style extension",
			filename: "readme.txt",
			content:  cssContent,
			wantKind: styleNone,
			wantEnc:  encUnknown,
		},
		{
			name:     "binary masquerading as css",
			filename: "sprite.css",
			content:  pngContent,
			wantKind: styleNone,
			wantEnc:  encUnknown,
		},
		{
			name:     "css with UTF-16 LE BOM",
			filename: "wide.css",
			content:  []byte{0xFF, 0xFE, '.', 0x00, 'a', 0x00},
			wantKind: styleSheet,
			wantEnc:  encUTF16LittleEndian,
		},
		{
			name:     "empty css",
			filename: "empty.css",
			content:  []byte{},
			wantKind: styleSheet,
			wantEnc:  encUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := filepath.Join(tmpDir, tt.filename)
			if err := os.WriteFile(filePath, tt.content, 0644); err != nil {
				t.Fatalf("Failed to create test file: %v", err)
			}

			gotKind, gotEnc, err := isStyleFile(filePath)
			if err != nil {
				t.Errorf("isStyleFile() error = %v", err)
				return
			}
			if gotKind != tt.wantKind {
				t.Errorf("isStyleFile() kind = %v, want %v", gotKind, tt.wantKind)
			}
			if gotEnc != tt.wantEnc {
				t.Errorf("isStyleFile() encoding = %v, want %v", gotEnc, tt.wantEnc)
			}
		})
	}
}

// TestIsStyleFile_NonExistent tests with non-existent file
func TestIsStyleFile_NonExistent(t *testing.T) {
	_, _, err := isStyleFile("/nonexistent/file.css")
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

// TestIsStyleInArchive tests style detection inside a zip archive
func TestIsStyleInArchive(t *testing.T) {
	tmpDir := t.TempDir()
	zipPath := filepath.Join(tmpDir, "test.zip")

	cssContent := []byte(".card { border-radius: 8px; margin: 24px; }")

	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}

	w := zip.NewWriter(zipFile)

	entries := []struct {
		name    string
		content []byte
	}{
		{"styles/site.css", cssContent},
		{"notes.txt", []byte("not styles")},
		{"styles/bom.css", append([]byte{0xEF, 0xBB, 0xBF}, cssContent...)},
		{"logo.css", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}},
	}
	for _, e := range entries {
		f, err := w.CreateHeader(&zip.FileHeader{
			Name:   e.name,
			Method: zip.Store,
		})
		if err != nil {
			t.Fatalf("Failed to create %s in zip: %v", e.name, err)
		}
		if _, err := f.Write(e.content); err != nil {
			t.Fatalf("Failed to write %s to zip: %v", e.name, err)
		}
	}

	w.Close()
	zipFile.Close()

	r, err := fixzip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("Failed to open zip: %v", err)
	}
	defer r.Close()

	tests := []struct {
		name     string
		fileIdx  int
		wantKind styleKind
		wantEnc  srcEncoding
	}{
		{
			name:     "css file in archive",
			fileIdx:  0,
			wantKind: styleSheet,
			wantEnc:  encUnknown,
		},
		{
			name:     "non-style file in archive",
			fileIdx:  1,
			wantKind: styleNone,
			wantEnc:  encUnknown,
		},
		{
			name:     "css with BOM in archive",
			fileIdx:  2,
			wantKind: styleSheet,
			wantEnc:  encUTF8,
		},
		{
			name:     "binary under css name in archive",
			fileIdx:  3,
			wantKind: styleNone,
			wantEnc:  encUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotKind, gotEnc, err := isStyleInArchive(r.File[tt.fileIdx])
			if err != nil {
				t.Errorf("isStyleInArchive() error = %v", err)
				return
			}
			if gotKind != tt.wantKind {
				t.Errorf("isStyleInArchive() kind = %v, want %v", gotKind, tt.wantKind)
			}
			if gotEnc != tt.wantEnc {
				t.Errorf("isStyleInArchive() encoding = %v, want %v", gotEnc, tt.wantEnc)
			}
		})
	}
}
