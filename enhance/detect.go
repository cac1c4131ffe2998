package enhance

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	fixzip "github.com/hidez8891/zip"
)

// sniffLen is how much of a file we read to decide what it is.
const sniffLen = 512

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

func isUTF32BigEndianBOM4(buf []byte) bool {
	return buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

func isUTF8BOM3(buf []byte) bool {
	return buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return buf[0] == 0xFF && buf[1] == 0xFE
}

// detectUTF sniffs the BOM. UTF-32 LE shares a prefix with UTF-16 LE, so
// the four byte marks are checked first.
func detectUTF(buf []byte) srcEncoding {
	if len(buf) >= 4 {
		if isUTF32BigEndianBOM4(buf) {
			return encUTF32BigEndian
		}
		if isUTF32LittleEndianBOM4(buf) {
			return encUTF32LittleEndian
		}
	}
	if len(buf) >= 3 && isUTF8BOM3(buf) {
		return encUTF8
	}
	if len(buf) >= 2 {
		if isUTF16BigEndianBOM2(buf) {
			return encUTF16BigEndian
		}
		if isUTF16LittleEndianBOM2(buf) {
			return encUTF16LittleEndian
		}
	}
	return encUnknown
}

// isArchiveFile returns true for readable zip archives. Wrong extension or
// non-zip content is not an error, the file is simply not an archive.
func isArchiveFile(fname string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(fname), ".zip") {
		return false, nil
	}

	f, err := os.Open(fname)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, err
	}
	return filetype.Is(head[:n], "zip"), nil
}

// styleKind tells the batch runner which pipeline a source goes through.
type styleKind int

const (
	styleNone styleKind = iota
	styleSheet
	styleMarkup
)

func styleKindForName(fname string) styleKind {
	if isMarkupPath(fname) {
		return styleMarkup
	}
	if strings.EqualFold(filepath.Ext(fname), ".css") {
		return styleSheet
	}
	return styleNone
}

// isStyleFile classifies a file on disk. Binary content masquerading under
// a text extension comes back styleNone. The encoding is reported so the
// caller can refuse to rewrite multibyte sources.
func isStyleFile(fname string) (styleKind, srcEncoding, error) {
	kind := styleKindForName(fname)
	if kind == styleNone {
		return styleNone, encUnknown, nil
	}

	f, err := os.Open(fname)
	if err != nil {
		return styleNone, encUnknown, err
	}
	defer f.Close()

	return sniffStyle(kind, f)
}

// isStyleInArchive is isStyleFile for a zip entry.
func isStyleInArchive(file *fixzip.File) (styleKind, srcEncoding, error) {
	kind := styleKindForName(file.FileHeader.Name)
	if kind == styleNone {
		return styleNone, encUnknown, nil
	}

	r, err := file.Open()
	if err != nil {
		return styleNone, encUnknown, err
	}
	defer r.Close()

	return sniffStyle(kind, r)
}

func sniffStyle(kind styleKind, r io.Reader) (styleKind, srcEncoding, error) {

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return styleNone, encUnknown, err
	}
	head = head[:n]

	enc := detectUTF(head)
	if enc != encUnknown && enc != encUTF8 {
		// recognizably text, just not something we can rewrite in place
		return kind, enc, nil
	}
	if t, err := filetype.Match(head); err == nil && t != filetype.Unknown {
		return styleNone, enc, nil
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return styleNone, enc, nil
	}
	return kind, enc, nil
}
