package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charset names a text encoding found in an uploaded file.
type Charset string

const (
	UTF8        Charset = "UTF-8"
	UTF8BOM     Charset = "UTF-8-BOM"
	UTF16LE     Charset = "UTF-16LE"
	UTF16BE     Charset = "UTF-16BE"
	Windows1252 Charset = "windows-1252"
	Windows1256 Charset = "windows-1256"
	ISO88596    Charset = "ISO-8859-6"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// sniffSize is how much of the input is inspected.
const sniffSize = 4096

// Detect guesses the charset of a file prefix.
//
// Order:
//  1. Byte order mark
//  2. Valid UTF-8
//  3. chardet heuristics, limited to the Latin and Arabic code pages site
//     spreadsheets are saved in
//  4. Windows-1252
func Detect(buf []byte) Charset {
	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		return UTF8BOM
	case bytes.HasPrefix(buf, bomUTF16LE):
		return UTF16LE
	case bytes.HasPrefix(buf, bomUTF16BE):
		return UTF16BE
	case utf8.Valid(trimPartialRune(buf)):
		return UTF8
	}

	result, err := chardet.NewTextDetector().DetectBest(buf)
	if err == nil {
		switch result.Charset {
		case "UTF-8":
			return UTF8
		case "windows-1256":
			return Windows1256
		case "ISO-8859-6":
			return ISO88596
		}
	}

	return Windows1252
}

// NewUTF8Reader detects the encoding of r and returns a reader producing UTF-8.
// A UTF-8 byte order mark is dropped.
func NewUTF8Reader(r io.Reader) (io.Reader, Charset, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	buf, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	charset := Detect(buf)

	var dec *encoding.Decoder

	switch charset {
	case UTF8:
		return br, charset, nil
	case UTF8BOM:
		_, _ = br.Discard(len(bomUTF8))
		return br, charset, nil
	case UTF16LE:
		dec = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	case UTF16BE:
		dec = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	case Windows1256:
		dec = charmap.Windows1256.NewDecoder()
	case ISO88596:
		dec = charmap.ISO8859_6.NewDecoder()
	default:
		dec = charmap.Windows1252.NewDecoder()
	}

	return transform.NewReader(br, dec), charset, nil
}

// trimPartialRune drops an incomplete UTF-8 sequence cut off at the end of a peek window.
func trimPartialRune(buf []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(buf); i++ {
		if utf8.RuneStart(buf[len(buf)-i]) {
			if !utf8.FullRune(buf[len(buf)-i:]) {
				return buf[:len(buf)-i]
			}

			break
		}
	}

	return buf
}
