package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/MrJamesThe3rd/timecard/internal/encoding"
)

func readAll(t *testing.T, input []byte) (string, encoding.Charset) {
	t.Helper()

	r, charset, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(got), charset
}

func TestNewUTF8Reader_UTF8Passthrough(t *testing.T) {
	input := "date;time_start;breakdown_reason\n2025-02-03;08:00;تسرب هيدروليكي\n"

	got, charset := readAll(t, []byte(input))
	assert.Equal(t, input, got)
	assert.Equal(t, encoding.UTF8, charset)
}

func TestNewUTF8Reader_UTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("date;time_start\n")...)

	got, charset := readAll(t, input)
	assert.Equal(t, "date;time_start\n", got)
	assert.Equal(t, encoding.UTF8BOM, charset)
}

func TestNewUTF8Reader_UTF16LE(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()

	input, err := enc.Bytes([]byte("date,time_start\n2025-02-03,07:30\n"))
	require.NoError(t, err)

	got, charset := readAll(t, input)
	assert.Equal(t, "date,time_start\n2025-02-03,07:30\n", got)
	assert.Equal(t, encoding.UTF16LE, charset)
}

func TestNewUTF8Reader_Latin1(t *testing.T) {
	// Windows-1252: é = 0xE9, ç = 0xE7, ã = 0xE3.
	input := []byte("date;breakdown_reason\n2025-02-03;Caf\xe9 fechado, repara\xe7\xe3o do motor\n")

	got, charset := readAll(t, input)
	assert.Equal(t, "date;breakdown_reason\n2025-02-03;Café fechado, reparação do motor\n", got)
	assert.Equal(t, encoding.Windows1252, charset)
}

func TestDetect_Empty(t *testing.T) {
	assert.Equal(t, encoding.UTF8, encoding.Detect(nil))
}

func TestDetect_TruncatedRune(t *testing.T) {
	// A multi-byte rune split by the sniff window is still UTF-8.
	buf := []byte("breakdown ت")
	assert.Equal(t, encoding.UTF8, encoding.Detect(buf[:len(buf)-1]))
}
