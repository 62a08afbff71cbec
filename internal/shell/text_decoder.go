package shell

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const decodedBytesPerSourceByteConstant = 3

// chunkDecoder turns raw output chunks into UTF-8 text. Incomplete trailing sequences are carried
// into the next chunk; invalid bytes become U+FFFD.
type chunkDecoder struct {
	transformer transform.Transformer
	pending     []byte
}

func newChunkDecoder() *chunkDecoder {
	return &chunkDecoder{transformer: unicode.UTF8.NewDecoder()}
}

func (decoder *chunkDecoder) decode(chunk []byte, atEOF bool) string {
	source := append(decoder.pending, chunk...)
	decoder.pending = nil
	if len(source) == 0 {
		return ""
	}

	destination := make([]byte, decodedBytesPerSourceByteConstant*len(source)+utf8.UTFMax)
	decoded := make([]byte, 0, len(source))
	for len(source) > 0 {
		written, consumed, transformError := decoder.transformer.Transform(destination, source, atEOF)
		decoded = append(decoded, destination[:written]...)
		source = source[consumed:]
		if transformError == nil {
			break
		}
		if errors.Is(transformError, transform.ErrShortSrc) {
			decoder.pending = append([]byte{}, source...)
			break
		}
		if !errors.Is(transformError, transform.ErrShortDst) || (written == 0 && consumed == 0) {
			break
		}
	}
	return string(decoded)
}

// flush decodes whatever is still pending, substituting replacement characters for truncated sequences.
func (decoder *chunkDecoder) flush() string {
	return decoder.decode(nil, true)
}
