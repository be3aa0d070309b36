package charset

import (
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// CP437Full is an encoding.Encoding for IBM code page 437, including the
// glyph interpretation of the 0x00-0x1F range.  The IANA IBM437 encoding
// maps those bytes to C0 controls, which is the wrong behavior for text
// that was drawn by a BBS: a 0x01 in ANSI art is a smiley face, not SOH.
type CP437Full struct{}

// NewDecoder returns a decoder that translates CP437 bytes to UTF-8.
func (CP437Full) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: cp437Decoder{}}
}

// NewEncoder returns an encoder that translates UTF-8 to CP437 bytes.
// Runes with no CP437 representation encode as '?'.
func (CP437Full) NewEncoder() *encoding.Encoder {
	return &encoding.Encoder{Transformer: cp437Encoder{}}
}

type cp437Decoder struct{}

func (cp437Decoder) Reset() {}

func (cp437Decoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r := CP437Chars[src[nSrc]]
		if nDst+utf8.RuneLen(r) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}

		nDst += utf8.EncodeRune(dst[nDst:], r)
		nSrc++
	}

	return nDst, nSrc, nil
}

type cp437Encoder struct{}

func (cp437Encoder) Reset() {}

func (cp437Encoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	reverse := cp437Reverse()

	for nSrc < len(src) {
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size == 1 {
			if !atEOF && !utf8.FullRune(src[nSrc:]) {
				return nDst, nSrc, transform.ErrShortSrc
			}
		}

		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}

		b, ok := reverse[r]
		if !ok {
			b = '?'
		}

		dst[nDst] = b
		nDst++
		nSrc += size
	}

	return nDst, nSrc, nil
}

var (
	reverseOnce  sync.Once
	reverseTable map[rune]byte
)

func cp437Reverse() map[rune]byte {
	reverseOnce.Do(func() {
		reverseTable = make(map[rune]byte, 256)
		// Walk forward so the ASCII space at 0x20 wins over the blank
		// glyph at 0x00.
		for i := 0; i < 256; i++ {
			reverseTable[CP437Chars[i]] = byte(i)
		}
	})

	return reverseTable
}
