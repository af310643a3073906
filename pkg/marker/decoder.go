package marker

import (
	"errors"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decoder turns raw response bytes into text in streaming mode. A multi-byte
// sequence split across two reads is held back until it is complete, so a
// character is never replaced because of where the network cut the body.
//
// Input is UTF-8 unless it starts with a UTF-16 byte order mark.
// Invalid sequences decode to U+FFFD.
type Decoder struct {
	t       transform.Transformer
	pending []byte
	dst     []byte
}

// NewDecoder returns a Decoder positioned at the start of a stream.
func NewDecoder() *Decoder {
	t := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	t.Reset()

	return &Decoder{t: t}
}

// Decode returns the text decodable from the bytes seen so far. When atEOF
// is true any incomplete trailing sequence is flushed as U+FFFD.
func (d *Decoder) Decode(p []byte, atEOF bool) string {
	src := append(d.pending, p...)
	d.pending = nil

	if len(src) == 0 && !atEOF {
		return ""
	}

	if need := 3*len(src) + 16; cap(d.dst) < need {
		d.dst = make([]byte, need)
	}
	dst := d.dst[:cap(d.dst)]

	var out []byte
	for {
		nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
		out = append(out, dst[:nDst]...)
		src = src[nSrc:]

		switch {
		case err == nil:
			return string(out)
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				dst = make([]byte, 2*len(dst))
				d.dst = dst
			}
		case errors.Is(err, transform.ErrShortSrc):
			if atEOF {
				return string(out)
			}
			d.pending = append([]byte(nil), src...)
			return string(out)
		default:
			// The unicode decoders replace invalid input instead of failing;
			// anything else leaves the remainder undecodable.
			return string(out)
		}
	}
}
