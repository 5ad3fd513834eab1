package exchange

import (
	"fmt"
	"math"

	"github.com/DataDog/zstd"
)

// Codec compresses halo buffers in flight. The float64 bits are split into
// eight byte columns, most of the exponent columns of a smooth field are
// constant and compress to almost nothing.
type Codec struct {
	Level int
}

func NewCodec(level int) *Codec {
	if level < zstd.BestSpeed {
		level = zstd.BestSpeed
	}
	return &Codec{Level: level}
}

func (c *Codec) Encode(buf []float64) (msg []byte, err error) {
	var (
		n      = len(buf)
		planes = make([]byte, 8*n)
	)
	for i, v := range buf {
		bits := math.Float64bits(v)
		for col := 0; col < 8; col++ {
			planes[col*n+i] = byte(bits >> (8 * col))
		}
	}
	if msg, err = zstd.CompressLevel(nil, planes, c.Level); err != nil {
		return nil, fmt.Errorf("encode %d values: %w", n, err)
	}
	return
}

// Decode unpacks msg into buf, which must have the length of the encoded
// buffer.
func (c *Codec) Decode(msg []byte, buf []float64) (err error) {
	var (
		n      = len(buf)
		planes []byte
	)
	if planes, err = zstd.Decompress(nil, msg); err != nil {
		return fmt.Errorf("decode %d values: %w", n, err)
	}
	if len(planes) != 8*n {
		return fmt.Errorf("decode: message holds %d bytes, receive buffer needs %d", len(planes), 8*n)
	}
	for i := range buf {
		var bits uint64
		for col := 0; col < 8; col++ {
			bits |= uint64(planes[col*n+i]) << (8 * col)
		}
		buf[i] = math.Float64frombits(bits)
	}
	return
}
