package protocol

import "errors"

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small for VLQ")
)

// vlqShifts are the bit offsets of the optional leading groups, most
// significant first
var vlqShifts = [...]uint{28, 21, 14, 7}

// EncodeVLQInt writes v as a variable length quantity: 7 bits per byte, most
// significant group first, high bit set on every byte but the last. Bit 6 of
// the first byte extends the sign, so small negative numbers stay short.
func EncodeVLQInt(output OutputBuffer, v int32) {
	var buf [5]byte
	n := 0
	for _, s := range vlqShifts {
		if v < -(1<<(s-2)) || v >= 3<<(s-2) {
			buf[n] = byte(v>>s)&0x7F | 0x80
			n++
		}
	}
	buf[n] = byte(v) & 0x7F
	output.Output(buf[:n+1])
}

// EncodeVLQUint writes v using the signed encoding of its bit pattern
func EncodeVLQUint(output OutputBuffer, v uint32) {
	EncodeVLQInt(output, int32(v))
}

// DecodeVLQInt reads one quantity from the front of data and advances it
func DecodeVLQInt(data *[]byte) (int32, error) {
	buf := *data
	if len(buf) == 0 {
		return 0, ErrBufferTooSmall
	}
	c := uint32(buf[0])
	v := c & 0x7F
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F)
	}
	i := 1
	for ; c&0x80 != 0; i++ {
		if i >= len(buf) {
			return 0, ErrBufferTooSmall
		}
		if i >= 5 {
			return 0, ErrInvalidVLQ
		}
		c = uint32(buf[i])
		v = v<<7 | c&0x7F
	}
	*data = buf[i:]
	return int32(v), nil
}

// DecodeVLQUint reads one unsigned quantity from the front of data
func DecodeVLQUint(data *[]byte) (uint32, error) {
	v, err := DecodeVLQInt(data)
	return uint32(v), err
}

// EncodeVLQBytes writes a length prefixed byte string
func EncodeVLQBytes(output OutputBuffer, b []byte) {
	EncodeVLQUint(output, uint32(len(b)))
	output.Output(b)
}

// DecodeVLQBytes reads a length prefixed byte string. The result aliases data.
func DecodeVLQBytes(data *[]byte) ([]byte, error) {
	n, err := DecodeVLQUint(data)
	if err != nil {
		return nil, err
	}
	if uint32(len(*data)) < n {
		return nil, ErrBufferTooSmall
	}
	b := (*data)[:n]
	*data = (*data)[n:]
	return b, nil
}

// EncodeVLQString writes a length prefixed string
func EncodeVLQString(output OutputBuffer, s string) {
	EncodeVLQBytes(output, []byte(s))
}

// DecodeVLQString reads a length prefixed string
func DecodeVLQString(data *[]byte) (string, error) {
	b, err := DecodeVLQBytes(data)
	return string(b), err
}

// EncodeVLQ returns the encoding of v
func EncodeVLQ(v int32) []byte {
	out := NewScratchOutput()
	EncodeVLQInt(out, v)
	return out.Result()
}
