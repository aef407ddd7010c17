package core

// String helpers that keep fmt and strconv out of the firmware image

func itoa(n int) string {
	if n < 0 {
		return "-" + utoa(uint32(-n))
	}
	return utoa(uint32(n))
}

func utoa(n uint32) string {
	var buf [10]byte
	i := len(buf)
	for {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			return string(buf[i:])
		}
	}
}

// valueToString renders a dictionary constant
func valueToString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return itoa(val)
	case int32:
		return itoa(int(val))
	case uint8:
		return utoa(uint32(val))
	case uint16:
		return utoa(uint32(val))
	case uint32:
		return utoa(val)
	case bool:
		if val {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}

// appendJSONString appends s as a JSON string literal. Dictionary text is
// plain ASCII, so only quotes, backslashes and control bytes need escaping.
func appendJSONString(dst []byte, s string) []byte {
	const hex = "0123456789abcdef"
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			dst = append(dst, '\\', c)
		case c < 0x20:
			dst = append(dst, '\\', 'u', '0', '0', hex[c>>4], hex[c&0xF])
		default:
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}
