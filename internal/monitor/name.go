package monitor

// NamePlaceholder replaces every name code unit outside 7-bit ASCII.
const NamePlaceholder = '?'

// MaxNameLength caps monitor names, in code units.
const MaxNameLength = 128

// UnknownName is used when the platform reports no product name.
const UnknownName = "Unknown"

// SanitizeName down-converts a byte string: each byte >= 0x80 becomes
// NamePlaceholder, a NUL ends the name, and the result is capped at
// MaxNameLength bytes. Length is otherwise preserved.
func SanitizeName(name string) string {
	n := len(name)
	if n > MaxNameLength {
		n = MaxNameLength
	}
	out := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		c := name[i]
		if c == 0 {
			break
		}
		if c >= 0x80 {
			c = NamePlaceholder
		}
		out = append(out, c)
	}
	return string(out)
}

// SanitizeUTF16 down-converts a wide string one code unit at a time, with the
// same rules as SanitizeName. Surrogate pairs become two placeholders.
func SanitizeUTF16(name []uint16) string {
	n := len(name)
	if n > MaxNameLength {
		n = MaxNameLength
	}
	out := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		u := name[i]
		if u == 0 {
			break
		}
		if u >= 0x80 {
			out = append(out, NamePlaceholder)
			continue
		}
		out = append(out, byte(u))
	}
	return string(out)
}
