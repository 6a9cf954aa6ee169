package rt

import "unicode/utf16"

func utf16Units(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// charAt returns the string made of the UTF-16 code unit at index i.
func charAt(s string, i int) (string, bool) {
	units := utf16Units(s)
	if i < 0 || i >= len(units) {
		return "", false
	}
	return string(utf16.Decode(units[i : i+1])), true
}

// StringLength returns the length of s in UTF-16 code units.
func StringLength(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func decodeUTF16(units []uint16) string {
	return string(utf16.Decode(units))
}
