package frames

import "strings"

// CompareNatural orders names by splitting them into digit and non-digit runs.
// Digit runs compare by numeric value, other runs bytewise. Names that tie on
// that key (frame_01 vs frame_1) fall back to plain string order.
func CompareNatural(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ai, bj := isDigit(a[i]), isDigit(b[j])
		switch {
		case ai && bj:
			ei := digitRunEnd(a, i)
			ej := digitRunEnd(b, j)
			if c := compareDigits(a[i:ei], b[j:ej]); c != 0 {
				return c
			}
			i, j = ei, ej
		case ai != bj:
			if a[i] < b[j] {
				return -1
			}
			return 1
		default:
			ei := textRunEnd(a, i)
			ej := textRunEnd(b, j)
			if c := strings.Compare(a[i:ei], b[j:ej]); c != 0 {
				return c
			}
			i, j = ei, ej
		}
	}
	switch {
	case len(a)-i < len(b)-j:
		return -1
	case len(a)-i > len(b)-j:
		return 1
	}
	return strings.Compare(a, b)
}

func compareDigits(x, y string) int {
	x = strings.TrimLeft(x, "0")
	y = strings.TrimLeft(y, "0")
	if len(x) != len(y) {
		if len(x) < len(y) {
			return -1
		}
		return 1
	}
	return strings.Compare(x, y)
}

func digitRunEnd(s string, i int) int {
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return i
}

func textRunEnd(s string, i int) int {
	for i < len(s) && !isDigit(s[i]) {
		i++
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
