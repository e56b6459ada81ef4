package extract

import "strings"

// Sections cuts out every block of text delimited by the begin marker,
// running to the next begin marker or, for the last block, to the end marker
// (or the end of the text if the end marker is absent). Printable statements
// repeat their column header at each page break, so one logical section can
// surface as several blocks.
func Sections(text, begin, end string) []string {
	var blocks []string
	rest := text
	offset := 0

	var starts []int
	for {
		i := strings.Index(rest, begin)
		if i < 0 {
			break
		}
		starts = append(starts, offset+i+len(begin))
		rest = rest[i+len(begin):]
		offset += i + len(begin)
	}

	for i, start := range starts {
		stop := len(text)
		if i < len(starts)-1 {
			stop = starts[i+1] - len(begin)
		} else if j := strings.Index(text, end); j >= 0 && j > start {
			stop = j
		}
		blocks = append(blocks, text[start:stop])
	}
	return blocks
}

// StripRepeated removes every occurrence of section except the first. Text
// recovered from paginated documents repeats section headers mid-row; the
// grammar of the statement only expects one.
func StripRepeated(text, section string) string {
	first := strings.Index(text, section)
	if first < 0 {
		return text
	}
	for {
		last := strings.LastIndex(text, section)
		if last == first {
			return text
		}
		text = text[:last] + text[last+len(section):]
	}
}

// SpanishDecimal normalizes a Spanish-locale number ("1.234,56") to the dot
// convention decimal parsers expect.
func SpanishDecimal(s string) string {
	s = strings.ReplaceAll(s, ".", "")
	return strings.ReplaceAll(s, ",", ".")
}

// EnglishDecimal normalizes an English-locale number ("1,234.56") by
// stripping thousands separators.
func EnglishDecimal(s string) string {
	return strings.ReplaceAll(s, ",", "")
}
