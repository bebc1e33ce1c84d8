// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package compiler

// Span is one exact-copy region shared between the synthetic output and the
// original source: Length bytes starting at Synthetic in the compiled text
// were copied verbatim from Length bytes starting at Original in the source.
type Span struct {
	Synthetic int
	Original  int
	Length    int
}

// Mapping is the ordered span table produced by a template compile.
//
// Description:
//
//	Spans are non-overlapping and strictly increasing in both coordinate
//	spaces, so a binary search over either coordinate resolves a point
//	lookup. The table is rebuilt wholesale on every recompile and shifted
//	in place by ShiftOriginal when an edit outside the template moves the
//	source without changing the compiled output.
type Mapping []Span

// OriginalOffset translates an offset inside the synthetic output back to the
// original source. The second result is false when the offset falls inside
// synthesized boilerplate rather than a copied fragment.
//
// An offset sitting exactly one past the end of a span still resolves to that
// span, so the position just after an identifier maps the way editors expect
// when the cursor trails a word.
func (m Mapping) OriginalOffset(offset int) (int, bool) {
	start, end := 0, len(m)
	for start < end {
		mid := (start + end) / 2
		span := m[mid]
		switch {
		case span.Synthetic+span.Length < offset:
			if start == mid {
				start++
			} else {
				start = mid
			}
		case span.Synthetic > offset:
			end = mid
		default:
			return span.Original + offset - span.Synthetic, true
		}
	}
	return 0, false
}

// SyntheticOffset translates an original-source offset into the synthetic
// output, with the same trailing-edge tolerance as OriginalOffset. The second
// result is false when the offset is not covered by any copied fragment.
func (m Mapping) SyntheticOffset(offset int) (int, bool) {
	start, end := 0, len(m)
	for start < end {
		mid := (start + end) / 2
		span := m[mid]
		switch {
		case span.Original+span.Length < offset:
			if start == mid {
				start++
			} else {
				start = mid
			}
		case span.Original > offset:
			end = mid
		default:
			return span.Synthetic + offset - span.Original, true
		}
	}
	return 0, false
}

// ShiftOriginal moves the original coordinate of every span strictly after
// offset by delta. The synthetic coordinates are untouched: an edit elsewhere
// in the file moves the source text under the spans but not the compiled
// output built from them.
func (m Mapping) ShiftOriginal(offset, delta int) {
	for i := range m {
		if offset < m[i].Original {
			m[i].Original += delta
		}
	}
}
