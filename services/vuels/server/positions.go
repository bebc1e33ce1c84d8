// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"net/url"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// offsetAt converts an LSP position to a byte offset into content.
//
// Description:
//
//	Characters count UTF-16 code units per the protocol default. Positions
//	past the end of a line clamp to the line end; lines past the end of the
//	document clamp to the document end.
func offsetAt(content string, pos protocol.Position) int {
	off := 0
	for line := uint32(0); line < pos.Line; line++ {
		nl := strings.IndexByte(content[off:], '\n')
		if nl < 0 {
			return len(content)
		}
		off += nl + 1
	}

	units := uint32(0)
	for off < len(content) && units < pos.Character {
		r, size := utf8.DecodeRuneInString(content[off:])
		if r == '\n' {
			break
		}
		units += uint32(len(utf16.Encode([]rune{r})))
		off += size
	}
	return off
}

// positionAt converts a byte offset into content to an LSP position.
func positionAt(content string, offset int) protocol.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(content) {
		offset = len(content)
	}

	lineStart := 0
	line := uint32(0)
	for {
		nl := strings.IndexByte(content[lineStart:], '\n')
		if nl < 0 || lineStart+nl >= offset {
			break
		}
		lineStart += nl + 1
		line++
	}

	units := uint32(0)
	for i := lineStart; i < offset; {
		r, size := utf8.DecodeRuneInString(content[i:])
		units += uint32(len(utf16.Encode([]rune{r})))
		i += size
	}
	return protocol.Position{Line: line, Character: units}
}

// uriToPath converts a file URI to a filesystem path. Non-file URIs come
// back unchanged so callers can pass them through.
func uriToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	return u.Path
}

// pathToURI converts a filesystem path to a file URI.
func pathToURI(path string) string {
	return "file://" + path
}
