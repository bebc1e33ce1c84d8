// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tsast

import (
	"regexp"
	"strings"
)

var (
	reCommentStars = regexp.MustCompile(`\n\s+\*`)
	reCommentTags  = regexp.MustCompile(`(@\w+)\s([a-zA-Z_][a-zA-Z0-9_]+)\s`)
)

// Markdown converts a raw source comment into hover-ready markdown.
//
// Description:
//
//	The comment delimiters and the decorative asterisk column of JSDoc
//	blocks are stripped, and @tag parameter lines are styled so the tag is
//	emphasized and the parameter name rendered as code.
func Markdown(comment string) string {
	text := comment
	switch {
	case strings.HasPrefix(text, "/*"):
		text = strings.TrimPrefix(text, "/*")
		text = strings.TrimSuffix(text, "*/")
	case strings.HasPrefix(text, "//"):
		text = strings.TrimPrefix(text, "//")
	}
	if strings.HasPrefix(text, "*") {
		text = text[1:]
	}
	text = reCommentStars.ReplaceAllString(text, "\n\n")
	text = reCommentTags.ReplaceAllString(text, "*$1* `$2` ")
	return text
}

// MarkdownAll joins the markdown of several comments in source order.
func MarkdownAll(comments []string) string {
	if len(comments) == 0 {
		return ""
	}
	parts := make([]string, 0, len(comments))
	for _, c := range comments {
		parts = append(parts, Markdown(c))
	}
	return strings.Join(parts, "\n\n")
}
