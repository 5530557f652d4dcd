// Package extractor locates code elements in raw source text by signature
// pattern and recovers their brace-balanced bodies. There is no grammar and
// no AST: signatures are recognized by configurable regular expressions and
// bodies by counting braces.
package extractor

import (
	"regexp"
	"strings"

	"github.com/arturoeanton/go-code-similarity-ollama/internal/domain"
)

// Extract finds every non-commented occurrence of the include patterns in
// content and returns one ElementData per occurrence that has a balanced
// brace body. Only ElementName and LineNumber are populated in the metadata;
// file-level fields are the caller's job.
//
// A match is dropped when its exact text also matches an exclude pattern,
// when it starts inside a comment, or when it turns out to be a
// declaration-only signature (a ';' or an unmatched '}' before any '{').
// The first pattern to claim a start offset wins; later patterns matching
// the same offset are skipped.
func Extract(content string, include, exclude []*regexp.Regexp) []domain.ElementData {
	var elements []domain.ElementData
	claimed := make(map[int]struct{})

	for _, pat := range include {
		for _, loc := range pat.FindAllStringSubmatchIndex(content, -1) {
			start, end := loc[0], loc[1]
			if _, dup := claimed[start]; dup {
				continue
			}

			signature := content[start:end]
			if matchesAny(signature, exclude) {
				continue
			}
			if insideComment(content, start) {
				continue
			}
			claimed[start] = struct{}{}

			body, ok := balanceBody(content, start, end)
			if !ok {
				continue
			}

			elements = append(elements, domain.ElementData{
				Metadata: domain.ElementMetadata{
					ElementName: elementName(content, loc),
					LineNumber:  strings.Count(content[:start], "\n") + 1,
				},
				ElementString: body,
			})
		}
	}

	return elements
}

// CompilePatterns compiles pattern strings for extraction. Matching is
// case-sensitive and multi-line.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?m)" + p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func matchesAny(s string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// elementName returns the first capture group of the match, falling back to
// the trimmed full signature when the group is absent or empty.
func elementName(content string, loc []int) string {
	if len(loc) >= 4 && loc[2] >= 0 && loc[3] > loc[2] {
		return content[loc[2]:loc[3]]
	}
	return strings.TrimSpace(content[loc[0]:loc[1]])
}

// insideComment reports whether the offset lies after a same-line "//" or
// inside an unterminated "/* */" span opened before it. This is a pre-check
// on the signature position only; body brace balancing below does not skip
// comments.
func insideComment(content string, pos int) bool {
	lineStart := strings.LastIndexByte(content[:pos], '\n') + 1
	if strings.Contains(content[lineStart:pos], "//") {
		return true
	}

	lastOpen := strings.LastIndex(content[:pos], "/*")
	if lastOpen >= 0 && !strings.Contains(content[lastOpen+2:pos], "*/") {
		return true
	}
	return false
}

// balanceBody scans forward from the end of the signature for the first
// unescaped '{' and balances braces from there. A pattern may consume the
// opening brace as part of the signature match; in that case the brace that
// terminates the signature is the open brace. The returned slice spans the
// signature start through the matching closing brace inclusive.
func balanceBody(content string, sigStart, sigEnd int) (string, bool) {
	open := -1
	if sigEnd > sigStart && content[sigEnd-1] == '{' && (sigEnd < 2 || content[sigEnd-2] != '\\') {
		open = sigEnd - 1
	}
	for i := sigEnd; open < 0 && i < len(content); i++ {
		switch content[i] {
		case '{':
			if i > 0 && content[i-1] == '\\' {
				continue
			}
			open = i
		case ';', '}':
			// Declaration-only signature, no body to extract.
			return "", false
		}
	}
	if open < 0 {
		return "", false
	}

	depth := 0
	for i := open; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[sigStart : i+1], true
			}
		}
	}
	return "", false
}
