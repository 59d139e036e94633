// Package docs parses Go doc comments into outlines, descriptions and tagged
// notes, and looks them up for types, fields, constants and functions.
package docs

import (
	"go/ast"
	"strings"
)

// Note is a tagged line in a doc comment, such as "@param id the user id".
type Note struct {
	// Tag is the tag name without the leading "@" ("param").
	Tag string

	// Text is the rest of the line ("id the user id").
	Text string
}

// Comment is a parsed doc comment.
type Comment struct {
	// Outline is the first line of the comment.
	Outline string

	// Description is the remaining untagged text.
	Description string

	// Notes are the tagged lines in order.
	Notes []Note

	// Deprecated is non-nil if the comment has a "Deprecated:" paragraph.
	// The string value is the deprecation message (may be empty).
	Deprecated *string
}

// Note returns the text of the first note tagged tag, or "".
func (c *Comment) Note(tag string) string {
	if c == nil {
		return ""
	}
	for _, n := range c.Notes {
		if n.Tag == tag {
			return n.Text
		}
	}
	return ""
}

// Param returns the text of the "@param name ..." note for name, without the
// name itself.
func (c *Comment) Param(name string) string {
	if c == nil {
		return ""
	}
	for _, n := range c.Notes {
		if n.Tag != "param" {
			continue
		}
		first, rest, _ := strings.Cut(n.Text, " ")
		if first == name {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// Text returns the comment body: outline and description joined.
func (c *Comment) Text() string {
	if c == nil {
		return ""
	}
	if c.Description == "" {
		return c.Outline
	}
	return c.Outline + "\n" + c.Description
}

// IsDeprecated reports whether the comment carries a deprecation notice.
func (c *Comment) IsDeprecated() bool {
	return c != nil && c.Deprecated != nil
}

// ParseGroup parses an AST comment group. A nil group yields nil.
func ParseGroup(cg *ast.CommentGroup) *Comment {
	if cg == nil {
		return nil
	}
	return Parse(cg.Text())
}

// Parse parses comment text with comment markers already removed.
func Parse(text string) *Comment {
	c := &Comment{}
	var body []string
	inDeprecated := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			inDeprecated = false
			continue
		case strings.HasPrefix(line, "Deprecated:"):
			msg := strings.TrimSpace(strings.TrimPrefix(line, "Deprecated:"))
			c.Deprecated = &msg
			inDeprecated = true
			continue
		case inDeprecated:
			msg := strings.TrimSpace(*c.Deprecated + " " + line)
			c.Deprecated = &msg
			continue
		case strings.HasPrefix(line, "@"):
			tag, text, _ := strings.Cut(line[1:], " ")
			c.Notes = append(c.Notes, Note{Tag: tag, Text: strings.TrimSpace(text)})
			continue
		}
		body = append(body, line)
	}
	if len(body) > 0 {
		c.Outline = body[0]
		c.Description = strings.Join(body[1:], "\n")
	}
	return c
}
