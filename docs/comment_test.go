package docs

import "testing"

func TestParse(t *testing.T) {
	text := `Get returns a user by id.
Users that were deleted are not returned.

@param id the user id
@return the user
@author jane
@version 1.2

Deprecated: use Lookup instead.
`
	c := Parse(text)

	if c.Outline != "Get returns a user by id." {
		t.Errorf("Outline = %q", c.Outline)
	}
	if c.Description != "Users that were deleted are not returned." {
		t.Errorf("Description = %q", c.Description)
	}
	if got := c.Param("id"); got != "the user id" {
		t.Errorf(`Param("id") = %q`, got)
	}
	if got := c.Param("missing"); got != "" {
		t.Errorf(`Param("missing") = %q, want ""`, got)
	}
	if got := c.Note("return"); got != "the user" {
		t.Errorf(`Note("return") = %q`, got)
	}
	if got := c.Note("version"); got != "1.2" {
		t.Errorf(`Note("version") = %q`, got)
	}
	if !c.IsDeprecated() || *c.Deprecated != "use Lookup instead." {
		t.Errorf("Deprecated = %v", c.Deprecated)
	}
}

func TestParseDeprecatedParagraph(t *testing.T) {
	c := Parse("Old thing.\n\nDeprecated: this will be\nremoved in v2.\n\nMore text.")
	if c.Deprecated == nil || *c.Deprecated != "this will be removed in v2." {
		t.Fatalf("Deprecated = %v", c.Deprecated)
	}
	if c.Description != "More text." {
		t.Errorf("Description = %q", c.Description)
	}
}

func TestNilCommentAccessors(t *testing.T) {
	var c *Comment
	if c.Note("x") != "" || c.Param("x") != "" || c.Text() != "" || c.IsDeprecated() {
		t.Error("nil comment accessors should return zero values")
	}
	if ParseGroup(nil) != nil {
		t.Error("ParseGroup(nil) should be nil")
	}
}

func TestCommentText(t *testing.T) {
	c := Parse("Outline.\nSecond line.")
	if got := c.Text(); got != "Outline.\nSecond line." {
		t.Errorf("Text() = %q", got)
	}
}
