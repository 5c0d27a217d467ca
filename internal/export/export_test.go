package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexdraft/internal/redline/engine"
)

func TestRenderHTMLAnnotations(t *testing.T) {
	segments := []engine.Segment{
		{Op: engine.OpEqual, Text: "Liability is "},
		{Op: engine.OpDelete, Text: "unlimited"},
		{Op: engine.OpInsert, Text: "capped at fees paid"},
		{Op: engine.OpEqual, Text: "."},
	}

	html, err := renderHTML("Master Services Agreement", "redline", segments, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Contains(t, html, "<del>unlimited</del>")
	assert.Contains(t, html, "<ins>capped at fees paid</ins>")
	assert.Contains(t, html, "Master Services Agreement")
}

func TestRenderHTMLEscapesContent(t *testing.T) {
	segments := []engine.Segment{
		{Op: engine.OpInsert, Text: `<script>alert("x")</script>`},
	}

	html, err := renderHTML("t", "s", segments, time.Now())
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, format)

	format, err = ParseFormat("docx")
	require.NoError(t, err)
	assert.Equal(t, FormatDOCX, format)

	_, err = ParseFormat("xlsx")
	require.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Master-Services-Agreement", sanitizeFilename("Master Services Agreement"))
	assert.Equal(t, "document", sanitizeFilename("日本語のみ"))
	assert.Equal(t, "acme_nda-v2", sanitizeFilename("acme_nda (v2)"))
}
