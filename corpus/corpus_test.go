package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeArticle(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestParse(t *testing.T) {
	t.Run("front matter with body", func(t *testing.T) {
		article, err := Parse("gdpr-17.md", `---
id: gdpr-17
title: Right to erasure
jurisdiction: EU
---

# Article 17

The data subject shall have the right to obtain erasure.
`)
		require.NoError(t, err)
		assert.Equal(t, "gdpr-17", article.ID)
		assert.Equal(t, "Right to erasure", article.Title)
		assert.Equal(t, "EU", article.Jurisdiction)
		assert.Contains(t, article.Body, "right to obtain erasure")
		assert.NotContains(t, article.Body, "jurisdiction")
	})

	t.Run("no front matter falls back to filename and heading", func(t *testing.T) {
		article, err := Parse("/corpus/bgb-433.md", "# Kaufvertrag\n\nDer Verkäufer...")
		require.NoError(t, err)
		assert.Equal(t, "bgb-433", article.ID)
		assert.Equal(t, "Kaufvertrag", article.Title)
	})

	t.Run("malformed front matter is an error", func(t *testing.T) {
		_, err := Parse("bad.md", "---\nid: [unclosed\n---\nbody")
		require.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeArticle(t, dir, "a.md", "---\nid: art-a\ntitle: Article A\n---\nBody A")
	writeArticle(t, dir, "b.md", "---\nid: art-b\ntitle: Article B\n---\nBody B")
	writeArticle(t, dir, "notes.txt", "not an article")

	library, err := Load(dir, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	articles := library.List()
	require.Len(t, articles, 2)
	assert.Equal(t, "art-a", articles[0].ID)
	assert.Equal(t, "art-b", articles[1].ID)

	article, ok := library.Get("art-b")
	require.True(t, ok)
	assert.Equal(t, "Body B", article.Body)
}

func TestReloadPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	writeArticle(t, dir, "a.md", "---\nid: art-a\n---\nOld body")

	library, err := Load(dir, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	writeArticle(t, dir, "a.md", "---\nid: art-a\n---\nNew body")
	writeArticle(t, dir, "c.md", "---\nid: art-c\n---\nBody C")
	require.NoError(t, library.Reload())

	article, ok := library.Get("art-a")
	require.True(t, ok)
	assert.Equal(t, "New body", article.Body)
	_, ok = library.Get("art-c")
	assert.True(t, ok)
}

func TestLoadSkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	writeArticle(t, dir, "good.md", "---\nid: good\n---\nFine")
	writeArticle(t, dir, "bad.md", "---\nid: [unclosed\n---\nBroken")

	library, err := Load(dir, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	assert.Len(t, library.List(), 1)
}
