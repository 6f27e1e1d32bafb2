// Package corpus loads the local legal-article library the user selects text
// from. Articles are Markdown files with a YAML front matter block carrying
// identity and jurisdiction metadata.
package corpus

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/brieflex/brieflex/errors"
)

const frontMatterDelimiter = "---"

// Article is one legal text in the corpus.
type Article struct {
	ID           string `json:"id" yaml:"id"`
	Title        string `json:"title" yaml:"title"`
	Jurisdiction string `json:"jurisdiction,omitempty" yaml:"jurisdiction"`
	Body         string `json:"body" yaml:"-"`
	Path         string `json:"path" yaml:"-"`
}

// Library is the in-memory view of a corpus directory. Reload swaps the whole
// view atomically, so readers never observe a half-loaded corpus.
type Library struct {
	dir string
	log *zap.SugaredLogger

	mu       sync.RWMutex
	articles map[string]Article
}

// Load reads all Markdown files under dir into a new library.
func Load(dir string, log *zap.SugaredLogger) (*Library, error) {
	l := &Library{dir: dir, log: log, articles: make(map[string]Article)}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload re-reads the corpus directory. A file that fails to parse is skipped
// with a warning rather than failing the whole reload.
func (l *Library) Reload() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return errors.Wrapf(err, "read corpus directory %s", l.dir)
	}

	articles := make(map[string]Article)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			if l.log != nil {
				l.log.Warnw("Skipping unreadable article", "path", path, "error", err)
			}
			continue
		}
		article, err := Parse(path, string(data))
		if err != nil {
			if l.log != nil {
				l.log.Warnw("Skipping malformed article", "path", path, "error", err)
			}
			continue
		}
		articles[article.ID] = article
	}

	l.mu.Lock()
	l.articles = articles
	l.mu.Unlock()

	if l.log != nil {
		l.log.Infow("Corpus loaded", "dir", l.dir, "articles", len(articles))
	}
	return nil
}

// Get returns the article with the given ID.
func (l *Library) Get(id string) (Article, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	article, ok := l.articles[id]
	return article, ok
}

// List returns all articles sorted by ID.
func (l *Library) List() []Article {
	l.mu.RLock()
	defer l.mu.RUnlock()
	articles := make([]Article, 0, len(l.articles))
	for _, article := range l.articles {
		articles = append(articles, article)
	}
	sort.Slice(articles, func(i, j int) bool { return articles[i].ID < articles[j].ID })
	return articles
}

// Parse splits a Markdown document into front matter metadata and body. A
// document without front matter gets its ID from the filename and its title
// from the first heading.
func Parse(path, content string) (Article, error) {
	article := Article{Path: path}

	body := content
	if meta, rest, ok := splitFrontMatter(content); ok {
		if err := yaml.Unmarshal([]byte(meta), &article); err != nil {
			return Article{}, errors.Wrap(err, "parse front matter")
		}
		body = rest
	}
	article.Body = strings.TrimSpace(body)

	if article.ID == "" {
		article.ID = strings.TrimSuffix(filepath.Base(path), ".md")
	}
	if article.Title == "" {
		article.Title = firstHeading(article.Body)
	}
	if article.Title == "" {
		article.Title = article.ID
	}
	return article, nil
}

// splitFrontMatter extracts the YAML block between the leading "---" pair.
func splitFrontMatter(content string) (meta, body string, ok bool) {
	trimmed := strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(trimmed, frontMatterDelimiter+"\n") &&
		!strings.HasPrefix(trimmed, frontMatterDelimiter+"\r\n") {
		return "", "", false
	}

	rest := trimmed[len(frontMatterDelimiter):]
	rest = strings.TrimPrefix(rest, "\r\n")
	rest = strings.TrimPrefix(rest, "\n")

	for _, closer := range []string{"\n" + frontMatterDelimiter + "\r\n", "\n" + frontMatterDelimiter + "\n"} {
		if idx := strings.Index(rest, closer); idx >= 0 {
			return rest[:idx], rest[idx+len(closer):], true
		}
	}
	if strings.HasSuffix(rest, "\n"+frontMatterDelimiter) {
		return strings.TrimSuffix(rest, "\n"+frontMatterDelimiter), "", true
	}
	return "", "", false
}

func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}
