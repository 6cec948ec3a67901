package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lootbay/lootbay/internal/markdown"
	"github.com/lootbay/lootbay/internal/model"
)

// HelpService serves the help-center articles rendered from markdown
// files under <contentPath>/help. Articles are loaded once at startup.
type HelpService struct {
	parser      *markdown.Parser
	contentPath string
	articles    []*model.HelpArticle
	bySlug      map[string]*model.HelpArticle
}

func NewHelpService(contentPath string) *HelpService {
	return &HelpService{
		parser:      markdown.NewParser(),
		contentPath: contentPath,
		bySlug:      make(map[string]*model.HelpArticle),
	}
}

// Load walks the help content directory and renders every article.
func (s *HelpService) Load() error {
	helpPath := filepath.Join(s.contentPath, "help")

	err := filepath.Walk(helpPath, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(path, ".md") {
			return err
		}

		relPath, err := filepath.Rel(helpPath, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		article, err := s.loadArticle(path, relPath)
		if err != nil {
			return fmt.Errorf("failed to load help article %s: %w", relPath, err)
		}

		s.articles = append(s.articles, article)
		s.bySlug[article.Slug] = article
		return nil
	})
	if err != nil {
		return err
	}

	sort.Slice(s.articles, func(i, j int) bool {
		if s.articles[i].Category != s.articles[j].Category {
			return s.articles[i].Category < s.articles[j].Category
		}
		if s.articles[i].Order != s.articles[j].Order {
			return s.articles[i].Order < s.articles[j].Order
		}
		return s.articles[i].Title < s.articles[j].Title
	})
	return nil
}

func (s *HelpService) loadArticle(fullPath, relPath string) (*model.HelpArticle, error) {
	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, err
	}

	htmlContent, meta, err := s.parser.ParseWithFrontmatter(content)
	if err != nil {
		return nil, err
	}

	slug := strings.TrimSuffix(relPath, ".md")
	article := &model.HelpArticle{
		Slug:        slug,
		HTMLContent: string(htmlContent),
	}

	if title, ok := meta["title"].(string); ok {
		article.Title = title
	} else {
		article.Title = titleFromSlug(slug)
	}
	if description, ok := meta["description"].(string); ok {
		article.Description = description
	}
	if category, ok := meta["category"].(string); ok {
		article.Category = category
	}
	switch order := meta["order"].(type) {
	case int:
		article.Order = order
	case float64:
		article.Order = int(order)
	}

	return article, nil
}

func titleFromSlug(slug string) string {
	name := filepath.Base(slug)
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	return cases.Title(language.English).String(name)
}

func (s *HelpService) Articles() []*model.HelpArticle {
	return s.articles
}

func (s *HelpService) BySlug(slug string) (*model.HelpArticle, bool) {
	article, ok := s.bySlug[slug]
	return article, ok
}
