package model

// HelpArticle is a help-center page loaded from markdown content.
type HelpArticle struct {
	Slug        string
	Title       string
	Description string
	Category    string
	Order       int
	HTMLContent string
}
