// Package models defines the domain types for MindNexus.
package models

import (
	"path/filepath"
	"strings"
	"time"
)

// DocType classifies a vault document by its extension.
type DocType string

const (
	DocTypeMarkdown DocType = "markdown"
	DocTypeText     DocType = "text"
	DocTypePDF      DocType = "pdf"
)

// SupportedPath reports whether the path names a document MindNexus indexes.
func SupportedPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".txt", ".pdf":
		return true
	}
	return false
}

// DocTypeForPath maps an extension to its DocType. Unsupported paths map to
// markdown; callers gate on SupportedPath first.
func DocTypeForPath(path string) DocType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return DocTypeText
	case ".pdf":
		return DocTypePDF
	default:
		return DocTypeMarkdown
	}
}

// Note represents a parsed vault document.
type Note struct {
	Path        string                 `json:"path"`
	Type        DocType                `json:"type"`
	Content     []byte                 `json:"-"`
	Body        string                 `json:"body"`
	Frontmatter map[string]interface{} `json:"frontmatter,omitempty"`
	Title       string                 `json:"title,omitempty"`
	Links       []string               `json:"links,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Checksum    string                 `json:"checksum"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Link represents a directed wikilink edge between two notes.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"` // "inline" or "frontmatter"
}

// AiLink is an AI-proposed semantic edge between two notes, persisted by the
// index and fed to the layout engine alongside the tag-derived links.
type AiLink struct {
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	CreatedAt time.Time `json:"created_at"`
}
