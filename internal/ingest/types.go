package ingest

import "time"

// File is one text file read from a cloned repository.
type File struct {
	// Path is the path relative to the repository root.
	Path string

	// Name is the base file name.
	Name string

	// Ext is the file extension including the leading dot.
	Ext string

	// Content is the file's UTF-8 text content.
	Content string

	// Size is the content length in bytes.
	Size int
}

// ParseResult holds the outcome of walking a repository.
type ParseResult struct {
	// Files are the records that passed all filters.
	Files []File

	// Skipped counts files rejected by extension, size, or binary checks.
	Skipped int
}

// RepoInfo is repository metadata fetched from the GitHub API.
type RepoInfo struct {
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	URL         string    `json:"url"`
	UpdatedAt   time.Time `json:"last_updated"`
}
