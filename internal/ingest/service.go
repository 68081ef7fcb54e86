// Package ingest handles cloning remote repositories and reading their
// text content into indexable records.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-git/v5"
	"go.uber.org/zap"
)

// Sentinel errors for ingestion.
var (
	// ErrInvalidRepoURL indicates a repository URL that cannot be parsed.
	ErrInvalidRepoURL = errors.New("invalid repository URL")

	// ErrNoDocuments indicates a repository with no indexable files.
	ErrNoDocuments = errors.New("no indexable files found in repository")
)

// defaultSkipDirs are directories that are never indexed. These typically
// contain generated code, dependencies, or version control data.
var defaultSkipDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	".hg":          true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
	"venv":         true,
	"env":          true,
	"__pycache__":  true,
	".idea":        true,
	".vscode":      true,
	".cache":       true,
	"dist":         true,
	"build":        true,
	".next":        true,
	"target":       true,
}

// defaultExtensions are the file extensions considered text content worth
// indexing: source code, docs, and common config formats.
var defaultExtensions = map[string]bool{
	".py": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".java": true, ".cpp": true, ".c": true, ".h": true,
	".cs": true, ".rb": true, ".go": true, ".rs": true, ".php": true,
	".swift": true, ".kt": true, ".scala": true,
	".md": true, ".txt": true, ".json": true, ".yaml": true, ".yml": true,
	".toml": true, ".xml": true,
}

// Service clones and parses repositories.
type Service struct {
	reposDir    string
	cloneDepth  int
	maxFileSize int64
	logger      *zap.Logger
}

// NewService creates an ingestion service. Clones are placed under
// reposDir, one subdirectory per repository.
func NewService(reposDir string, cloneDepth int, maxFileSize int64, logger *zap.Logger) (*Service, error) {
	if reposDir == "" {
		return nil, fmt.Errorf("repos directory is required")
	}
	if maxFileSize <= 0 {
		return nil, fmt.Errorf("max file size must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		reposDir:    reposDir,
		cloneDepth:  cloneDepth,
		maxFileSize: maxFileSize,
		logger:      logger,
	}, nil
}

// Clone clones a remote repository into the repos directory and returns
// the clone path. An existing clone of the same repository is removed
// first so re-indexing always sees fresh content.
func (s *Service) Clone(ctx context.Context, repoURL string) (string, error) {
	name, err := RepoNameFromURL(repoURL)
	if err != nil {
		return "", err
	}

	clonePath := filepath.Join(s.reposDir, name)
	if _, err := os.Stat(clonePath); err == nil {
		s.logger.Info("removing existing clone", zap.String("path", clonePath))
		if err := os.RemoveAll(clonePath); err != nil {
			return "", fmt.Errorf("removing existing clone: %w", err)
		}
	}

	if err := os.MkdirAll(s.reposDir, 0o755); err != nil {
		return "", fmt.Errorf("creating repos directory: %w", err)
	}

	s.logger.Info("cloning repository",
		zap.String("url", repoURL),
		zap.String("path", clonePath),
	)

	_, err = git.PlainCloneContext(ctx, clonePath, false, &git.CloneOptions{
		URL:   repoURL,
		Depth: s.cloneDepth,
	})
	if err != nil {
		// Leave no partial clone behind
		_ = os.RemoveAll(clonePath)
		return "", fmt.Errorf("cloning %s: %w", repoURL, err)
	}

	return clonePath, nil
}

// Parse walks a cloned repository and returns the text files that pass
// the extension, directory, size, and binary filters.
func (s *Service) Parse(ctx context.Context, repoPath string) (*ParseResult, error) {
	info, err := os.Stat(repoPath)
	if err != nil {
		return nil, fmt.Errorf("stat repository path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository path must be a directory: %s", repoPath)
	}

	result := &ParseResult{}

	err = filepath.WalkDir(repoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if defaultSkipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ext := filepath.Ext(d.Name())
		if !defaultExtensions[ext] {
			result.Skipped++
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if fi.Size() > s.maxFileSize {
			result.Skipped++
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			// Unreadable files are skipped, not fatal
			s.logger.Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
			result.Skipped++
			return nil
		}

		// Skip binary files
		if !utf8.Valid(content) {
			result.Skipped++
			return nil
		}

		relPath, err := filepath.Rel(repoPath, path)
		if err != nil {
			return fmt.Errorf("computing relative path: %w", err)
		}

		result.Files = append(result.Files, File{
			Path:    relPath,
			Name:    d.Name(),
			Ext:     ext,
			Content: string(content),
			Size:    len(content),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking repository: %w", err)
	}

	s.logger.Info("parsed repository",
		zap.String("path", repoPath),
		zap.Int("files", len(result.Files)),
		zap.Int("skipped", result.Skipped),
	)

	return result, nil
}

// RepoNameFromURL derives the repository name from a remote URL:
// the last path segment with any .git suffix removed.
func RepoNameFromURL(repoURL string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(repoURL), "/")
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty URL", ErrInvalidRepoURL)
	}

	segment := trimmed
	if idx := strings.LastIndexAny(trimmed, "/:"); idx >= 0 {
		segment = trimmed[idx+1:]
	}
	name := strings.TrimSuffix(segment, ".git")
	if name == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidRepoURL, repoURL)
	}
	return name, nil
}

// ownerRepoPatterns match GitHub remote URL forms.
// SSH: git@github.com:owner/repo.git, HTTPS: https://github.com/owner/repo.
var ownerRepoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`git@github\.com:([^/]+)/([^/]+?)(?:\.git)?/?$`),
	regexp.MustCompile(`github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`),
}

// ParseOwnerRepo extracts the owner and repository name from a GitHub URL.
func ParseOwnerRepo(repoURL string) (owner, repo string, err error) {
	trimmed := strings.TrimSpace(repoURL)
	for _, pattern := range ownerRepoPatterns {
		if m := pattern.FindStringSubmatch(trimmed); len(m) == 3 {
			return m[1], m[2], nil
		}
	}
	return "", "", fmt.Errorf("%w: not a recognized GitHub URL: %s", ErrInvalidRepoURL, repoURL)
}
