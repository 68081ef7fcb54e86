package ingest

import (
	"context"
	"fmt"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/fyrsmithlabs/repoqa/internal/config"
)

// GitHubClient fetches repository metadata from the GitHub API.
type GitHubClient struct {
	client *github.Client
}

// NewGitHubClient creates a GitHub API client. An empty token yields an
// unauthenticated client, which works with lower rate limits.
func NewGitHubClient(ctx context.Context, token config.Secret) *GitHubClient {
	var client *github.Client
	if token.IsSet() {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.Value()})
		client = github.NewClient(oauth2.NewClient(ctx, ts))
	} else {
		client = github.NewClient(nil)
	}
	return &GitHubClient{client: client}
}

// RepoInfo fetches metadata for the repository at the given URL.
func (g *GitHubClient) RepoInfo(ctx context.Context, repoURL string) (*RepoInfo, error) {
	owner, name, err := ParseOwnerRepo(repoURL)
	if err != nil {
		return nil, err
	}

	repo, _, err := g.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("fetching repository %s/%s: %w", owner, name, err)
	}

	description := repo.GetDescription()
	if description == "" {
		description = "No description available"
	}

	return &RepoInfo{
		Name:        repo.GetName(),
		FullName:    repo.GetFullName(),
		Description: description,
		Language:    repo.GetLanguage(),
		Stars:       repo.GetStargazersCount(),
		Forks:       repo.GetForksCount(),
		URL:         repo.GetHTMLURL(),
		UpdatedAt:   repo.GetUpdatedAt().Time,
	}, nil
}
