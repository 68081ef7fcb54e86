package index

import (
	"time"

	"github.com/fyrsmithlabs/repoqa/internal/ingest"
)

// Record is the persisted metadata for one indexed repository.
type Record struct {
	// RepoName is the display name derived from the repository URL.
	RepoName string `json:"repo_name"`

	// Collection is the vector store collection holding the chunks.
	Collection string `json:"collection"`

	// TotalFiles is the number of files that were chunked.
	TotalFiles int `json:"total_documents"`

	// TotalChunks is the number of chunks stored.
	TotalChunks int `json:"total_chunks"`

	// RepoInfo is GitHub metadata, when it could be fetched.
	RepoInfo *ingest.RepoInfo `json:"repo_info,omitempty"`

	// IndexedAt is when indexing completed.
	IndexedAt time.Time `json:"indexed_at"`
}
