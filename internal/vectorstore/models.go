package vectorstore

// Document represents a chunk of text to be stored in the vector store.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Content is the text content of the chunk.
	Content string

	// Metadata contains additional key-value pairs.
	// Common fields: file_path, file_name, extension, chunk_index, total_chunks.
	Metadata map[string]interface{}
}

// SearchResult represents a similarity search hit.
type SearchResult struct {
	// ID is the document identifier.
	ID string

	// Content is the document text content.
	Content string

	// Score is the similarity score (higher = more similar).
	Score float32

	// Metadata contains the document metadata.
	Metadata map[string]interface{}
}

// CollectionInfo describes a stored collection.
type CollectionInfo struct {
	// Name is the collection name.
	Name string `json:"name"`

	// Count is the number of documents in the collection.
	Count int `json:"count"`
}
