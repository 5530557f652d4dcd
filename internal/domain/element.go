package domain

// ElementMetadata identifies where an extracted code element came from.
// It is produced once by the scanner and never mutated afterwards.
type ElementMetadata struct {
	FilePath    string `json:"filePath"`
	LineNumber  int    `json:"lineNumber"` // 1-based line of the signature match
	ElementName string `json:"elementName"`
	CommitHash  string `json:"commitHash,omitempty"`
	FileHash    string `json:"fileHash,omitempty"` // content hash of the source file, drives cache keys
	BasePath    string `json:"basePath,omitempty"`
}

// ElementData is a single extracted code element: its metadata plus the exact
// source slice from the signature through the matching closing brace.
type ElementData struct {
	Metadata      ElementMetadata `json:"metadata"`
	ElementString string          `json:"elementString"`
}

// EmbeddingIndex is a stored record: an element plus its embedding vector.
// The ID is the only externally addressable handle to the record.
type EmbeddingIndex struct {
	ID          string      `json:"id"`
	ElementData ElementData `json:"elementData"`
	Embedding   []float32   `json:"embedding"`
}

// CacheKey addresses an entry in the embedding cache. The cache is keyed by
// file content, element identity and line, so an unchanged element hits the
// cache across re-scans even after its record was wiped.
type CacheKey struct {
	FileHash    string
	ElementName string
	LineNumber  int
}

// CacheKeyFor derives the cache key for an element. Only meaningful when the
// element carries a file hash.
func CacheKeyFor(e ElementData) CacheKey {
	return CacheKey{
		FileHash:    e.Metadata.FileHash,
		ElementName: e.Metadata.ElementName,
		LineNumber:  e.Metadata.LineNumber,
	}
}

// SimilarPair is one result of an all-pairs similarity query. Ephemeral,
// never stored.
type SimilarPair struct {
	Element1   ElementData `json:"element1"`
	Element2   ElementData `json:"element2"`
	Similarity float64     `json:"similarity"`
}

// SearchResult is one result of a query-vector search.
type SearchResult struct {
	Element    ElementData `json:"element"`
	Similarity float64     `json:"similarity"`
}
