package port

// VCSProvider abstracts the version control lookup the scanner needs.
type VCSProvider interface {
	// HeadCommit returns the current HEAD commit hash for the repository
	// containing path, or "" when path is not inside a repository.
	HeadCommit(path string) string
}
