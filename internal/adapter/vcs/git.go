// Package vcs resolves repository metadata for scanned source trees.
package vcs

import (
	git "github.com/go-git/go-git/v5"
)

// GitProvider reads commit information from a local git repository.
type GitProvider struct{}

// NewGitProvider creates a git-backed VCS provider.
func NewGitProvider() *GitProvider {
	return &GitProvider{}
}

// HeadCommit returns the HEAD commit hash of the repository containing path.
// It returns an empty string when path is not inside a git repository.
func (g *GitProvider) HeadCommit(path string) string {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}
