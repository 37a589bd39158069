package ingest

import (
	"github.com/go-git/go-git/v5"
)

type revision struct {
	Hash   string
	Branch string
}

// detectRevision returns the HEAD commit of the repository containing dir.
// Directories outside a repository yield an empty revision.
func detectRevision(dir string) revision {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return revision{}
	}
	head, err := repo.Head()
	if err != nil {
		return revision{}
	}
	rev := revision{Hash: head.Hash().String()[:12]}
	if head.Name().IsBranch() {
		rev.Branch = head.Name().Short()
	}
	return rev
}
