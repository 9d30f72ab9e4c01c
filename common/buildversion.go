package common

import (
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
)

// CommitInfo describes the checkout a binary runs from.
type CommitInfo struct {
	Hash   string
	Branch string
	Dirty  bool
}

// Short is the abbreviated hash, marked with + when the worktree is dirty.
func (c CommitInfo) Short() string {
	h := c.Hash
	if len(h) > 8 {
		h = h[:8]
	}
	if c.Dirty {
		h += "+"
	}
	return h
}

// ReadCommitInfo looks for a repository around the working directory, then
// around the executable.
func ReadCommitInfo() (CommitInfo, bool) {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	for _, dir := range dirs {
		if info, ok := commitInfoAt(dir); ok {
			return info, true
		}
	}
	return CommitInfo{}, false
}

func commitInfoAt(path string) (CommitInfo, bool) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return CommitInfo{}, false
	}
	head, err := repo.Head()
	if err != nil {
		return CommitInfo{}, false
	}
	info := CommitInfo{Hash: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	if wt, err := repo.Worktree(); err == nil {
		if st, err := wt.Status(); err == nil {
			info.Dirty = !st.IsClean()
		}
	}
	return info, true
}
