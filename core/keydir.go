package core

import (
	"cmp"
	"strings"

	"github.com/google/btree"

	"github.com/0xRadioAc7iv/go-sonarlocker/model"
)

// Location is where the frame holding a record starts: a file path and the
// byte offset of the frame's first byte.
type Location struct {
	Path   string
	Offset int64
}

// Compare orders locations by path, then offset.
func (l Location) Compare(o Location) int {
	if c := strings.Compare(l.Path, o.Path); c != 0 {
		return c
	}
	return cmp.Compare(l.Offset, o.Offset)
}

// keyDirEntry is one index entry.
type keyDirEntry struct {
	key model.Key
	loc Location
}

func lessEntry(a, b keyDirEntry) bool {
	return a.key.Less(b.key)
}

// keyDir is the ordered in-memory index from keys to frame locations.
//
// It is only written by a single goroutine while the index is built and is
// read-only afterwards, so it carries no lock.
type keyDir struct {
	tree *btree.BTreeG[keyDirEntry]
}

func newKeyDir() *keyDir {
	return &keyDir{tree: btree.NewG(btreeDegree, lessEntry)}
}

// insert adds a key. When the key is already present the smaller location
// is kept, so the result does not depend on insertion order. It reports
// whether the key was already present.
func (kd *keyDir) insert(k model.Key, loc Location) bool {
	prev, found := kd.tree.Get(keyDirEntry{key: k})
	if found && prev.loc.Compare(loc) <= 0 {
		return true
	}
	kd.tree.ReplaceOrInsert(keyDirEntry{key: k, loc: loc})
	return found
}

func (kd *keyDir) get(k model.Key) (Location, bool) {
	e, ok := kd.tree.Get(keyDirEntry{key: k})
	return e.loc, ok
}

func (kd *keyDir) len() int { return kd.tree.Len() }
