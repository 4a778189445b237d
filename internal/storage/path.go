package storage

import (
	"fmt"
	"strings"
)

// JoinPath builds the full path of a document.
func JoinPath(collection, id string) string {
	return collection + "/" + id
}

// SplitPath splits "<collection>/<docID>". Nested paths keep everything up
// to the last slash as the collection.
func SplitPath(path string) (collection string, id string, ok bool) {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 || idx == len(path)-1 {
		return path, "", false
	}
	return path[:idx], path[idx+1:], true
}

// ValidatePath rejects paths that do not name a single document.
func ValidatePath(path string) error {
	if _, _, ok := SplitPath(path); !ok {
		return fmt.Errorf("invalid document path %q", path)
	}
	return nil
}
