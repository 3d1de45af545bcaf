package uvfs6

import "strings"

// splitPath splits a path into its leading component (cur) and the rest
// (next), matching the reference Path::from: a leading "/" makes the path
// absolute and is itself the first component; otherwise the path splits at
// the first "/", or is entirely the leading component if none is found.
func splitPath(path string) (cur, next string, absolute bool) {
	idx := strings.IndexByte(path, '/')
	switch {
	case idx == 0:
		return "/", path[1:], true
	case idx > 0:
		return path[:idx], path[idx+1:], false
	default:
		return path, "", false
	}
}
