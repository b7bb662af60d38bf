package path_resolver

import (
	"strings"

	"github.com/casfs/casfs/internal/fserr"
)

// Normalize validates a path and returns its canonical absolute form.
// Paths use "/" as separator; backslashes, "." and ".." segments are
// rejected. Leading and trailing slashes are stripped except for the
// root "/".
func Normalize(path string) (string, error) {
	if path == "" {
		return "", fserr.New(fserr.CodeInvalidPath, "path must be a non-empty string")
	}
	if strings.Contains(path, "\\") {
		return "", fserr.New(fserr.CodeInvalidPath, "windows paths are not allowed")
	}
	if path == "/" {
		return "/", nil
	}

	var segments []string
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		if segment == "" {
			continue
		}
		if segment == "." || segment == ".." {
			return "", fserr.New(fserr.CodeInvalidPath, "path traversal (.. or .) is not allowed")
		}
		segments = append(segments, segment)
	}

	if len(segments) == 0 {
		return "/", nil
	}
	return "/" + strings.Join(segments, "/"), nil
}

// Resolve resolves a path against a base directory. Absolute input is
// normalized and returned as-is; relative input is joined onto the base.
func Resolve(basePath, path string) (string, error) {
	base, err := Normalize(basePath)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", fserr.New(fserr.CodeInvalidPath, "path must be a non-empty string")
	}
	if strings.HasPrefix(path, "/") {
		return Normalize(path)
	}

	relative, err := Normalize("/" + path)
	if err != nil {
		return "", err
	}
	if base == "/" {
		return relative, nil
	}
	return Normalize(base + relative)
}

// ParentOf returns the containing directory of a path. The root has no
// parent and yields "".
func ParentOf(path string) (string, error) {
	normalized, err := Normalize(path)
	if err != nil {
		return "", err
	}
	if normalized == "/" {
		return "", nil
	}
	idx := strings.LastIndex(normalized, "/")
	if idx == 0 {
		return "/", nil
	}
	return normalized[:idx], nil
}

// NameOf returns the last segment of a path, or "/" for the root.
func NameOf(path string) (string, error) {
	normalized, err := Normalize(path)
	if err != nil {
		return "", err
	}
	if normalized == "/" {
		return "/", nil
	}
	return normalized[strings.LastIndex(normalized, "/")+1:], nil
}
