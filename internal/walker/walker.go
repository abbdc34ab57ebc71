package walker

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// supportedExtensions lists the source image extensions the batch
// accepts, lowercase with the leading dot.
var supportedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// IsSupported reports whether the path has a supported image extension.
func IsSupported(path string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// CollectImages returns the sorted list of supported image files under
// root. With recursive=false only direct children of root are listed.
// A root that is itself a supported image file yields a single-element
// list. A missing root or an unsupported single file is logged and
// yields an empty list; the caller decides whether that is fatal.
func CollectImages(root string, recursive bool, logger *logrus.Logger) []string {
	info, err := os.Stat(root)
	if err != nil {
		logger.Errorf("input path not found: %s", root)
		return nil
	}

	if !info.IsDir() {
		if IsSupported(root) {
			return []string{root}
		}
		logger.Errorf("unsupported file format: %s", root)
		return nil
	}

	var files []string
	if recursive {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warnf("error accessing %s: %v", path, err)
				return nil
			}
			if !d.IsDir() && IsSupported(path) {
				files = append(files, path)
			}
			return nil
		})
	} else {
		entries, err := os.ReadDir(root)
		if err != nil {
			logger.Errorf("cannot read directory %s: %v", root, err)
			return nil
		}
		for _, entry := range entries {
			if entry.IsDir() || !IsSupported(entry.Name()) {
				continue
			}
			files = append(files, filepath.Join(root, entry.Name()))
		}
	}

	sort.Strings(files)
	return files
}

// OutputRelPath computes the path of src relative to root for mirroring
// the source tree under an output directory. When src does not live
// under root (a single file passed directly), only the file name is
// used.
func OutputRelPath(root, src string) string {
	rel, err := filepath.Rel(root, src)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(src)
	}
	return rel
}

// Stem returns the file name without directory or extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
