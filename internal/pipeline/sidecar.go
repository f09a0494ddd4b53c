package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/adsamcik/photocopy/internal/model"
)

// sidecarExtensions are the stem-matched sidecar kinds: same
// basename as their primary file, different extension.
var sidecarExtensions = map[string]bool{
	".xmp": true,
	".aae": true,
}

// groupSidecars splits paths into primaries and a primary-path -> sidecar
// absolute paths map, per mode. Under
// RelatedFilesIgnore every path in paths comes back as its own primary and
// the map is empty, so scan treats sidecars exactly like any other file.
//
// Two sidecar shapes are recognized:
//   - stem match: "IMG_0001.xmp" / "IMG_0001.aae" beside "IMG_0001.jpg"
//   - Takeout-style suffix match: "IMG_0001.jpg.json" beside "IMG_0001.jpg"
//     (Google Takeout's metadata export names the sidecar after the
//     primary's full filename, not its stem)
func groupSidecars(paths []string, mode model.RelatedFileMode) (primaries []string, sidecars map[string][]string) {
	if mode != model.RelatedFilesFollow {
		return paths, nil
	}

	byDir := make(map[string][]string)
	for _, p := range paths {
		byDir[filepath.Dir(p)] = append(byDir[filepath.Dir(p)], p)
	}

	sidecars = make(map[string][]string)
	claimed := make(map[string]bool)

	for _, siblings := range byDir {
		baseIndex := make(map[string]string) // full basename -> absolute path
		for _, p := range siblings {
			baseIndex[filepath.Base(p)] = p
		}

		for _, p := range siblings {
			base := filepath.Base(p)
			ext := strings.ToLower(filepath.Ext(base))

			if sidecarExtensions[ext] {
				stem := strings.TrimSuffix(base, filepath.Ext(base))
				if primary, ok := findPrimaryByStem(siblings, stem, p); ok {
					sidecars[primary] = append(sidecars[primary], p)
					claimed[p] = true
					continue
				}
			}

			if ext == ".json" {
				primaryBase := strings.TrimSuffix(base, ".json")
				if primary, ok := baseIndex[primaryBase]; ok && primary != p {
					sidecars[primary] = append(sidecars[primary], p)
					claimed[p] = true
				}
			}
		}
	}

	for _, p := range paths {
		if !claimed[p] {
			primaries = append(primaries, p)
		}
	}
	return primaries, sidecars
}

// findPrimaryByStem looks for a non-sidecar sibling whose basename (minus
// extension) equals stem. excludeSelf keeps a sidecar from matching itself
// when its own extension happens to be stripped to the same stem.
func findPrimaryByStem(siblings []string, stem, excludeSelf string) (string, bool) {
	for _, s := range siblings {
		if s == excludeSelf {
			continue
		}
		base := filepath.Base(s)
		ext := strings.ToLower(filepath.Ext(base))
		if sidecarExtensions[ext] || ext == ".json" {
			continue
		}
		if strings.TrimSuffix(base, filepath.Ext(base)) == stem {
			return s, true
		}
	}
	return "", false
}
