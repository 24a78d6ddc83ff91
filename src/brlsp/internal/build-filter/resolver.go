// Package buildfilter derives the build_runner --build-filter arguments for a single Dart source file.
package buildfilter

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	_partDirective = regexp.MustCompile(`part\s+['"]([^'"]+)['"];?`)

	// _generatedSuffixes are matched case-insensitively against declared part files.
	_generatedSuffixes = []string{
		".g.dart",
		".freezed.dart",
		".gr.dart",
		".mocks.dart",
		".config.dart",
		".mapper.dart",
		".graphql.dart",
		".gql.dart",
		".chopper.dart",
		".swagger.dart",
	}

	// _heuristicSuffixes are appended to the document base path to find generated files without a part directive.
	_heuristicSuffixes = []string{
		".g.dart",
		".freezed.dart",
		".gr.dart",
		".config.dart",
		".mocks.dart",
	}
)

// Params are the inputs of Resolve.
type Params struct {
	// DocumentPath is the absolute path of the source document.
	DocumentPath string
	// DocumentText is the full text of the document.
	DocumentText string
	// WorkspaceRoot is the absolute path of the workspace folder containing the document.
	WorkspaceRoot string
	// FileExists reports whether an absolute path exists.
	FileExists func(path string) bool
}

// Resolution is the set of build filters for one document.
// Paths are relative to the workspace root and use forward slashes.
type Resolution struct {
	RelativeDocumentPath string   `json:"relativeDocumentPath"`
	BuildFilters         []string `json:"buildFilters"`
	MissingFilters       []string `json:"missingFilters"`
}

// Resolve computes the build filters for a document.
// It returns nil when the document is not inside the workspace root.
// Filters come from generated part directives that exist on disk, then generated files found by naming
// convention, then declared parts that do not exist yet. The result is empty when nothing can be targeted.
func Resolve(p Params) *Resolution {
	relativePath, ok := relativeTo(p.WorkspaceRoot, p.DocumentPath)
	if !ok {
		return nil
	}

	normalized := filepath.ToSlash(relativePath)
	basePath := trimDartExtension(normalized)
	documentDir := filepath.Dir(p.DocumentPath)

	filters := newOrderedSet()
	missing := newOrderedSet()

	for _, match := range _partDirective.FindAllStringSubmatch(p.DocumentText, -1) {
		partPath := match[1]
		if !isGenerated(partPath) {
			continue
		}

		resolved := filepath.Join(documentDir, filepath.FromSlash(partPath))
		relativePart, ok := relativeTo(p.WorkspaceRoot, resolved)
		if !ok {
			continue
		}

		normalizedPart := filepath.ToSlash(relativePart)
		if p.FileExists(resolved) {
			filters.add(normalizedPart)
		} else {
			missing.add(normalizedPart)
		}
	}

	for _, suffix := range _heuristicSuffixes {
		candidate := basePath + suffix
		if p.FileExists(filepath.Join(p.WorkspaceRoot, filepath.FromSlash(candidate))) {
			filters.add(candidate)
		}
	}

	for _, m := range missing.items {
		filters.add(m)
	}

	return &Resolution{
		RelativeDocumentPath: normalized,
		BuildFilters:         filters.items,
		MissingFilters:       missing.items,
	}
}

// Args returns the build_runner arguments selecting every filter, in resolution order.
func (r *Resolution) Args() []string {
	args := make([]string, 0, 2*len(r.BuildFilters))
	for _, f := range r.BuildFilters {
		args = append(args, "--build-filter", f)
	}
	return args
}

// relativeTo returns target relative to root, and false when target escapes root.
func relativeTo(root, target string) (string, bool) {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

func trimDartExtension(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".dart") {
		return path[:len(path)-len(".dart")]
	}
	return path
}

func isGenerated(partPath string) bool {
	lower := strings.ToLower(partPath)
	for _, suffix := range _generatedSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{}), items: []string{}}
}

func (s *orderedSet) add(item string) {
	if _, ok := s.seen[item]; ok {
		return
	}
	s.seen[item] = struct{}{}
	s.items = append(s.items, item)
}
