// Package i18ncheck compares flattened key sets between locale directories.
package i18ncheck

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// FileDiff holds the key differences for one locale file.
type FileDiff struct {
	File    string
	Missing []string
	Extra   []string
}

// Issues returns the number of missing plus extra keys.
func (d FileDiff) Issues() int {
	return len(d.Missing) + len(d.Extra)
}

// Report is the result of comparing a target locale against a base locale.
type Report struct {
	Base   string
	Target string
	Files  []FileDiff
}

// Issues returns the total number of missing and extra keys across files.
func (r Report) Issues() int {
	n := 0
	for _, f := range r.Files {
		n += f.Issues()
	}
	return n
}

// InSync reports whether every file matches.
func (r Report) InSync() bool {
	return r.Issues() == 0
}

// Flatten returns every key path in a nested JSON object, joined with dots.
// Intermediate objects are included as keys of their own. Arrays are leaves.
func Flatten(obj map[string]any) []string {
	var keys []string
	flatten("", obj, &keys)
	sort.Strings(keys)
	return keys
}

func flatten(prefix string, obj map[string]any, keys *[]string) {
	for k, v := range obj {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		*keys = append(*keys, full)
		if child, ok := v.(map[string]any); ok {
			flatten(full, child, keys)
		}
	}
}

// Diff returns keys present in base but not target, and in target but not base.
func Diff(base, target []string) (missing, extra []string) {
	inBase := make(map[string]struct{}, len(base))
	for _, k := range base {
		inBase[k] = struct{}{}
	}
	inTarget := make(map[string]struct{}, len(target))
	for _, k := range target {
		inTarget[k] = struct{}{}
	}
	for _, k := range base {
		if _, ok := inTarget[k]; !ok {
			missing = append(missing, k)
		}
	}
	for _, k := range target {
		if _, ok := inBase[k]; !ok {
			extra = append(extra, k)
		}
	}
	return missing, extra
}

// Compare walks every *.json file in the base locale directory of fsys and
// diffs it against the file of the same name in the target locale directory.
// A target file that does not exist reports every base key as missing.
func Compare(fsys fs.FS, base, target string) (*Report, error) {
	entries, err := fs.ReadDir(fsys, base)
	if err != nil {
		return nil, fmt.Errorf("reading base locale %q: %w", base, err)
	}

	report := &Report{Base: base, Target: target}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}

		baseKeys, err := loadKeys(fsys, path.Join(base, e.Name()))
		if err != nil {
			return nil, err
		}

		var targetKeys []string
		targetPath := path.Join(target, e.Name())
		if _, statErr := fs.Stat(fsys, targetPath); statErr == nil {
			targetKeys, err = loadKeys(fsys, targetPath)
			if err != nil {
				return nil, err
			}
		}

		missing, extra := Diff(baseKeys, targetKeys)
		report.Files = append(report.Files, FileDiff{File: e.Name(), Missing: missing, Extra: extra})
	}
	return report, nil
}

func loadKeys(fsys fs.FS, name string) ([]string, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return Flatten(obj), nil
}
