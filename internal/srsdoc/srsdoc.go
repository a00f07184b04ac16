// Package srsdoc reads requirement markdown documents and builds the
// canonical requirement map used by reconciliation. A requirement line looks
// like
//
//	**SRS_MODULE_01_001: [** my_function shall do the thing. **]**
//
// with the bold markers optional. Markdown escapes in the text (\<, \>, \\)
// are undone, since source comments never carry them.
package srsdoc

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"srslint/internal/model"
)

// Meta is the optional YAML frontmatter of a requirement document.
type Meta struct {
	Module string `yaml:"module,omitempty"`
	Title  string `yaml:"title,omitempty"`
}

// reqLine matches one requirement on a single physical line. The payload runs
// to the last closing bracket on the line so that bracketed text inside the
// requirement survives.
var reqLine = regexp.MustCompile(`(?m)^\s*(?:\*\*)?(SRS_[A-Za-z0-9_]+?_[0-9]+_[0-9]+)\s*:\s*\[(?:\*\*)?(.*)\](?:\*\*)?\s*$`)

// Parse extracts requirements from one markdown document. Duplicate ids
// within the document are reported as warnings; the last occurrence wins.
func Parse(path string, data []byte) (model.CanonicalMap, Meta, []string) {
	var meta Meta
	var warnings []string

	body := data
	if fm, rest, ok := splitFrontmatter(data); ok {
		if err := yaml.Unmarshal(fm, &meta); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: frontmatter: %v", path, err))
		}
		body = rest
	}

	canon := model.CanonicalMap{}
	for _, m := range reqLine.FindAllSubmatch(body, -1) {
		id := string(m[1])
		text := unescape(strings.TrimSuffix(strings.TrimSpace(string(m[2])), "**"))
		text = strings.TrimSpace(text)
		if _, dup := canon[id]; dup {
			warnings = append(warnings, fmt.Sprintf("%s: duplicate requirement id %s", path, id))
		}
		canon[id] = model.CanonicalRequirement{ID: id, Text: text}
	}
	return canon, meta, warnings
}

// Load reads and parses every given document, merging the results into one
// map. Ids repeated across documents warn; the document listed later wins.
func Load(paths []string) (model.CanonicalMap, []string, error) {
	merged := model.CanonicalMap{}
	var warnings []string
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, warnings, fmt.Errorf("srsdoc: read %s: %w", path, err)
		}
		canon, _, w := Parse(path, data)
		warnings = append(warnings, w...)
		for id, req := range canon {
			if prev, ok := merged[id]; ok && prev.Text != req.Text {
				warnings = append(warnings, fmt.Sprintf("%s: requirement id %s redefined with different text", path, id))
			}
			merged[id] = req
		}
	}
	return merged, warnings, nil
}

// splitFrontmatter peels an optional leading YAML block delimited by --- lines.
func splitFrontmatter(data []byte) (fm, body []byte, ok bool) {
	const delim = "---\n"
	if !bytes.HasPrefix(data, []byte(delim)) {
		return nil, data, false
	}
	rest := data[len(delim):]
	idx := bytes.Index(rest, []byte("\n---"))
	if idx < 0 {
		return nil, data, false
	}
	tail := rest[idx+4:]
	if len(tail) > 0 && tail[0] == '\n' {
		tail = tail[1:]
	}
	return rest[:idx], tail, true
}

var unescaper = strings.NewReplacer(`\<`, "<", `\>`, ">", `\\`, `\`)

func unescape(s string) string {
	return unescaper.Replace(s)
}
