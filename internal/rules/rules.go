package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode selects how matched file content is reduced to reviewer-ready lines.
type Mode string

const (
	// ModeNormalMatch extracts a context window around each keyword hit.
	ModeNormalMatch Mode = "normal-match"
	// ModeOnlyMatch returns the file's lines unfiltered; exclusion filters
	// still apply downstream.
	ModeOnlyMatch Mode = "only-match"
	// ModeMail extracts and probes e-mail addresses found in the content.
	ModeMail Mode = "mail"
)

// DefaultLines is the context window size when a rule does not set one.
const DefaultLines = 5

// DefaultExtensions is the fallback extension list for rules without an
// explicit ext attribute.
var DefaultExtensions = []string{
	"java", "go", "py", "js", "php", "rb",
	"yml", "yaml", "json", "xml", "properties", "conf", "ini",
	"sql", "txt", "md", "sh", "env",
}

// ParseMode maps a raw mode string to a known Mode. Unrecognized or missing
// input falls back to normal-match, never an error.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeOnlyMatch:
		return ModeOnlyMatch
	case ModeMail:
		return ModeMail
	default:
		return ModeNormalMatch
	}
}

// Rule is one configured sensitive-pattern search target. Immutable once
// constructed; one instance per configured rule.
type Rule struct {
	Category   string
	Corp       string
	Keyword    string
	Mode       Mode
	Extensions []string
	Lines      int
}

// New builds a Rule applying the documented defaults for mode, extensions
// and context line count.
func New(category, corp, keyword, mode, ext string, lines int) Rule {
	r := Rule{
		Category: strings.ToUpper(strings.TrimSpace(category)),
		Corp:     strings.TrimSpace(corp),
		Keyword:  strings.TrimSpace(keyword),
		Mode:     ParseMode(mode),
		Lines:    lines,
	}
	if r.Lines <= 0 {
		r.Lines = DefaultLines
	}
	for _, e := range strings.Split(ext, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			r.Extensions = append(r.Extensions, e)
		}
	}
	if len(r.Extensions) == 0 {
		r.Extensions = append([]string(nil), DefaultExtensions...)
	}
	return r
}

// Summary renders the rule the way run logs and reports identify it.
func (r Rule) Summary() string {
	return fmt.Sprintf("[%s][%s][%s]", r.Category, r.Corp, r.Keyword)
}

// Keywords tokenizes the rule keyword. A quoted keyword yields one literal
// token with the quotes stripped; an unquoted keyword containing spaces
// splits into required-any tokens; anything else is a single token.
func (r Rule) Keywords() []string {
	k := r.Keyword
	if strings.Contains(k, `"`) {
		return []string{strings.ReplaceAll(k, `"`, "")}
	}
	if strings.Contains(k, " ") {
		return strings.Split(k, " ")
	}
	return []string{k}
}

type ruleAttr struct {
	Mode  string `yaml:"mode"`
	Ext   string `yaml:"ext"`
	Lines int    `yaml:"lines"`
}

// Load reads the nested category -> corp -> keyword mapping from a YAML file
// and resolves it into an ordered rule slice. Only categories listed in
// categories are kept; an empty categories slice keeps everything. Document
// order is preserved so scans are reproducible.
func Load(path string, categories []string) ([]Rule, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(b, categories)
}

// Parse resolves rules from raw YAML. See Load.
func Parse(b []byte, categories []string) ([]Rule, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse rules yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("rules yaml: top level must be a mapping")
	}

	wanted := map[string]bool{}
	for _, c := range categories {
		wanted[strings.ToLower(strings.TrimSpace(c))] = true
	}

	var out []Rule
	for i := 0; i+1 < len(root.Content); i += 2 {
		category := root.Content[i].Value
		if len(wanted) > 0 && !wanted[strings.ToLower(category)] {
			continue
		}
		corps := root.Content[i+1]
		if corps.Kind != yaml.MappingNode {
			continue
		}
		for j := 0; j+1 < len(corps.Content); j += 2 {
			corp := corps.Content[j].Value
			keywords := corps.Content[j+1]
			if keywords.Kind != yaml.MappingNode {
				continue
			}
			for k := 0; k+1 < len(keywords.Content); k += 2 {
				keyword := keywords.Content[k].Value
				var attr ruleAttr
				if keywords.Content[k+1].Kind == yaml.MappingNode {
					if err := keywords.Content[k+1].Decode(&attr); err != nil {
						return nil, fmt.Errorf("rule %q attributes: %w", keyword, err)
					}
				}
				out = append(out, New(category, corp, keyword, attr.Mode, attr.Ext, attr.Lines))
			}
		}
	}
	return out, nil
}
