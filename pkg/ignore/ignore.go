// Package ignore compiles gitignore-style exclusion patterns and
// evaluates paths against them during folder traversal.
//
// The pattern language is deliberately small: no negation, no `**`
// anchoring, no per-directory files. A pattern matches when the first
// applicable rule matches:
//
//  1. a trailing "/" restricts the pattern to directories; the slash
//     is stripped and the remaining checks still apply
//  2. exact bare-name equality
//  3. patterns containing "*" or "?" use shell-style wildcard matching
//     ("*" crosses path separators) against the bare name, or against
//     the relative path when the pattern contains "/"
//  4. patterns containing "/" match as a plain substring of the
//     relative path
package ignore

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// pattern is one compiled exclusion rule. A Spec never mutates its
// patterns after construction.
type pattern struct {
	raw      string
	name     string // raw with any trailing "/" stripped
	dirOnly  bool
	hasSlash bool
	re       *regexp.Regexp // non-nil when name contains a wildcard
}

// Spec is an immutable, ordered set of compiled exclusion patterns
// built once per traversal root.
type Spec struct {
	patterns []pattern
}

// New compiles the given patterns in order. Blank patterns are
// dropped. Wildcard patterns that fail to compile degrade to the
// non-wildcard rules.
func New(patterns []string) *Spec {
	spec := &Spec{patterns: make([]pattern, 0, len(patterns))}
	for _, raw := range patterns {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		p := pattern{raw: trimmed, name: trimmed}
		if strings.HasSuffix(trimmed, "/") {
			p.dirOnly = true
			p.name = strings.TrimSuffix(trimmed, "/")
		}
		p.hasSlash = strings.Contains(p.name, "/")
		if strings.ContainsAny(p.name, "*?") {
			if re, err := regexp.Compile(translate(p.name)); err == nil {
				p.re = re
			}
		}
		spec.patterns = append(spec.patterns, p)
	}
	return spec
}

// Match reports whether the entry should be excluded. relPath is the
// POSIX-style path relative to the traversal root, name the bare
// file or directory name. The first matching pattern wins.
func (s *Spec) Match(relPath, name string, isDir bool) bool {
	for _, p := range s.patterns {
		if p.matches(relPath, name, isDir) {
			return true
		}
	}
	return false
}

// Len returns the number of compiled patterns.
func (s *Spec) Len() int {
	return len(s.patterns)
}

// Patterns returns a copy of the raw patterns in evaluation order.
func (s *Spec) Patterns() []string {
	out := make([]string, len(s.patterns))
	for i, p := range s.patterns {
		out[i] = p.raw
	}
	return out
}

func (p *pattern) matches(relPath, name string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}
	if p.name == name {
		return true
	}
	if p.re != nil {
		if p.hasSlash {
			return p.re.MatchString(relPath)
		}
		return p.re.MatchString(name)
	}
	if p.hasSlash {
		return strings.Contains(relPath, p.name)
	}
	return false
}

// translate converts a shell wildcard pattern to an anchored regular
// expression. "*" matches any run of characters including "/", "?"
// matches a single character, and "[seq]" / "[!seq]" character
// classes are honored. An unterminated "[" is treated literally.
func translate(pat string) string {
	runes := []rune(pat)
	var sb strings.Builder
	sb.WriteString("(?s)^")
	for i := 0; i < len(runes); {
		r := runes[i]
		i++
		switch r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		case '[':
			j := i
			if j < len(runes) && runes[j] == '!' {
				j++
			}
			if j < len(runes) && runes[j] == ']' {
				j++
			}
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			if j >= len(runes) {
				sb.WriteString(`\[`)
				continue
			}
			inner := strings.ReplaceAll(string(runes[i:j]), `\`, `\\`)
			if strings.HasPrefix(inner, "!") {
				inner = "^" + inner[1:]
			}
			sb.WriteString("[")
			sb.WriteString(inner)
			sb.WriteString("]")
			i = j + 1
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	return sb.String()
}

// LoadGitignore reads patterns from a .gitignore file, skipping blank
// lines and "#" comments. A missing or unreadable file yields nil.
func LoadGitignore(path string) []string {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// MergePatterns appends the given pattern lists in order, dropping
// duplicates while preserving first-seen position.
func MergePatterns(lists ...[]string) []string {
	var merged []string
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, p := range list {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			merged = append(merged, p)
		}
	}
	return merged
}
