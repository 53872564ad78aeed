package script

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// RewriteError reports a target line that no longer matches the
// <indent><optional token>"<content>" shape it had at parse time.
type RewriteError struct {
	File string
	// Line is 1-based.
	Line int
}

func (e *RewriteError) Error() string {
	return fmt.Sprintf("%s:%d: target line does not match the expected quoted shape", e.File, e.Line)
}

// targetLineRE captures indentation, an optional leading identifier (a
// speaker variable or the new keyword) and the quoted content of a
// rewritable line. The trailing group keeps a carriage return from CRLF
// sources in place.
var targetLineRE = regexp.MustCompile(`^(\s*)([A-Za-z_][A-Za-z0-9_]*)?\s*"(.*)"(\r?)$`)

// Rewriter writes translated files under a mirror of the input tree.
type Rewriter struct {
	InputRoot  string
	OutputRoot string
}

// Rewrite re-reads f's source fresh from disk, substitutes every recorded
// target line with its translated content and writes the result under the
// mirrored output path. Lines outside the recorded targets are preserved
// byte for byte. Returns the output path.
func (r *Rewriter) Rewrite(f *File) (string, error) {
	data, err := os.ReadFile(f.Filename)
	if err != nil {
		return "", fmt.Errorf("read source file: %w", err)
	}
	lines := strings.Split(string(data), "\n")

	for _, line := range f.DialogueLines() {
		if line.TargetLine < 0 || line.TargetLine >= len(lines) {
			return "", &RewriteError{File: f.Filename, Line: line.TargetLine + 1}
		}
		m := targetLineRE.FindStringSubmatch(lines[line.TargetLine])
		if m == nil {
			return "", &RewriteError{File: f.Filename, Line: line.TargetLine + 1}
		}
		indent, token, cr := m[1], m[2], m[4]

		var b strings.Builder
		b.WriteString(indent)
		if token != "" {
			b.WriteString(token)
			b.WriteByte(' ')
		}
		b.WriteByte('"')
		b.WriteString(line.TranslatedContent())
		b.WriteByte('"')
		b.WriteString(cr)
		lines[line.TargetLine] = b.String()
	}

	outPath, err := r.OutputPath(f.Filename)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return "", fmt.Errorf("write output file: %w", err)
	}
	return outPath, nil
}

// OutputPath mirrors path's location relative to the input root under the
// output root.
func (r *Rewriter) OutputPath(path string) (string, error) {
	rootAbs, err := filepath.Abs(r.InputRoot)
	if err != nil {
		return "", fmt.Errorf("resolve input root: %w", err)
	}
	fileAbs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve source path: %w", err)
	}
	rel, err := filepath.Rel(rootAbs, fileAbs)
	if err != nil {
		return "", fmt.Errorf("relativize %s: %w", path, err)
	}
	return filepath.Join(r.OutputRoot, rel), nil
}
