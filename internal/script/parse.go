package script

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// ParseError reports a line that should carry a quoted string but does not.
type ParseError struct {
	File string
	// Line is 1-based.
	Line int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: expected a quoted string", e.File, e.Line)
}

var (
	blockHeaderRE = regexp.MustCompile(`^translate\s+([A-Za-z0-9_]+)\s+([A-Za-z0-9_]+)`)
	quotedLineRE  = regexp.MustCompile(`^(\s*)([A-Za-z_][A-Za-z0-9_]*)?\s*"(.*)"`)
)

// parseState names the parser's position within a file.
type parseState int

const (
	// stateProlog covers everything before the first block header.
	stateProlog parseState = iota
	// stateBlock scans a block body for dialogue patterns.
	stateBlock
	// stateOldSeen holds a captured old "..." line awaiting its new line.
	stateOldSeen
)

// parser is a single forward pass over a file's lines, carrying the
// previous line as context the way the extraction format requires.
type parser struct {
	file    string
	state   parseState
	block   *Block
	pending *Line
	result  *File
}

// ParseFile reads and parses one translation file.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan script file: %w", err)
	}

	return Parse(path, lines)
}

// Parse builds the block/line tree for one file's lines.
func Parse(filename string, lines []string) (*File, error) {
	p := &parser{
		file:   filename,
		state:  stateProlog,
		result: &File{Filename: filename},
	}

	prev := ""
	for i, line := range lines {
		if err := p.step(i, line, prev); err != nil {
			return nil, err
		}
		prev = line
	}
	p.finishBlock()

	return p.result, nil
}

func (p *parser) step(i int, line, prev string) error {
	trimmed := strings.TrimSpace(line)
	prevTrimmed := strings.TrimSpace(prev)

	// A block header both closes the open block and opens the next one.
	if blockHeaderRE.MatchString(line) {
		p.finishBlock()
		p.block = &Block{SourceFile: p.file, HeaderLine: i}
		p.state = stateBlock
		return nil
	}
	if p.state == stateProlog {
		return nil
	}

	// A pending old line pairs with the directly following new line; the
	// new line is where the translation gets written.
	if p.state == stateOldSeen {
		p.state = stateBlock
		if strings.HasPrefix(trimmed, "new") {
			p.pending.TargetLine = i
			p.block.Lines = append(p.block.Lines, p.pending)
			p.pending = nil
			return nil
		}
		p.pending = nil
	}

	// Explicit pair: a comment followed by old "..." captures the original.
	if strings.HasPrefix(prevTrimmed, "#") && strings.HasPrefix(trimmed, "old") {
		content, ok := quotedContent(trimmed)
		if !ok {
			return &ParseError{File: p.file, Line: i + 1}
		}
		p.pending = NewLine(i, -1, content)
		p.state = stateOldSeen
		return nil
	}

	// Commented-original style: the previous comment holds the quoted
	// original, the current line is the rewrite target. An "nvl clear"
	// marker shifts the target one line down, and the "# nvl clear"
	// comment itself never carries dialogue.
	if strings.HasPrefix(prevTrimmed, "#") && !strings.HasPrefix(prevTrimmed, "# nvl clear") && trimmed != "" {
		content, ok := quotedContent(commentBody(prevTrimmed))
		if !ok {
			return &ParseError{File: p.file, Line: i}
		}
		target := i
		if strings.HasPrefix(trimmed, "nvl clear") {
			target = i + 1
		}
		p.block.Lines = append(p.block.Lines, NewLine(i, target, content))
	}

	return nil
}

// finishBlock appends the open block, if any, to the file.
func (p *parser) finishBlock() {
	if p.block != nil {
		p.result.Blocks = append(p.result.Blocks, p.block)
		p.block = nil
	}
	p.pending = nil
}

// quotedContent extracts the double-quoted argument from a line of the
// shape <indent><optional token>"<content>".
func quotedContent(s string) (string, bool) {
	m := quotedLineRE.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[3], true
}

// commentBody returns a trimmed comment line without its "#" prefix.
func commentBody(s string) string {
	body := strings.TrimPrefix(s, "#")
	return strings.TrimPrefix(body, " ")
}
