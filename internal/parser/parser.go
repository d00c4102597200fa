// Package parser implements the Command Parser (spec §4.2): a line-oriented
// scan of a text blob for block-form commands delimited by "<<< name" /
// ">>>" with "///section" markers inside. The line-by-line scan structure
// (accumulate into a current block/section, flush on delimiter) is grounded
// on internal/edit/parser.go's StreamParser.
package parser

import (
	"strconv"
	"strings"

	"github.com/samsaffron/hermes-go/internal/command"
)

// ErrorKind classifies a structured parse error, letting callers
// pattern-match kinds while Error() renders the exact wording spec §4.2
// requires.
type ErrorKind string

const (
	ErrUnknownCommand    ErrorKind = "unknown_command"
	ErrDuplicateSection  ErrorKind = "duplicate_section"
	ErrMissingSection    ErrorKind = "missing_section"
	ErrUnterminatedBlock ErrorKind = "unterminated_block"
	ErrValidation        ErrorKind = "validation"
)

// ParseError is a single structured diagnostic attached to a Result.
type ParseError struct {
	Kind ErrorKind
	Text string
}

func (e ParseError) Error() string {
	return e.Text
}

func unknownCommandErr(name string) ParseError {
	return ParseError{Kind: ErrUnknownCommand, Text: "unknown command: " + name}
}

func duplicateSectionErr(name string) ParseError {
	return ParseError{Kind: ErrDuplicateSection, Text: "section " + name + " specified multiple times"}
}

func missingSectionErr(name string) ParseError {
	return ParseError{Kind: ErrMissingSection, Text: "missing required section: " + name}
}

func unterminatedBlockErr() ParseError {
	return ParseError{Kind: ErrUnterminatedBlock, Text: "unterminated block"}
}

// Result is one parsed (or attempted) command block.
type Result struct {
	CommandName         string // empty when unknown
	Args                command.Args
	Errors              []ParseError
	BlockStartLineIndex int
}

// Valid reports whether the dispatcher should execute this result (spec §8:
// "∀ parse results r with command_name == null or non-empty errors:
// dispatcher does not call execute for r").
func (r Result) Valid() bool {
	return r.CommandName != "" && len(r.Errors) == 0
}

// Parser scans text for block-form commands against a Registry.
type Parser struct {
	registry *command.Registry
}

// New constructs a Parser bound to the given registry, used to resolve
// command names and their section schemas during parsing.
func New(registry *command.Registry) *Parser {
	return &Parser{registry: registry}
}

type blockScan struct {
	name          string
	startLine     int
	sections      map[string][]string // section -> accumulated values (multiple lines joined, or repeated entries for allow_multiple)
	order         []string            // order sections first appeared, for duplicate detection
	currentSect   string
	currentBuf    []string
	haveSection   bool
}

// Parse scans text for "<<< name" ... ">>>" blocks, extracts "///section"
// values, resolves each against the registry, and runs transform+validate.
// Lines beginning with "#" are never treated as block syntax, even if they
// would otherwise match (spec §4.2: "help text" comment-escape rule).
func (p *Parser) Parse(text string) []Result {
	lines := strings.Split(text, "\n")

	var results []Result
	var scan *blockScan

	flushSection := func() {
		if scan == nil || !scan.haveSection {
			return
		}
		val := strings.TrimRight(strings.Join(scan.currentBuf, "\n"), "\n")
		scan.sections[scan.currentSect] = append(scan.sections[scan.currentSect], val)
		scan.currentBuf = nil
	}

	finishBlock := func(lineIdx int, unterminated bool) {
		if scan == nil {
			return
		}
		flushSection()
		results = append(results, p.buildResult(*scan, lineIdx, unterminated))
		scan = nil
	}

	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)

		if strings.HasPrefix(trimmed, "#") {
			continue
		}

		if scan == nil {
			if name, ok := matchBlockStart(trimmed); ok {
				scan = &blockScan{name: name, startLine: i, sections: make(map[string][]string)}
			}
			continue
		}

		if trimmed == ">>>" {
			finishBlock(i, false)
			continue
		}

		if strings.HasPrefix(trimmed, "///") {
			flushSection()
			scan.currentSect = strings.TrimSpace(strings.TrimPrefix(trimmed, "///"))
			scan.haveSection = true
			scan.currentBuf = nil
			continue
		}

		if scan.haveSection {
			scan.currentBuf = append(scan.currentBuf, raw)
		}
	}

	if scan != nil {
		finishBlock(len(lines)-1, true)
	}

	return results
}

func matchBlockStart(trimmed string) (string, bool) {
	if !strings.HasPrefix(trimmed, "<<<") {
		return "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "<<<"))
	if rest == "" {
		return "", false
	}
	return rest, true
}

func (p *Parser) buildResult(scan blockScan, endLine int, unterminated bool) Result {
	res := Result{BlockStartLineIndex: scan.startLine}

	if unterminated {
		res.Errors = append(res.Errors, unterminatedBlockErr())
	}

	cmd, ok := p.registry.Get(scan.name)
	if !ok {
		res.Errors = append(res.Errors, unknownCommandErr(scan.name))
		res.Args = flattenSections(scan, nil)
		return res
	}
	res.CommandName = scan.name

	sectionByName := make(map[string]command.Section, len(cmd.Sections))
	for _, s := range cmd.Sections {
		sectionByName[s.Name] = s
	}

	for name, values := range scan.sections {
		s, known := sectionByName[name]
		if known && !s.AllowMultiple && len(values) > 1 {
			res.Errors = append(res.Errors, duplicateSectionErr(name))
		}
	}

	args := flattenSections(scan, cmd.Sections)

	for _, s := range cmd.Sections {
		if !s.Required {
			continue
		}
		if _, present := args[s.Name]; !present {
			res.Errors = append(res.Errors, missingSectionErr(s.Name))
		}
	}

	transformed, validationErrs := cmd.PrepareArgs(args)
	res.Args = transformed
	for _, e := range validationErrs {
		res.Errors = append(res.Errors, ParseError{Kind: ErrValidation, Text: e})
	}

	return res
}

func flattenSections(scan blockScan, sections []command.Section) command.Args {
	allowMultiple := make(map[string]bool, len(sections))
	for _, s := range sections {
		allowMultiple[s.Name] = s.AllowMultiple
	}

	args := make(command.Args, len(scan.sections))
	for name, values := range scan.sections {
		if allowMultiple[name] {
			args[name] = values
			continue
		}
		if len(values) > 0 {
			args[name] = values[len(values)-1]
		}
	}
	return args
}

// ErrorReport aggregates human-readable diagnostics across all invalid
// results, for the parser's "error_report" formatter (spec §4.2) that feeds
// back into the next assistant turn for self-correction.
func ErrorReport(results []Result) string {
	var b strings.Builder
	hasErrors := false
	for _, r := range results {
		if len(r.Errors) == 0 {
			continue
		}
		hasErrors = true
		name := r.CommandName
		if name == "" {
			name = "(unknown)"
		}
		b.WriteString("block at line ")
		b.WriteString(strconv.Itoa(r.BlockStartLineIndex + 1))
		b.WriteString(" (")
		b.WriteString(name)
		b.WriteString("):\n")
		for _, e := range r.Errors {
			b.WriteString("  - ")
			b.WriteString(e.Text)
			b.WriteString("\n")
		}
	}
	if !hasErrors {
		return ""
	}
	return b.String()
}
