package parser

import (
	"strings"
	"testing"

	"github.com/samsaffron/hermes-go/internal/command"
)

func registryWithCreateFile() *command.Registry {
	r := command.NewRegistry()
	cmd := &command.Command{Name: "create_file"}
	cmd.AddSection("path", true, "target path", false)
	cmd.AddSection("content", true, "file content", false)
	r.Register(cmd)
	return r
}

func TestParseMissingRequiredSection(t *testing.T) {
	text := "<<< create_file\n///path\n/tmp/x.txt\n>>>\n"

	results := New(registryWithCreateFile()).Parse(text)
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	r := results[0]
	if r.CommandName != "create_file" {
		t.Errorf("expected command_name=create_file, got %q", r.CommandName)
	}
	if r.Valid() {
		t.Errorf("expected invalid result due to missing section")
	}
	found := false
	for _, e := range r.Errors {
		if e.Kind == ErrMissingSection && strings.Contains(e.Text, "content") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected missing-section error naming content, got %v", r.Errors)
	}
}

func TestParseUnknownCommand(t *testing.T) {
	text := "<<< does_not_exist\n///path\nfoo\n>>>\n"

	results := New(registryWithCreateFile()).Parse(text)
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	r := results[0]
	if r.CommandName != "" {
		t.Errorf("expected empty command_name for unknown command, got %q", r.CommandName)
	}
	if len(r.Errors) != 1 || r.Errors[0].Kind != ErrUnknownCommand {
		t.Errorf("expected single unknown-command error, got %v", r.Errors)
	}
}

func TestParseUnterminatedBlock(t *testing.T) {
	text := "<<< create_file\n///path\n/tmp/x.txt\n///content\nhello\n"

	results := New(registryWithCreateFile()).Parse(text)
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	found := false
	for _, e := range results[0].Errors {
		if e.Kind == ErrUnterminatedBlock {
			found = true
		}
	}
	if !found {
		t.Errorf("expected unterminated-block error, got %v", results[0].Errors)
	}
}

func TestParseDuplicateSectionNoAllowMultiple(t *testing.T) {
	text := "<<< create_file\n///path\n/tmp/a.txt\n///path\n/tmp/b.txt\n///content\nhi\n>>>\n"

	results := New(registryWithCreateFile()).Parse(text)
	r := results[0]
	found := false
	for _, e := range r.Errors {
		if e.Kind == ErrDuplicateSection {
			found = true
		}
	}
	if !found {
		t.Errorf("expected duplicate-section error, got %v", r.Errors)
	}
}

func TestParseCommentedBlockIgnored(t *testing.T) {
	text := "# <<< create_file\n# ///path\n# >>>\n"

	results := New(registryWithCreateFile()).Parse(text)
	if len(results) != 0 {
		t.Errorf("expected commented block to be ignored, got %d results", len(results))
	}
}

func TestParseValidCommandDispatchable(t *testing.T) {
	text := "<<< create_file\n///path\n/tmp/x.txt\n///content\nhello world\n>>>\n"

	results := New(registryWithCreateFile()).Parse(text)
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	r := results[0]
	if !r.Valid() {
		t.Fatalf("expected valid result, got errors %v", r.Errors)
	}
	if r.Args["path"] != "/tmp/x.txt" {
		t.Errorf("unexpected path arg: %v", r.Args["path"])
	}
	if r.Args["content"] != "hello world" {
		t.Errorf("unexpected content arg: %v", r.Args["content"])
	}
}

func TestErrorReportAggregatesOnlyInvalid(t *testing.T) {
	text := "<<< create_file\n///path\n/tmp/x.txt\n///content\nhi\n>>>\n<<< unknown_cmd\n>>>\n"

	results := New(registryWithCreateFile()).Parse(text)
	report := ErrorReport(results)
	if !strings.Contains(report, "unknown command: unknown_cmd") {
		t.Errorf("expected report to mention unknown command, got %q", report)
	}
	if strings.Contains(report, "create_file") {
		t.Errorf("expected valid create_file block to be excluded from report, got %q", report)
	}
}

func TestBlockOrderByStartLine(t *testing.T) {
	text := "<<< create_file\n///path\na\n///content\nb\n>>>\ntext in between\n<<< create_file\n///path\nc\n///content\nd\n>>>\n"

	results := New(registryWithCreateFile()).Parse(text)
	if len(results) != 2 {
		t.Fatalf("expected two results, got %d", len(results))
	}
	if results[0].BlockStartLineIndex >= results[1].BlockStartLineIndex {
		t.Errorf("expected increasing block_start_line_index, got %d then %d",
			results[0].BlockStartLineIndex, results[1].BlockStartLineIndex)
	}
}
