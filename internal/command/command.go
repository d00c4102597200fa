// Package command implements the Command Model & Registry (spec §4.1): the
// structural contract each embedded-language command must satisfy, and a
// name→Command registry. Grounded on the teacher's tool registry shape
// (internal/tools/registry.go's name-keyed map, idempotent registration) and
// its structured-error style (internal/tools/types.go's ToolError).
package command

import "fmt"

// Section describes one named argument block a command accepts.
type Section struct {
	Name           string
	Required       bool
	AllowMultiple  bool
	HelpText       string
}

// Args maps a section name to its value. A section with AllowMultiple holds
// its values joined under the same key as a []string; the Command's
// ExecuteFunc is responsible for type-asserting accordingly, matching the
// source's dynamically-typed args map (spec §3: "Command.execute(context,
// args)... args is a mapping from section name to string value (or to list
// of strings when allow_multiple)").
type Args map[string]any

// Context is an opaque capability bundle a command is invoked with: a
// notifications printer, working directory, and host-supplied helpers. The
// registry does not constrain its shape (spec §4.1); each host defines its
// own context type and type-asserts it inside ExecuteFunc.
type Context interface{}

// TransformFunc normalises parsed args before validation (e.g. trimming
// quotes, splitting delimited lists). The default is the identity function.
type TransformFunc func(Args) Args

// ValidateFunc checks args for completeness/consistency beyond the built-in
// required-section check, returning human-readable error strings.
type ValidateFunc func(Args) []string

// ExecuteFunc runs the command's effect. It may return events (as an opaque
// any to avoid an import cycle with the event package — callers type-assert
// to []event.Event) or return nil for fire-and-forget commands.
type ExecuteFunc func(ctx Context, args Args) (any, error)

// Command is the structural description of one embedded-language command
// plus its behaviour (spec §3).
type Command struct {
	Name     string
	HelpText string
	Sections []Section

	Transform TransformFunc
	Validate  ValidateFunc
	Execute   ExecuteFunc
}

// AddSection appends a section descriptor to the command, mirroring the
// source's Command.add_section builder method.
func (c *Command) AddSection(name string, required bool, helpText string, allowMultiple bool) *Command {
	c.Sections = append(c.Sections, Section{
		Name:          name,
		Required:      required,
		AllowMultiple: allowMultiple,
		HelpText:      helpText,
	})
	return c
}

// transformArgs applies the command's Transform hook, or identity if unset.
func (c *Command) transformArgs(args Args) Args {
	if c.Transform == nil {
		return args
	}
	return c.Transform(args)
}

// validateArgs runs the built-in required-section check, then the command's
// own Validate hook if present. Errors from both are concatenated.
func (c *Command) validateArgs(args Args) []string {
	var errs []string
	for _, s := range c.Sections {
		if !s.Required {
			continue
		}
		if _, ok := args[s.Name]; !ok {
			errs = append(errs, fmt.Sprintf("missing required section: %s", s.Name))
		}
	}
	if c.Validate != nil {
		errs = append(errs, c.Validate(args)...)
	}
	return errs
}

// PrepareArgs runs transform then validate, the two-step pipeline the parser
// invokes after structural parsing (spec §4.2: "the parser calls the
// command's transform_args then validate").
func (c *Command) PrepareArgs(args Args) (Args, []string) {
	args = c.transformArgs(args)
	return args, c.validateArgs(args)
}

// Registry maps command name to Command. Registration is idempotent by name
// (later Register calls override earlier ones), and instances are created
// per participant/control-panel rather than as a package-level singleton
// (spec §9: "standardise on per-control-panel instances injected by
// construction; pass explicitly; no module globals").
type Registry struct {
	commands map[string]*Command
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Register inserts or replaces the command under its Name.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
}

// Unregister removes a command by name, used when an MCP-backed command's
// owning client disconnects (spec §3 invariant: such commands must fail
// registry lookups cleanly).
func (r *Registry) Unregister(name string) {
	delete(r.commands, name)
}

// Get resolves a command by name.
func (r *Registry) Get(name string) (*Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// All returns a copy of the registry's name→Command map.
func (r *Registry) All() map[string]*Command {
	out := make(map[string]*Command, len(r.commands))
	for k, v := range r.commands {
		out[k] = v
	}
	return out
}
