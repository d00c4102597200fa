package command

import "testing"

func TestRegistryRegisterOverridesByName(t *testing.T) {
	r := NewRegistry()
	first := &Command{Name: "done", HelpText: "first"}
	second := &Command{Name: "done", HelpText: "second"}

	r.Register(first)
	r.Register(second)

	got, ok := r.Get("done")
	if !ok {
		t.Fatalf("expected command to be registered")
	}
	if got.HelpText != "second" {
		t.Errorf("expected later registration to override, got HelpText=%q", got.HelpText)
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register(&Command{Name: "foo"})
	r.Unregister("foo")

	if _, ok := r.Get("foo"); ok {
		t.Errorf("expected foo to be gone after Unregister")
	}
}

func TestRegistryAllIsACopy(t *testing.T) {
	r := NewRegistry()
	r.Register(&Command{Name: "foo"})

	all := r.All()
	all["bar"] = &Command{Name: "bar"}

	if _, ok := r.Get("bar"); ok {
		t.Errorf("mutating All() result should not affect registry")
	}
}

func TestValidateArgsMissingRequiredSection(t *testing.T) {
	cmd := &Command{Name: "create_file"}
	cmd.AddSection("path", true, "target path", false)
	cmd.AddSection("content", true, "file content", false)

	_, errs := cmd.PrepareArgs(Args{"path": "/tmp/x.txt"})
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got %v", errs)
	}
}

func TestValidateArgsAllRequiredPresent(t *testing.T) {
	cmd := &Command{Name: "create_file"}
	cmd.AddSection("path", true, "target path", false)

	_, errs := cmd.PrepareArgs(Args{"path": "/tmp/x.txt"})
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestTransformArgsAppliedBeforeValidate(t *testing.T) {
	cmd := &Command{Name: "echo"}
	cmd.AddSection("text", true, "text to echo", false)
	cmd.Transform = func(a Args) Args {
		if v, ok := a["text"].(string); ok {
			a["text"] = v + "!"
		}
		return a
	}

	got, errs := cmd.PrepareArgs(Args{"text": "hi"})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if got["text"] != "hi!" {
		t.Errorf("expected transform to run before validate, got %v", got["text"])
	}
}
