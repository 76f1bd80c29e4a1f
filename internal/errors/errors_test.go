package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "runtime error",
			code:    "L001",
			wantMsg: "Mount target is not attached",
			wantCat: CategoryRuntime,
		},
		{
			name:    "config error",
			code:    "L101",
			wantMsg: "Invalid config value",
			wantCat: CategoryConfig,
		},
		{
			name:    "cli error",
			code:    "L200",
			wantMsg: "Unknown scenario",
			wantCat: CategoryCLI,
		},
		{
			name:    "unknown error code",
			code:    "L999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "scenario %q not found", "race")
	if err.Message != `scenario "race" not found` {
		t.Errorf("Message = %q, want %q", err.Message, `scenario "race" not found`)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestError_Error(t *testing.T) {
	err := New("L003")
	if got, want := err.Error(), "L003: Application destroyed"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err2 := &Error{Message: "test error"}
	if err2.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", err2.Error(), "test error")
	}

	wrapped := New("L150").Wrap(stderrors.New("disk full"))
	if got, want := wrapped.Error(), "L150: Profile store failed: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestError_Builders(t *testing.T) {
	err := New("L001").
		WithDetail("custom detail").
		WithSuggestion("keep it attached").
		WithExample("app.Mount(def, nil, doc.Body())")

	if err.Detail != "custom detail" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Suggestion != "keep it attached" {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}
	if err.Example == "" {
		t.Error("Example should be set")
	}
}

func TestError_Is(t *testing.T) {
	sentinel := New("L002")
	inner := stderrors.New("inner")

	if !stderrors.Is(New("L002"), sentinel) {
		t.Error("errors with the same code should match")
	}
	if stderrors.Is(New("L003"), sentinel) {
		t.Error("errors with different codes should not match")
	}

	wrapped := New("L150").Wrap(inner)
	if !stderrors.Is(wrapped, inner) {
		t.Error("Wrap should preserve the chain")
	}
	var le *Error
	if !stderrors.As(wrapped, &le) || le.Code != "L150" {
		t.Error("errors.As should find the coded error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "L150") != nil {
		t.Error("FromError(nil) should return nil")
	}

	original := New("L001")
	if FromError(original, "L150") != original {
		t.Error("FromError should return an existing *Error unchanged")
	}

	plain := stderrors.New("plain")
	got := FromError(plain, "L150")
	if got.Code != "L150" || got.Wrapped != plain {
		t.Errorf("FromError should wrap, got %+v", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("L001").
		Wrap(stderrors.New("node detached")).
		WithSuggestion("Keep the target attached until Mount resolves").
		WithExample("loop.Post(func() { app.Mount(root, nil, target) })")

	formatted := err.Format()

	for _, want := range []string{"L001", "Mount target is not attached", "Cause: node detached", "Hint:", "Example:", "Learn more:"} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format should contain %q", want)
		}
	}
}

func TestFormatWrapsDetail(t *testing.T) {
	DisableColors()
	defer EnableColors()

	detail := strings.Repeat("the target was removed before commit ", 5)
	formatted := New("L001").WithDetail(detail).Format()

	for _, line := range strings.Split(formatted, "\n") {
		if len(line) > detailWidth+2 {
			t.Errorf("line wider than %d: %q", detailWidth+2, line)
		}
		if strings.HasSuffix(line, " ") {
			t.Errorf("line has trailing spaces: %q", line)
		}
	}
	if !strings.Contains(formatted, "  the target was removed") {
		t.Errorf("expected the indented detail, got %q", formatted)
	}
}

func TestPrint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	tests := []struct {
		name string
		err  error
		out  Output
		want []string
	}{
		{"coded pretty", New("L200"), OutputPretty, []string{"ERROR L200: ", "Unknown scenario"}},
		{"plain pretty", stderrors.New("plain failure"), OutputPretty, []string{"ERROR: plain failure"}},
		{"coded json", fmt.Errorf("run: %w", New("L150")), OutputJSON, []string{`{"code":"L150"`, `"category":"profile"`}},
		{"plain json", stderrors.New("plain failure"), OutputJSON, []string{`"category":"cli"`, `"message":"plain failure"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Print(&buf, tt.err, tt.out)
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("expected %q in %q", want, buf.String())
				}
			}
			if tt.out == OutputJSON {
				var v map[string]any
				if err := json.Unmarshal(buf.Bytes(), &v); err != nil {
					t.Errorf("output is not one JSON object: %v", err)
				}
			}
		})
	}
}

func TestOutputFor(t *testing.T) {
	if OutputFor("json") != OutputJSON || OutputFor(" JSON ") != OutputJSON {
		t.Error("json should select OutputJSON")
	}
	if OutputFor("text") != OutputPretty || OutputFor("") != OutputPretty {
		t.Error("anything else should select OutputPretty")
	}
}

func TestFormatJSON(t *testing.T) {
	out := New("L150").Wrap(stderrors.New("denied")).FormatJSON()

	for _, want := range []string{`"code":"L150"`, `"category":"profile"`, `"message":"Profile store failed"`, `"cause":"denied"`} {
		if !strings.Contains(out, want) {
			t.Errorf("JSON should contain %s, got %s", want, out)
		}
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 {
		t.Fatal("GetAllCodes() should return codes")
	}
	if codes[0] != "L001" {
		t.Errorf("codes should be sorted, first is %s", codes[0])
	}
}

func TestGetTemplate(t *testing.T) {
	template, ok := GetTemplate("L004")
	if !ok {
		t.Fatal("L004 should exist")
	}
	if template.Message != "Unhandled component error" {
		t.Error("Template message mismatch")
	}

	if _, ok = GetTemplate("L999"); ok {
		t.Error("L999 should not exist")
	}
}

func TestRegister(t *testing.T) {
	Register("L999", ErrorTemplate{
		Category: CategoryRuntime,
		Message:  "Custom test error",
		Detail:   "This is a test error",
		DocURL:   "https://test.dev/L999",
	})
	defer delete(registry, "L999")

	err := New("L999")
	if err.Message != "Custom test error" {
		t.Errorf("Message = %q, want %q", err.Message, "Custom test error")
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("short text", 100)
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("wrapText short text: got %v", got)
	}

	got = wrapText("this is a longer text that should be wrapped", 20)
	if len(got) != 3 {
		t.Errorf("wrapText long text: expected 3 lines, got %d: %v", len(got), got)
	}

	got = wrapText("", 10)
	if len(got) != 0 {
		t.Errorf("wrapText empty: expected empty, got %v", got)
	}
}

func TestColorFunctions(t *testing.T) {
	EnableColors()
	if !strings.Contains(red("test"), "\033[31m") {
		t.Error("red should contain ANSI code when colors enabled")
	}

	DisableColors()
	if strings.Contains(red("test"), "\033[") {
		t.Error("red should not contain ANSI code when colors disabled")
	}
	EnableColors()
}
