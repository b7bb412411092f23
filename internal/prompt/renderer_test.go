package prompt

import (
	"errors"
	"testing"

	"github.com/safeplan-io/safeplan/internal/model"
)

func TestRender_SubstitutesAllPlaceholders(t *testing.T) {
	out, err := Render("Hello {name}, welcome to {place}.", map[string]string{
		"name":  "Alex",
		"place": "Toronto",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out != "Hello Alex, welcome to Toronto." {
		t.Errorf("Unexpected output: %q", out)
	}
}

func TestRender_MissingVariable(t *testing.T) {
	_, err := Render("USER REQUEST:\n{input}\n\nRESOURCES:\n{context}", map[string]string{
		"input": "something",
	})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var missing *model.MissingVariableError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingVariableError, got %T: %v", err, err)
	}
	if missing.Name != "context" {
		t.Errorf("Expected missing variable 'context', got %q", missing.Name)
	}
}

func TestRender_Idempotent(t *testing.T) {
	vars := map[string]string{"input": "LOCATION: Agincourt North", "analysis": "detailed analysis"}

	first, err := Render(SynthesisTemplate, vars)
	if err != nil {
		t.Fatalf("First render failed: %v", err)
	}
	second, err := Render(SynthesisTemplate, vars)
	if err != nil {
		t.Fatalf("Second render failed: %v", err)
	}
	if first != second {
		t.Error("Rendering the same template with the same values was not byte-identical")
	}
}

func TestRender_ValueContainingPlaceholderSyntax(t *testing.T) {
	// Substituted values are literal text, not re-expanded.
	out, err := Render("{input}", map[string]string{"input": "literal {context} stays"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out != "literal {context} stays" {
		t.Errorf("Value was re-expanded: %q", out)
	}
}

func TestTemplates_DeclareExpectedPlaceholders(t *testing.T) {
	if _, err := Render(AnalysisTemplate, map[string]string{"input": "i", "context": "c"}); err != nil {
		t.Errorf("AnalysisTemplate has unexpected placeholders: %v", err)
	}
	if _, err := Render(SynthesisTemplate, map[string]string{"input": "i", "analysis": "a"}); err != nil {
		t.Errorf("SynthesisTemplate has unexpected placeholders: %v", err)
	}
}
