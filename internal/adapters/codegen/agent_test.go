package codegen

import (
	"strings"
	"testing"

	"github.com/example/ouro/internal/ports/secondary"
)

func TestComposePromptIncludesAllSections(t *testing.T) {
	prompt := composePrompt(&secondary.CodeGenerationRequest{
		Language:    "go",
		Description: "add a retry counter",
		Context: map[string]string{
			"task_id":  "task-1",
			"codename": "fix-leak",
		},
		Requirements: []string{"keep existing tests passing"},
	})

	for _, want := range []string{
		"add a retry counter",
		"task_id: task-1",
		"codename: fix-leak",
		"- keep existing tests passing",
		"Target language: go",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	// Context keys are emitted in sorted order for stable prompts.
	if strings.Index(prompt, "codename:") > strings.Index(prompt, "task_id:") {
		t.Error("context keys should be sorted")
	}
}

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{
			name:   "single fenced block",
			output: "Here you go:\n```go\nfunc main() {}\n```\nDone.",
			want:   "func main() {}",
		},
		{
			name:   "multiple blocks joined",
			output: "```\nfirst\n```\ntext\n```\nsecond\n```",
			want:   "first\n\nsecond",
		},
		{
			name:   "no blocks",
			output: "just prose, no code",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractCode(tt.output); got != tt.want {
				t.Errorf("extractCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewAgentGeneratorRejectsEmptyCommand(t *testing.T) {
	if _, err := NewAgentGenerator(nil, "/tmp"); err == nil {
		t.Error("empty agent command should be rejected")
	}
}
