// Package codegen drives the external code-generation agent as a
// subprocess. The agent receives a composed prompt on its command line
// and replies on stdout; fenced code blocks in the reply are extracted
// as generated code.
package codegen

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/example/ouro/internal/ports/secondary"
)

// AgentGenerator implements secondary.CodeGenerator by invoking an agent
// command.
type AgentGenerator struct {
	argv    []string
	workDir string
}

// NewAgentGenerator creates a generator that runs argv from workDir. The
// composed prompt is appended as the final argument.
func NewAgentGenerator(argv []string, workDir string) (*AgentGenerator, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("agent command must not be empty")
	}
	return &AgentGenerator{argv: argv, workDir: workDir}, nil
}

// Generate runs one generation request and returns the result.
func (g *AgentGenerator) Generate(ctx context.Context, req *secondary.CodeGenerationRequest) (*secondary.CodeGenerationResult, error) {
	prompt := composePrompt(req)

	args := append(append([]string{}, g.argv[1:]...), prompt)
	cmd := exec.CommandContext(ctx, g.argv[0], args...)
	cmd.Dir = g.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("agent invocation failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	output := stdout.String()
	return &secondary.CodeGenerationResult{
		Code:        extractCode(output),
		Explanation: output,
	}, nil
}

func composePrompt(req *secondary.CodeGenerationRequest) string {
	var b strings.Builder
	b.WriteString(req.Description)

	if len(req.Context) > 0 {
		b.WriteString("\n\nContext:\n")
		keys := make([]string, 0, len(req.Context))
		for k := range req.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "%s: %s\n", k, req.Context[k])
		}
	}

	if len(req.Requirements) > 0 {
		b.WriteString("\nRequirements:\n")
		for _, r := range req.Requirements {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}

	if req.Language != "" {
		fmt.Fprintf(&b, "\nTarget language: %s\n", req.Language)
	}

	return b.String()
}

// extractCode returns the contents of all fenced code blocks in the
// reply, joined in order. Empty when the reply has no code blocks.
func extractCode(output string) string {
	var blocks []string
	lines := strings.Split(output, "\n")

	inBlock := false
	var current []string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inBlock {
				blocks = append(blocks, strings.Join(current, "\n"))
				current = nil
			}
			inBlock = !inBlock
			continue
		}
		if inBlock {
			current = append(current, line)
		}
	}

	return strings.Join(blocks, "\n\n")
}
