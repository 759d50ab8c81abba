package secondary

import "context"

// CodeGenerator defines the secondary port for the code-generation
// collaborator. The application sends it planning, implementation, and
// review prompts and receives free-form text plus any generated code.
type CodeGenerator interface {
	// Generate runs one generation request and returns the result.
	Generate(ctx context.Context, req *CodeGenerationRequest) (*CodeGenerationResult, error)
}

// CodeGenerationRequest carries one prompt to the collaborator.
type CodeGenerationRequest struct {
	Language     string
	Description  string
	Context      map[string]string
	Requirements []string
	SessionID    string
}

// CodeGenerationResult is the collaborator's reply.
type CodeGenerationResult struct {
	Code        string
	Explanation string
}
