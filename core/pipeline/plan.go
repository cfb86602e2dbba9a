// Package pipeline plans validated token sequences into command stages
// and runs them as OS processes connected by pipes and redirections.
package pipeline

import (
	"strings"

	"github.com/mish-shell/mish/core/token"
)

// Stage is one command within a pipeline: its argument vector plus any
// redirection extracted from the surrounding tokens. InPath is only ever
// set on the first stage and OutPath only on the last.
type Stage struct {
	// Argv holds the words of the command, Argv[0] being the program
	// name. Never empty once planning succeeds.
	Argv []string

	// InPath is the input redirect target, or "" when stdin comes from
	// a pipe or the shell.
	InPath string

	// OutPath is the output redirect target, or "" when stdout goes to
	// a pipe or the shell.
	OutPath string

	// Index is the stage's zero-based position in the pipeline.
	Index int
}

// Pipeline is an ordered chain of stages joined by pipes.
type Pipeline struct {
	Stages     []Stage
	Background bool
}

// String renders the pipeline back into a canonical command line.
func (p *Pipeline) String() string {
	var parts []string
	for _, st := range p.Stages {
		words := append([]string(nil), st.Argv...)
		if st.InPath != "" {
			words = append(words, "<", st.InPath)
		}
		if st.OutPath != "" {
			words = append(words, ">", st.OutPath)
		}
		parts = append(parts, strings.Join(words, " "))
	}
	out := strings.Join(parts, " | ")
	if p.Background {
		out += " &"
	}
	return out
}

// PlanError is a structurally valid token sequence that cannot be turned
// into a runnable pipeline, e.g. a redirect on an interior stage or a
// bare redirect with no command.
type PlanError struct {
	Reason string
}

func (e *PlanError) Error() string {
	return e.Reason
}

func planErr(reason string) error {
	return &PlanError{Reason: reason}
}

const (
	errInputNotFirst  = "mish: input redirect only allowed on the first command"
	errOutputNotLast  = "mish: output redirect only allowed on the last command"
	errMissingInPath  = "mish: missing file name for input redirect"
	errMissingOutPath = "mish: missing file name for output redirect"
	errEmptyCommand   = "mish: empty command in pipeline"
)

// Plan partitions a validated token sequence into stages at each pipe
// token, extracting the input redirect from the first stage and the
// output redirect from the last. Redirect tokens anywhere else reject the
// whole pipeline.
func Plan(tokens []token.Token, background bool) (*Pipeline, error) {
	groups := splitAtPipes(tokens)

	p := &Pipeline{Background: background}
	for i, group := range groups {
		stage, err := planStage(group, i, i == len(groups)-1)
		if err != nil {
			return nil, err
		}
		p.Stages = append(p.Stages, stage)
	}
	return p, nil
}

// ValidateAndPlan is the operation exposed to the control loop: syntax
// validation followed by planning. No process is spawned on either kind
// of rejection.
func ValidateAndPlan(tokens []token.Token) (*Pipeline, error) {
	tokens, background, err := token.Validate(tokens)
	if err != nil {
		return nil, err
	}
	return Plan(tokens, background)
}

func splitAtPipes(tokens []token.Token) [][]token.Token {
	var groups [][]token.Token
	start := 0
	for i, t := range tokens {
		if t.Kind == token.Pipe {
			groups = append(groups, tokens[start:i])
			start = i + 1
		}
	}
	return append(groups, tokens[start:])
}

func planStage(tokens []token.Token, index int, last bool) (Stage, error) {
	stage := Stage{Index: index}

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch t.Kind {
		case token.Word:
			stage.Argv = append(stage.Argv, t.Text)

		case token.RedirectIn:
			if index != 0 {
				return Stage{}, planErr(errInputNotFirst)
			}
			if i+1 >= len(tokens) || tokens[i+1].Kind != token.Word {
				return Stage{}, planErr(errMissingInPath)
			}
			stage.InPath = tokens[i+1].Text
			i++ // consume the path

		case token.RedirectOut:
			if !last {
				return Stage{}, planErr(errOutputNotLast)
			}
			if i+1 >= len(tokens) || tokens[i+1].Kind != token.Word {
				return Stage{}, planErr(errMissingOutPath)
			}
			stage.OutPath = tokens[i+1].Text
			i++ // consume the path
		}
	}

	if len(stage.Argv) == 0 {
		return Stage{}, planErr(errEmptyCommand)
	}
	return stage, nil
}
