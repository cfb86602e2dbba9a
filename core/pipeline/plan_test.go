package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mish-shell/mish/core/token"
)

func TestPlanSingleStage(t *testing.T) {
	p, err := ValidateAndPlan(token.Split("echo hi > out.txt"))
	require.NoError(t, err)

	require.Len(t, p.Stages, 1)
	assert.Equal(t, []string{"echo", "hi"}, p.Stages[0].Argv)
	assert.Equal(t, "out.txt", p.Stages[0].OutPath)
	assert.Empty(t, p.Stages[0].InPath)
	assert.False(t, p.Background)
}

func TestPlanPipelineWithRedirects(t *testing.T) {
	p, err := ValidateAndPlan(token.Split("cat < in.txt | wc -l"))
	require.NoError(t, err)

	require.Len(t, p.Stages, 2)
	assert.Equal(t, []string{"cat"}, p.Stages[0].Argv)
	assert.Equal(t, "in.txt", p.Stages[0].InPath)
	assert.Equal(t, []string{"wc", "-l"}, p.Stages[1].Argv)
	assert.Empty(t, p.Stages[1].OutPath)

	for i, st := range p.Stages {
		assert.Equal(t, i, st.Index)
	}
}

func TestPlanBackground(t *testing.T) {
	p, err := ValidateAndPlan(token.Split("sleep 10 &"))
	require.NoError(t, err)
	assert.True(t, p.Background)
	assert.Equal(t, "sleep 10 &", p.String())
}

func TestPlanRejects(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{"a > x | b", errOutputNotLast},
		{"a | b < x", errInputNotFirst},
		{"a | b > x | c", errOutputNotLast},
		{"cat <", errMissingInPath},
		{"echo >", errMissingOutPath},
		{"cat < > out", errMissingInPath},
	}

	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			_, err := ValidateAndPlan(token.Split(tc.line))
			require.Error(t, err)

			var planErr *PlanError
			require.ErrorAs(t, err, &planErr)
			assert.Equal(t, tc.want, planErr.Reason)
		})
	}
}

func TestPlanEmptyCommand(t *testing.T) {
	// Not reachable through the validator, but Plan is callable on its
	// own and must never produce an empty argv.
	_, err := Plan(token.Split("> out.txt"), false)
	require.Error(t, err)

	var planErr *PlanError
	require.ErrorAs(t, err, &planErr)
	assert.Equal(t, errEmptyCommand, planErr.Reason)
}

func TestPlanPipeCountInvariant(t *testing.T) {
	for n := 1; n <= 6; n++ {
		parts := make([]string, n)
		for i := range parts {
			parts[i] = fmt.Sprintf("cmd%d", i)
		}
		p, err := ValidateAndPlan(token.Split(strings.Join(parts, " | ")))
		require.NoError(t, err)
		assert.Len(t, p.Stages, n)
	}
}

func renderPlan(line string) string {
	var b strings.Builder
	p, err := ValidateAndPlan(token.Split(line))
	if err != nil {
		fmt.Fprintf(&b, "error: %s\n", err)
		return b.String()
	}

	fmt.Fprintf(&b, "pipeline: %s\n", p)
	for _, st := range p.Stages {
		fmt.Fprintf(&b, "stage %d: argv=%q", st.Index, st.Argv)
		if st.InPath != "" {
			fmt.Fprintf(&b, " in=%s", st.InPath)
		}
		if st.OutPath != "" {
			fmt.Fprintf(&b, " out=%s", st.OutPath)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func TestPlanGolden(t *testing.T) {
	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)

	cases := map[string]string{
		"simple":            "echo hi",
		"redirect_out":      "echo hi > out.txt",
		"redirect_in_pipe":  "cat < in.txt | wc -l",
		"compact_operators": "sort<in.txt|uniq>out.txt",
		"background":        "sleep 10 &",
		"pipe_first":        "| ls",
		"pipe_last":         "ls |",
		"improper_mix":      "ls | > out.txt",
		"interior_redirect": "a > x | b",
		"missing_path":      "cat <",
	}

	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			g.Assert(t, name, []byte(renderPlan(line)))
		})
	}
}
