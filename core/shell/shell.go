// Package shell implements the interactive mish control loop: it reads
// lines, hands them to the tokenizer and pipeline planner, dispatches
// builtins, and reports pipeline results.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"
	"github.com/mish-shell/mish/core/config"
	"github.com/mish-shell/mish/core/pipeline"
	"github.com/mish-shell/mish/core/token"
)

const (
	EnvHome = "HOME"
	EnvPath = "PATH"
	EnvUser = "USER"
)

var errorColor = color.New(color.FgRed)

// Shell owns one session: a runner for pipelines, the background job
// table, and (when interactive) a readline instance.
type Shell struct {
	Config   *config.Configuration
	Runner   *pipeline.Runner
	Jobs     *pipeline.Jobs
	Readline *readline.Instance

	history    []string
	lastStatus pipeline.Status
	quitting   bool
}

// New builds a shell around the configuration and the runner's standard
// streams. The readline instance is only created by Run, so script-mode
// and test usage never touch the terminal.
func New(cfg *config.Configuration, runner *pipeline.Runner) (*Shell, error) {
	s := &Shell{
		Config: cfg,
		Runner: runner,
		Jobs:   pipeline.NewJobs(),
	}

	if cfg.Path != "" {
		if err := os.Setenv(EnvPath, cfg.Path); err != nil {
			return nil, err
		}
	}
	for _, kv := range cfg.Env {
		parts := strings.SplitN(kv, "=", 2)
		if err := os.Setenv(parts[0], parts[1]); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Prompt renders the configured PS1-style template.
func (s *Shell) Prompt() string {
	prompt := s.Config.Prompt

	prompt = strings.ReplaceAll(prompt, `\u`, os.Getenv(EnvUser))

	host, _ := os.Hostname()
	prompt = strings.ReplaceAll(prompt, `\h`, host)

	pwd, _ := os.Getwd()
	if home := os.Getenv(EnvHome); home != "" && strings.HasPrefix(pwd, home) {
		pwd = "~" + strings.TrimPrefix(pwd, home)
	}
	prompt = strings.ReplaceAll(prompt, `\w`, pwd)

	if os.Geteuid() == 0 {
		prompt = strings.ReplaceAll(prompt, `\$`, "#")
	} else {
		prompt = strings.ReplaceAll(prompt, `\$`, "$")
	}

	return prompt
}

// Run is the interactive loop. It returns when input closes or the exit
// builtin runs; background jobs still in flight are waited for so their
// processes are reaped before the shell goes away.
func (s *Shell) Run() error {
	if err := s.Config.EnsureHistory(); err != nil {
		log.Printf("history disabled: %v", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      s.Prompt(),
		HistoryFile: s.Config.HistoryPath(),
	})
	if err != nil {
		return err
	}
	s.Readline = rl
	defer rl.Close()
	defer s.Jobs.Wait()

	if s.Config.Motd != "" {
		fmt.Fprintln(s.Runner.Stdout, s.Config.Motd)
	}

	for {
		s.reportFinishedJobs()
		rl.SetPrompt(s.Prompt())
		line, err := rl.Readline()

		switch {
		case err == io.EOF:
			return nil // Input closed, quit.

		case err == readline.ErrInterrupt:
			continue

		case err != nil:
			log.Printf("Error readline: %v", err)
			continue

		case len(strings.TrimSpace(line)) == 0:
			continue

		default:
			s.history = append(s.history, line)
			s.Eval(line)
			if s.quitting {
				return nil
			}
		}
	}
}

// RunScript feeds every line of r through the same evaluation path as
// the interactive loop, without a prompt.
func (s *Shell) RunScript(r io.Reader) error {
	defer s.Jobs.Wait()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		s.Eval(scanner.Text())
		if s.quitting {
			return nil
		}
	}
	return scanner.Err()
}

// Eval runs a single command line: tokenize, validate, plan, then either
// dispatch a builtin or launch the pipeline. Every failure prints one
// diagnostic line and control returns to the caller.
func (s *Shell) Eval(line string) {
	tokens := token.Split(line)
	if len(tokens) == 0 {
		return
	}

	plan, err := pipeline.ValidateAndPlan(tokens)
	if err != nil {
		s.printError(err)
		return
	}

	// Builtins and assignments have no process semantics; they only
	// apply to a plain foreground command with no pipes or redirects.
	if plain(plan) {
		argv := plan.Stages[0].Argv
		if builtin, ok := AllBuiltins[argv[0]]; ok {
			s.lastStatus = pipeline.Status{
				Kind: pipeline.Exited,
				Code: builtin.Main(s, argv),
			}
			return
		}
		if len(argv) == 1 && isAssignment(argv[0]) {
			s.assign(argv[0])
			return
		}
	}

	if plan.Background {
		job, err := s.Runner.RunBackground(plan, s.Jobs)
		if err != nil {
			s.printError(err)
			return
		}
		fmt.Fprintf(s.Runner.Stdout, "[%d] %d\n", job.ID, job.Pid())
		return
	}

	status, err := s.Runner.RunForeground(plan)
	if err != nil {
		s.printError(err)
	}
	s.lastStatus = status
}

// LastStatus is the terminal status of the most recent foreground
// pipeline or builtin.
func (s *Shell) LastStatus() pipeline.Status {
	return s.lastStatus
}

func plain(p *pipeline.Pipeline) bool {
	return len(p.Stages) == 1 && !p.Background &&
		p.Stages[0].InPath == "" && p.Stages[0].OutPath == ""
}

func isAssignment(word string) bool {
	return strings.Contains(word, "=") && !strings.HasPrefix(word, "=")
}

// assign handles NAME=value. An empty value for PATH unsets it entirely,
// matching the historical behavior.
func (s *Shell) assign(word string) {
	parts := strings.SplitN(word, "=", 2)
	name, value := parts[0], parts[1]

	if name == EnvPath && value == "" {
		if err := os.Unsetenv(EnvPath); err != nil {
			s.printError(err)
		}
		return
	}
	if err := os.Setenv(name, value); err != nil {
		s.printError(err)
	}
}

func (s *Shell) printError(err error) {
	errorColor.Fprintln(s.Runner.Stderr, err)
}

// reportFinishedJobs prints one line per background job reaped since the
// last prompt.
func (s *Shell) reportFinishedJobs() {
	for _, job := range s.Jobs.Collect() {
		verdict := "Done"
		if code := job.Status().ExitCode(); code != 0 {
			verdict = fmt.Sprintf("Exit %d", code)
		}
		fmt.Fprintf(s.Runner.Stdout, "[%d]+  %-8s %s\n", job.ID, verdict, job.Command)
	}
}
