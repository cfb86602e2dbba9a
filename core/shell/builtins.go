package shell

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pborman/getopt/v2"
)

// AllBuiltins holds every registered shell builtin. Builtins run inside
// the shell process; nothing here ever spawns.
var AllBuiltins = make(map[string]Builtin)

type Builtin interface {
	Main(s *Shell, args []string) int
}

type BuiltinFunc func(s *Shell, args []string) int

func (f BuiltinFunc) Main(s *Shell, args []string) int {
	return f(s, args)
}

var _ Builtin = (BuiltinFunc)(nil)

// Cd is the cd shell builtin.
func Cd(s *Shell, args []string) int {
	switch len(args) {
	case 1:
		args = append(args, os.Getenv(EnvHome))
		fallthrough
	case 2:
		if err := os.Chdir(args[1]); err != nil {
			fmt.Fprintf(s.Runner.Stderr, "%s: %v\n", args[0], err)
			return 1
		}
	default:
		fmt.Fprintf(s.Runner.Stderr, "%s: too many arguments\n", args[0])
		return 1
	}
	return 0
}

// Exit quits the shell.
func Exit(s *Shell, args []string) int {
	s.quitting = true
	return 0
}

// Clear wipes the screen.
func Clear(s *Shell, args []string) int {
	fmt.Fprint(s.Runner.Stdout, "\033[H\033[2J")
	return 0
}

// JobsBuiltin lists background pipelines that are still running.
func JobsBuiltin(s *Shell, args []string) int {
	opts := getopt.New()
	long := opts.Bool('l', "also show process ids")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		w := s.Runner.Stderr
		if err != nil {
			fmt.Fprintln(w, err)
		}
		fmt.Fprintln(w, "usage: jobs [-l]")
		fmt.Fprintln(w, "List background jobs.")
		return 1
	}

	for _, job := range s.Jobs.Running() {
		if *long {
			fmt.Fprintf(s.Runner.Stdout, "[%d]  %d Running    %s\n", job.ID, job.Pid(), job.Command)
		} else {
			fmt.Fprintf(s.Runner.Stdout, "[%d]  Running    %s\n", job.ID, job.Command)
		}
	}
	return 0
}

// History displays or clears the session's command history.
func History(s *Shell, args []string) int {
	opts := getopt.New()
	clear := opts.Bool('c', "clear the history by deleting all entries")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		w := s.Runner.Stderr
		if err != nil {
			fmt.Fprintln(w, err)
		}
		fmt.Fprintln(w, "Display or manipulate the history list.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		opts.PrintOptions(w)
		return 1
	}

	if *clear {
		if s.Readline != nil {
			s.Readline.Operation.ResetHistory()
		}
		s.history = nil
		return 0
	}

	for i, line := range s.history {
		fmt.Fprintf(s.Runner.Stdout, "% 5d  %s\n", i+1, line)
	}
	return 0
}

// Help lists the registered builtins.
func Help(s *Shell, args []string) int {
	w := s.Runner.Stdout
	fmt.Fprintln(w, "These shell commands are defined internally.")
	fmt.Fprintln(w)

	var builtins []string
	for k := range AllBuiltins {
		builtins = append(builtins, k)
	}
	sort.Strings(builtins)

	fmt.Fprintln(w, strings.Join(builtins, "\n"))
	return 0
}

func init() {
	AllBuiltins["cd"] = BuiltinFunc(Cd)
	AllBuiltins["exit"] = BuiltinFunc(Exit)
	AllBuiltins["clear"] = BuiltinFunc(Clear)
	AllBuiltins["jobs"] = BuiltinFunc(JobsBuiltin)
	AllBuiltins["history"] = BuiltinFunc(History)
	AllBuiltins["help"] = BuiltinFunc(Help)
}
