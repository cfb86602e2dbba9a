package pipeline

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// StatusKind is the lifecycle state of one spawned stage.
type StatusKind int

const (
	// Running means the process has been spawned but not yet reaped.
	Running StatusKind = iota
	// Exited means the process terminated on its own.
	Exited
	// Signaled means the process was killed by a signal.
	Signaled
)

// Status is a stage's observed termination state.
type Status struct {
	Kind   StatusKind
	Code   int         // exit code, valid when Kind == Exited
	Signal unix.Signal // terminating signal, valid when Kind == Signaled
}

// ExitCode flattens the status into a shell-style exit code: the code
// itself for a normal exit, 128+signal for a signal death, -1 while
// still running.
func (s Status) ExitCode() int {
	switch s.Kind {
	case Exited:
		return s.Code
	case Signaled:
		return 128 + int(s.Signal)
	default:
		return -1
	}
}

func (s Status) String() string {
	switch s.Kind {
	case Exited:
		return fmt.Sprintf("exited(%d)", s.Code)
	case Signaled:
		return fmt.Sprintf("signaled(%s)", unix.SignalName(s.Signal))
	default:
		return "running"
	}
}

// Proc tracks one spawned stage until it is reaped.
type Proc struct {
	Pid    int
	Stage  int
	Status Status

	cmd *exec.Cmd // nil when the stage failed before spawning
}

// wait blocks until the process terminates and records its status.
// Stages that never spawned already carry their synthetic status.
func (p *Proc) wait() {
	if p.cmd == nil || p.Status.Kind != Running {
		return
	}
	err := p.cmd.Wait()
	p.Status = statusFromWait(p.cmd.ProcessState, err)
}

func statusFromWait(state *os.ProcessState, err error) Status {
	if state != nil {
		if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return Status{Kind: Signaled, Signal: unix.Signal(ws.Signal())}
		}
		return Status{Kind: Exited, Code: state.ExitCode()}
	}
	if err != nil {
		// Wait failed before producing a state; treat as a plain failure.
		return Status{Kind: Exited, Code: 1}
	}
	return Status{Kind: Exited, Code: 0}
}
