package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
)

// outputFileMode matches the historical shell behavior for "> file":
// owner read/write, group and other read.
const outputFileMode = 0644

// Runner launches pipelines against a set of default standard streams.
// The defaults are only used where a stage has neither a pipe nor a
// redirect bound to that stream; the runner never rebinds its own
// streams to implement redirection.
type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner returns a Runner bound to the process's own streams.
func NewRunner() *Runner {
	return &Runner{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// RunForeground launches every stage of the pipeline and waits for all of
// them in spawn order. The returned status is the last stage's, following
// shell convention; earlier failures only show up as a short or empty
// input for their consumers.
func (r *Runner) RunForeground(p *Pipeline) (Status, error) {
	procs, err := r.launch(p)
	if err != nil {
		// launch already reaped whatever was spawned.
		return Status{Kind: Exited, Code: 1}, err
	}
	return reap(procs), nil
}

// RunBackground launches the pipeline and returns without waiting. The
// job is reaped asynchronously and surfaces in jobs.Collect once every
// stage has terminated, so no process is ever left unaccounted.
func (r *Runner) RunBackground(p *Pipeline, jobs *Jobs) (*Job, error) {
	procs, err := r.launch(p)
	if err != nil {
		return nil, err
	}
	return jobs.track(p.String(), procs), nil
}

// launch spawns one process per stage with stdio derived from the pipe
// fabric and the stage's redirects.
//
// Failure handling follows two tiers:
//   - a redirect that cannot be opened or a program that cannot be found
//     fails only that stage (synthetic non-zero status, one diagnostic
//     line); its pipe ends are closed so neighbors observe end-of-stream
//     and the remaining stages still launch;
//   - pipe allocation or spawn failure aborts the pipeline: no further
//     stages start, everything already running is reaped, and the error
//     is returned without touching the shell process itself.
func (r *Runner) launch(p *Pipeline) ([]*Proc, error) {
	fab, err := newFabric(len(p.Stages))
	if err != nil {
		return nil, err
	}

	procs := make([]*Proc, 0, len(p.Stages))
	for i := range p.Stages {
		stage := &p.Stages[i]

		proc, files, err := r.startStage(stage, fab)
		// The parent's copies of this stage's endpoints are dead weight
		// from here on either way.
		for _, fd := range files {
			fd.Close()
		}
		fab.release(i)

		if err != nil {
			fab.closeAll()
			reap(procs)
			return nil, err
		}
		procs = append(procs, proc)
	}

	return procs, nil
}

// startStage builds and spawns a single stage. It returns the files the
// parent must close once the child owns them. A stage-local failure
// yields a Proc carrying a synthetic exit status and a nil error.
func (r *Runner) startStage(stage *Stage, fab *fabric) (*Proc, []*os.File, error) {
	var files []*os.File

	var stdin io.Reader = r.Stdin
	if stage.InPath != "" {
		fd, err := os.Open(stage.InPath)
		if err != nil {
			return r.failStage(stage, err), files, nil
		}
		files = append(files, fd)
		stdin = fd
	} else if prev := fab.stdinFor(stage.Index); prev != nil {
		stdin = prev
	}

	var stdout io.Writer = r.Stdout
	if next := fab.stdoutFor(stage.Index); next != nil {
		stdout = next
	} else if stage.OutPath != "" {
		fd, err := os.OpenFile(stage.OutPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, outputFileMode)
		if err != nil {
			return r.failStage(stage, err), files, nil
		}
		files = append(files, fd)
		stdout = fd
	}

	cmd := exec.Command(stage.Argv[0], stage.Argv[1:]...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(r.Stderr, "mish: %s: No such file or directory\n", stage.Argv[0])
			return &Proc{Stage: stage.Index, Status: Status{Kind: Exited, Code: 127}}, files, nil
		}
		return nil, files, fmt.Errorf("mish: failed to start %s: %w", stage.Argv[0], err)
	}

	return &Proc{
		Pid:    cmd.Process.Pid,
		Stage:  stage.Index,
		Status: Status{Kind: Running},
		cmd:    cmd,
	}, files, nil
}

// failStage records a stage whose redirect could not be opened. Only this
// stage fails; its neighbors run and see end-of-stream.
func (r *Runner) failStage(stage *Stage, err error) *Proc {
	fmt.Fprintf(r.Stderr, "mish: %v\n", err)
	return &Proc{Stage: stage.Index, Status: Status{Kind: Exited, Code: 1}}
}

// reap waits for every spawned process in spawn order and returns the
// last stage's terminal status.
func reap(procs []*Proc) Status {
	for _, p := range procs {
		p.wait()
	}
	if len(procs) == 0 {
		return Status{Kind: Exited, Code: 0}
	}
	return procs[len(procs)-1].Status
}
