package pipeline

import (
	"sort"
	"sync"
)

// Job is one background pipeline: its processes are reaped off the
// control loop and the finished job is handed back the next time the
// loop asks.
type Job struct {
	ID      int
	Command string

	procs  []*Proc
	status Status
}

// Pid returns the process id of the job's last spawned stage, zero when
// every stage failed before spawning.
func (j *Job) Pid() int {
	for i := len(j.procs) - 1; i >= 0; i-- {
		if j.procs[i].Pid != 0 {
			return j.procs[i].Pid
		}
	}
	return 0
}

// Status returns the job's terminal status. Only meaningful once the job
// has been collected.
func (j *Job) Status() Status {
	return j.status
}

// Jobs tracks background pipelines between prompts. Each job is reaped by
// its own goroutine; Collect hands finished jobs back exactly once.
type Jobs struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	nextID   int
	running  map[int]*Job
	finished []*Job
}

func NewJobs() *Jobs {
	return &Jobs{nextID: 1, running: make(map[int]*Job)}
}

// track registers a freshly launched background pipeline and starts its
// reaper goroutine.
func (js *Jobs) track(command string, procs []*Proc) *Job {
	js.mu.Lock()
	job := &Job{ID: js.nextID, Command: command, procs: procs}
	js.nextID++
	js.running[job.ID] = job
	js.mu.Unlock()

	js.wg.Add(1)
	go func() {
		defer js.wg.Done()
		status := reap(job.procs)

		js.mu.Lock()
		job.status = status
		delete(js.running, job.ID)
		js.finished = append(js.finished, job)
		js.mu.Unlock()
	}()

	return job
}

// Collect drains and returns the jobs that terminated since the last
// call, oldest first.
func (js *Jobs) Collect() []*Job {
	js.mu.Lock()
	defer js.mu.Unlock()

	done := js.finished
	js.finished = nil
	return done
}

// Running lists the jobs still in flight, ordered by id.
func (js *Jobs) Running() []*Job {
	js.mu.Lock()
	defer js.mu.Unlock()

	out := make([]*Job, 0, len(js.running))
	for _, j := range js.running {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

// Wait blocks until every tracked job has been reaped. Used on shell exit
// so terminated children are never left unaccounted.
func (js *Jobs) Wait() {
	js.wg.Wait()
}
