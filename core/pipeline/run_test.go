package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/mish-shell/mish/core/token"
)

func testRunner() (*Runner, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Runner{
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

func mustPlan(t *testing.T, line string) *Pipeline {
	t.Helper()
	p, err := ValidateAndPlan(token.Split(line))
	require.NoError(t, err)
	return p
}

func TestRunForegroundRedirectOut(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")
	runner, _, _ := testRunner()

	status, err := runner.RunForeground(mustPlan(t, "echo hi > "+out))
	require.NoError(t, err)
	assert.Equal(t, 0, status.ExitCode())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(data))
}

func TestRunForegroundRedirectOutTruncates(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(out, []byte("previous contents that are longer\n"), 0644))

	runner, _, _ := testRunner()
	_, err := runner.RunForeground(mustPlan(t, "echo hi > "+out))
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(data))
}

func TestRunForegroundPipe(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(in, []byte("one\ntwo\nthree\n"), 0644))

	runner, stdout, _ := testRunner()
	status, err := runner.RunForeground(mustPlan(t, "cat < "+in+" | wc -l"))
	require.NoError(t, err)

	assert.Equal(t, 0, status.ExitCode())
	assert.Equal(t, "3", strings.TrimSpace(stdout.String()))
}

func TestRunForegroundThreeStages(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(in, []byte("b\na\nb\n"), 0644))

	runner, stdout, _ := testRunner()
	status, err := runner.RunForeground(mustPlan(t, "cat < "+in+" | sort | uniq"))
	require.NoError(t, err)

	assert.Equal(t, 0, status.ExitCode())
	assert.Equal(t, "a\nb\n", stdout.String())
}

func TestRunForegroundExitStatusIsLastStage(t *testing.T) {
	runner, _, _ := testRunner()
	status, err := runner.RunForeground(mustPlan(t, "true | false"))
	require.NoError(t, err)
	assert.Equal(t, 1, status.ExitCode())

	status, err = runner.RunForeground(mustPlan(t, "false | true"))
	require.NoError(t, err)
	assert.Equal(t, 0, status.ExitCode())
}

func TestRunForegroundCommandNotFound(t *testing.T) {
	runner, _, stderr := testRunner()
	status, err := runner.RunForeground(mustPlan(t, "mish-no-such-command"))
	require.NoError(t, err)

	assert.Equal(t, 127, status.ExitCode())
	assert.Contains(t, stderr.String(), "mish-no-such-command: No such file or directory")
}

func TestRunForegroundNotFoundProducerStillFeedsConsumer(t *testing.T) {
	// The missing producer's pipe ends are closed, so the consumer sees
	// immediate end-of-stream and still runs to completion.
	runner, stdout, stderr := testRunner()
	status, err := runner.RunForeground(mustPlan(t, "mish-no-such-command | wc -l"))
	require.NoError(t, err)

	assert.Equal(t, 0, status.ExitCode())
	assert.Equal(t, "0", strings.TrimSpace(stdout.String()))
	assert.Contains(t, stderr.String(), "No such file or directory")
}

func TestRunForegroundRedirectOpenFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does", "not", "exist")

	runner, stdout, stderr := testRunner()
	status, err := runner.RunForeground(mustPlan(t, "cat < "+missing+" | wc -l"))
	require.NoError(t, err)

	// Only the producer fails; the consumer observes end-of-stream.
	assert.Equal(t, 0, status.ExitCode())
	assert.Equal(t, "0", strings.TrimSpace(stdout.String()))
	assert.NotEmpty(t, stderr.String())
}

func TestRunForegroundNoDescriptorLeak(t *testing.T) {
	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	require.NoError(t, err)
	defer devnull.Close()

	runner := &Runner{Stdin: devnull, Stdout: devnull, Stderr: devnull}

	before := openDescriptors(t)
	for i := 0; i < 3; i++ {
		_, err := runner.RunForeground(mustPlan(t, "true | true | true"))
		require.NoError(t, err)
	}
	assert.Equal(t, before, openDescriptors(t))
}

func openDescriptors(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	require.NoError(t, err)
	return len(entries)
}

func TestRunBackground(t *testing.T) {
	runner, _, _ := testRunner()
	jobs := NewJobs()

	job, err := runner.RunBackground(mustPlan(t, "true &"), jobs)
	require.NoError(t, err)
	assert.Greater(t, job.Pid(), 0)

	jobs.Wait()

	done := jobs.Collect()
	require.Len(t, done, 1)
	assert.Same(t, job, done[0])
	assert.Equal(t, 0, done[0].Status().ExitCode())

	// A job is only handed back once.
	assert.Empty(t, jobs.Collect())
	assert.Empty(t, jobs.Running())
}

func TestRunBackgroundDoesNotBlock(t *testing.T) {
	runner, _, _ := testRunner()
	jobs := NewJobs()

	start := time.Now()
	job, err := runner.RunBackground(mustPlan(t, "sleep 2 &"), jobs)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	require.Len(t, jobs.Running(), 1)

	// Don't leave the sleeper behind; kill it and reap.
	require.NoError(t, unix.Kill(job.Pid(), unix.SIGKILL))
	jobs.Wait()

	done := jobs.Collect()
	require.Len(t, done, 1)
	assert.Equal(t, Signaled, done[0].Status().Kind)
	assert.Equal(t, unix.SIGKILL, done[0].Status().Signal)
	assert.Equal(t, 128+int(unix.SIGKILL), done[0].Status().ExitCode())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "running", Status{Kind: Running}.String())
	assert.Equal(t, "exited(2)", Status{Kind: Exited, Code: 2}.String())
	assert.Equal(t, "signaled(SIGKILL)", Status{Kind: Signaled, Signal: unix.SIGKILL}.String())
}
