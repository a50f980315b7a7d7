package stations

import (
	"context"
	"errors"
	"os/exec"
)

// CommandResult is the combined output and exit code of one subprocess.
type CommandResult struct {
	Output   string
	ExitCode int
}

// CommandRunner abstracts process execution so tests can fake yt-dlp.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()

	res := CommandResult{Output: string(out)}
	if err != nil {
		res.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, errors.Join(ctxErr, err)
		}
		return res, err
	}
	return res, nil
}
