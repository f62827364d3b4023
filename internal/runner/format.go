package runner

import (
	"context"
	"fmt"
	"os/exec"
	"slices"
)

// format runs the configured formatter on path. Stripping comments tends to
// leave blank runs and odd spacing that a formatter tidies up.
func (r *Runner) format(ctx context.Context, path string) error {
	if len(r.cfg.Formatter) == 0 {
		return nil
	}

	args := append(slices.Clone(r.cfg.Formatter[1:]), path)
	cmd := exec.CommandContext(ctx, r.cfg.Formatter[0], args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("formatter command failed: %w (output: %s)", err, string(output))
	}

	return nil
}
