package preprocess

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"markprep/internal/core/config"
	"markprep/internal/core/errors"
	"markprep/internal/engine/transform"
	"markprep/internal/shared/util"
)

// CommandOverride runs cmd for blocks resolving to lang, with the block on stdin and uses its stdout as the
// transformed code. The filename is exported as MARKPREP_FILENAME. Starts
// are throttled to cmd.Rate per second across all blocks.
func CommandOverride(lang string, cmd config.Command) transform.OverrideFunc {
	argv := append([]string(nil), cmd.Argv...)
	timeout := cmd.Timeout
	throttle := util.NewThrottle(cmd.Rate)
	return func(ctx context.Context, src transform.Source) (transform.Result, error) {
		if len(argv) == 0 {
			return transform.Result{}, errors.Fail("command override has no program")
		}
		if err := throttle.Wait(ctx); err != nil {
			return transform.Result{}, err
		}
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		c := exec.CommandContext(ctx, argv[0], argv[1:]...)
		c.Stdin = strings.NewReader(src.Content)
		c.Env = append(os.Environ(), "MARKPREP_FILENAME="+src.Filename)
		var stdout, stderr bytes.Buffer
		c.Stdout = &stdout
		c.Stderr = &stderr

		if err := c.Run(); err != nil {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = err.Error()
			}
			err := errors.New(errors.CodeTransformFailed, fmt.Sprintf("command %q failed: %s", argv[0], msg))
			err = errors.AddContext(err, errors.CtxLanguage, lang)
			return transform.Result{}, errors.AddContext(err, errors.CtxPath, src.Filename)
		}
		return transform.Result{Code: stdout.String()}, nil
	}
}
