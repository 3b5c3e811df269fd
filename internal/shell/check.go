package shell

import (
	"context"
	"errors"
	"fmt"

	"github.com/riboseinc/gemstrap/internal/apperr"
)

// Check turns the outcome of Runner.Run into an apperr. An expired context
// is a KindTimeout error; anything else that prevented a clean exit is a
// KindCollaborator error carrying the command output.
func Check(res Result, err error, what string) error {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperr.Wrap(apperr.KindTimeout, what+" timed out", err)
		}
		return apperr.Wrap(apperr.KindCollaborator, what+" failed", err)
	}
	if res.ExitCode != 0 {
		cause := fmt.Errorf("exit status %d", res.ExitCode)
		if out := res.Combined(); out != "" {
			cause = fmt.Errorf("exit status %d: %s", res.ExitCode, out)
		}
		return apperr.Wrap(apperr.KindCollaborator, what+" failed", cause)
	}
	return nil
}
