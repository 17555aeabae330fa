package prep

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// Runner invokes an external tool synchronously. A run either succeeds or
// returns an error carrying the tool's output; there is no timeout or
// cancellation model.
type Runner interface {
	Run(name string, args ...string) error
}

// ExecRunner runs tools via os/exec, folding combined output into the error
// on failure.
type ExecRunner struct {
	Log *log.Logger
}

func (r ExecRunner) Run(name string, args ...string) error {
	if r.Log != nil {
		r.Log.Debug("running external tool", "cmd", name, "args", strings.Join(args, " "))
	}

	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		out = bytes.TrimSpace(out)
		if len(out) > 0 {
			return fmt.Errorf("%s failed: %w: %s", name, err, out)
		}
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}
