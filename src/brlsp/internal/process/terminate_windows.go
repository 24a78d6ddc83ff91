//go:build windows
// +build windows

package process

import (
	"errors"
	"os"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/multierr"
)

// terminateTree kills pid and every descendant. Windows has no signal delivery, so sig is ignored.
func terminateTree(pid int, _ os.Signal) error {
	root, err := process.NewProcess(int32(pid))
	if err != nil {
		if isGone(err) {
			return nil
		}
		return err
	}

	var errs error
	for _, p := range append(descendants(root), root) {
		if err := p.Kill(); err != nil && !isGone(err) {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func descendants(p *process.Process) []*process.Process {
	children, err := p.Children()
	if err != nil {
		return nil
	}

	var result []*process.Process
	for _, c := range children {
		result = append(result, descendants(c)...)
		result = append(result, c)
	}
	return result
}

func isGone(err error) bool {
	return errors.Is(err, process.ErrorProcessNotRunning) || errors.Is(err, os.ErrProcessDone)
}
