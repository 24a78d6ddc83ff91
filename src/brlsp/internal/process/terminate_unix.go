//go:build !windows
// +build !windows

package process

import (
	"errors"
	"os"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/multierr"
)

// terminateTree delivers sig to pid and every descendant.
// Descendants are collected before signalling so that none are missed after reparenting.
func terminateTree(pid int, sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		s = syscall.SIGTERM
	}

	root, err := process.NewProcess(int32(pid))
	if err != nil {
		if isGone(err) {
			return nil
		}
		return err
	}

	var errs error
	for _, p := range append([]*process.Process{root}, descendants(root)...) {
		if err := p.SendSignal(s); err != nil && !isGone(err) {
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
		result = append(result, c)
		result = append(result, descendants(c)...)
	}
	return result
}

func isGone(err error) bool {
	return errors.Is(err, process.ErrorProcessNotRunning) ||
		errors.Is(err, syscall.ESRCH) ||
		errors.Is(err, os.ErrProcessDone)
}
