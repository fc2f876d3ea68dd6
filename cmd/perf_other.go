//go:build !linux

package cmd

import "errors"

func countInstructions(f func() error) (instructions uint64, err error) {
	err = errors.New("hardware counters are only available on linux")
	return
}
