//go:build !profile

package profiler

import "github.com/hubastard/netcanvas/engine/errors"

// Stubbed no-op versions when the "profile" build tag is not set.

const Enabled = false

func Init(capacity int) {}

func Start(name string) func() { return func() {} }

func Dump(path string) error {
	return errors.New(errors.ErrCodeUnsupported, "profiling requires the 'profile' build tag")
}
