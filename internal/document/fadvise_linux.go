//go:build linux

package document

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential is a best-effort kernel hint: one sequential pass, please
// read ahead.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_WILLNEED)
}
