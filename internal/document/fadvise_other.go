//go:build !linux

package document

import "os"

func adviseSequential(*os.File) {}
