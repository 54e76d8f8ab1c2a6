//go:build unix

package common

import (
	"github.com/edsrzf/mmap-go"
	"golang.org/x/sys/unix"
)

// adviseSequential tells the kernel the mapping is mostly read front to back.
func adviseSequential(mmapFile mmap.MMap) {
	_ = unix.Madvise(mmapFile, unix.MADV_SEQUENTIAL)
}
