//go:build !unix

package common

import "github.com/edsrzf/mmap-go"

func adviseSequential(mmap.MMap) {}
