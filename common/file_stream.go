package common

import (
	"io"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/edsrzf/mmap-go"
)

// FileStream reads a file, through a memory map when the file can be mapped.
// ReadAt may be called concurrently, Read and Seek share one position.
type FileStream struct {
	file           *os.File
	fileSize       int64
	isMemoryMapped bool
	mmapFile       mmap.MMap

	mu           sync.RWMutex
	filePosition int64
	isOpen       bool
}

func (f *FileStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.isOpen {
		return nil
	}

	f.filePosition = -1
	f.isOpen = false

	if f.isMemoryMapped {
		return f.mmapFile.Unmap()
	}

	return f.file.Close()
}

func NewFileStream(path string) (*FileStream, error) {
	file, openErr := os.Open(path)
	if openErr != nil {
		return nil, errors.Wrapf(openErr, "failed to open file %s", path)
	}

	stat, statErr := file.Stat()
	if statErr != nil {
		file.Close()

		return nil, errors.Wrapf(statErr, "failed to read information while opening file %s", path)
	}

	// Empty files cannot be mapped
	if stat.Size() == 0 {
		return &FileStream{file: file, isOpen: true}, nil
	}

	mmapFile, mmapErr := mmap.Map(file, mmap.RDONLY, 0)
	if mmapErr != nil {
		return &FileStream{
			file:     file,
			fileSize: stat.Size(),
			isOpen:   true,
		}, nil
	}

	defer file.Close()

	adviseSequential(mmapFile)

	return &FileStream{
		fileSize:       stat.Size(),
		isMemoryMapped: true,
		isOpen:         true,
		mmapFile:       mmapFile,
	}, nil
}

func (f *FileStream) Position() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.filePosition
}

func (f *FileStream) Read(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bytesRead, readErr := f.readAt(b, f.filePosition)
	f.filePosition += int64(bytesRead)

	if bytesRead > 0 && errors.Is(readErr, io.EOF) {
		// io.Reader reports the end on the next call
		return bytesRead, nil
	}

	return bytesRead, readErr
}

// ReadAt implements io.ReaderAt.
func (f *FileStream) ReadAt(b []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, errors.Newf("negative offset %d", offset)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.readAt(b, offset)
}

func (f *FileStream) readAt(b []byte, offset int64) (int, error) {
	if !f.isOpen {
		return 0, os.ErrClosed
	}

	if !f.isMemoryMapped {
		return f.file.ReadAt(b, offset)
	}

	if offset >= f.fileSize {
		return 0, io.EOF
	}

	bytesCopied := copy(b, f.mmapFile[offset:])
	if bytesCopied < len(b) {
		return bytesCopied, io.EOF
	}

	return bytesCopied, nil
}

func (f *FileStream) Seek(offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var position int64
	switch whence {
	case io.SeekCurrent:
		position = f.filePosition + offset
	case io.SeekEnd:
		position = f.fileSize + offset
	case io.SeekStart:
		position = offset
	default:
		return f.filePosition, errors.Newf("invalid whence %d", whence)
	}

	if position < 0 {
		return f.filePosition, errors.Newf("negative position %d", position)
	}

	f.filePosition = position

	return f.filePosition, nil
}

func (f *FileStream) Size() int64 {
	return f.fileSize
}
