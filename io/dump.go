package io

import (
	"io"
	"os"

	"golang.org/x/term"
)

// DumpMemory writes a raw memory image.
func DumpMemory(output io.Writer, memory []byte) (err error) {
	if file, ok := output.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		err = ErrDumpTerminal
		return
	}

	_, err = output.Write(memory)

	return
}

// DumpMemoryFile writes a raw memory image to a named file.
func DumpMemoryFile(name string, memory []byte) (err error) {
	file, err := os.Create(name)
	if err != nil {
		return
	}

	err = DumpMemory(file, memory)
	cerr := file.Close()
	if err == nil {
		err = cerr
	}

	return
}
