package io

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDumpMemory(t *testing.T) {
	assert := assert.New(t)

	memory := []byte{0x34, 0x12, 0x00, 0xff}

	output := &bytes.Buffer{}
	err := DumpMemory(output, memory)
	assert.NoError(err)
	assert.Equal(memory, output.Bytes())

	name := filepath.Join(t.TempDir(), "memory.data")
	err = DumpMemoryFile(name, memory)
	assert.NoError(err)

	data, err := os.ReadFile(name)
	assert.NoError(err)
	assert.Equal(memory, data)

	err = DumpMemoryFile(filepath.Join(t.TempDir(), "missing", "memory.data"), memory)
	assert.Error(err)
}
