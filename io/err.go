package io

import (
	"errors"

	"github.com/ezrec/sim86/translate"
)

var f = translate.From

var (
	// Buffer errors
	ErrBufferEnd      = errors.New(f("buffer end reached"))
	ErrCursorNegative = errors.New(f("cursor before buffer start"))
	ErrCursorRange    = errors.New(f("cursor past loaded bytes"))

	// Dump errors
	ErrDumpTerminal = errors.New(f("refusing to dump memory to a terminal"))
)
