package sat

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const headerMarker = 'p'

// Header holds the counts declared by a problem's "p cnf <vars> <clauses>" line.
// A header that could not be found is reported as {-1, -1}.
type Header struct {
	Variables int64
	Clauses   int64
}

var unknownHeader = Header{Variables: -1, Clauses: -1}

// Known reports whether the header was actually read from the file.
func (h Header) Known() bool {
	return h.Variables >= 0 && h.Clauses >= 0
}

// ReadHeader scans the problem file at path and returns the counts declared by the
// first line starting with 'p'. A missing or malformed header yields {-1, -1} and a
// nil error; only I/O failures are returned as errors.
func ReadHeader(path string) (Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return unknownHeader, fmt.Errorf("cannot open problem file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	// Clause lines of real instances easily exceed the default 64KB token size
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 || line[0] != headerMarker {
			continue
		}
		return parseHeaderLine(line), nil
	}

	if err := scanner.Err(); err != nil {
		return unknownHeader, fmt.Errorf("error reading problem file: %w", err)
	}
	return unknownHeader, nil
}

func parseHeaderLine(line string) Header {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return unknownHeader
	}

	variables, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return unknownHeader
	}
	clauses, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return unknownHeader
	}

	return Header{Variables: variables, Clauses: clauses}
}
