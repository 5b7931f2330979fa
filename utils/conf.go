// Package utils sources ordered configuration directives from textual
// formats for the nnet compiler.
package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/taposh/cxxnet/nnet"
)

// ReadConf reads a classic configuration file: one "key = value" directive
// per line, '#' starting a comment, blank lines skipped. Directive order is
// preserved; the grammar the compiler applies depends on it.
func ReadConf(r io.Reader) ([]nnet.Directive, error) {
	var directives []nnet.Directive
	sc := bufio.NewScanner(r)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected \"key = value\", got %q", lineno, line)
		}
		directives = append(directives, nnet.Directive{
			Key:   strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return directives, nil
}

// ReadConfFile reads a configuration file from disk.
func ReadConfFile(path string) ([]nnet.Directive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ds, err := ReadConf(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}
