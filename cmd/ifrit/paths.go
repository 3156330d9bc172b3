package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// resolveFile finds a monster file given as a path or as a bare label
// relative to --data-dir.
func resolveFile(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", errors.New("missing monster file")
	}
	if _, err := os.Stat(arg); err == nil || dataDir == "" || filepath.Base(arg) != arg {
		return filepath.Clean(arg), nil
	}
	return filepath.Join(dataDir, arg), nil
}

// resolveInputs expands the command arguments into monster files. A
// directory argument, or no argument with --data-dir set, is searched for
// c0m###.dat files.
func resolveInputs(args []string, discover func(string) ([]string, error)) ([]string, error) {
	if len(args) == 0 {
		if dataDir == "" {
			return nil, errors.New("no input files and no --data-dir")
		}
		return discover(dataDir)
	}
	var out []string
	for _, a := range args {
		st, err := os.Stat(a)
		if err == nil && st.IsDir() {
			found, err := discover(a)
			if err != nil {
				return nil, err
			}
			out = append(out, found...)
			continue
		}
		p, err := resolveFile(a)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
