package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/toxref/internal/cas"
)

// ReadCAS collects CAS numbers from r. A line may hold several numbers
// separated by blanks or the separators used in source cells.
func ReadCAS(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		for _, field := range strings.Fields(scanner.Text()) {
			out = append(out, cas.ExtractCandidates(field)...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read CAS list: %w", err)
	}
	return out, nil
}

// CollectCAS merges command arguments with the numbers listed in file ("-"
// reads stdin) and normalizes the result.
func CollectCAS(args []string, file string, stdin io.Reader) ([]string, error) {
	raw := make([]string, 0, len(args))
	for _, a := range args {
		raw = append(raw, cas.ExtractCandidates(a)...)
	}

	if file != "" {
		var r io.Reader = stdin
		if file != "-" {
			f, err := os.Open(file) // #nosec G304
			if err != nil {
				return nil, fmt.Errorf("failed to open CAS file: %w", err)
			}
			defer func() { _ = f.Close() }()
			r = f
		}
		listed, err := ReadCAS(r)
		if err != nil {
			return nil, err
		}
		raw = append(raw, listed...)
	}

	return cas.NormalizeAll(raw), nil
}
