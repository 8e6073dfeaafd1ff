package bidskit

import (
	"bufio"
	"os"
	"strings"

	"github.com/carbocation/pfx"
)

// ReadSubjectList consumes a file with one subject ID per line, skipping
// blank lines. Order is preserved: every step of the pipeline processes
// subjects in the order they are listed.
func ReadSubjectList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	var subjects []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		subject := strings.TrimSpace(scanner.Text())
		if subject == "" {
			continue
		}
		subjects = append(subjects, subject)
	}
	if err := scanner.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	return subjects, nil
}
