package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/malexternalsc/great-expectation-LLM/pkg/apperrors"
)

// LoadPrompts reads a newline-delimited prompt file. Lines are trimmed and
// blank lines ignored. A missing file wraps apperrors.ErrInputMissing.
func LoadPrompts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: prompt file %s", apperrors.ErrInputMissing, path)
		}
		return nil, fmt.Errorf("open prompt file %s: %w", path, err)
	}
	defer f.Close()

	var prompts []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			prompts = append(prompts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read prompt file %s: %w", path, err)
	}
	return prompts, nil
}
