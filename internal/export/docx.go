package export

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	dErrors "lexdraft/pkg/domain-errors"
)

// renderDOCX converts HTML to DOCX via pandoc. Pandoc keeps ins/del
// markup as tracked-style formatting in the output document.
func renderDOCX(ctx context.Context, html string) ([]byte, error) {
	if _, err := exec.LookPath("pandoc"); err != nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "docx export requires pandoc")
	}

	cmd := exec.CommandContext(ctx, "pandoc",
		"-f", "html",
		"-t", "docx",
		"--standalone",
		"-o", "-",
	)
	cmd.Stdin = strings.NewReader(html)

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("pandoc: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("pandoc: %w", err)
	}
	return output, nil
}
