// Package extract pulls plain text out of uploaded files. PDF extraction
// shells out to poppler (pdftotext, pdfinfo, pdftoppm) with a tesseract OCR
// pass for scanned documents; DOCX goes through pandoc. The tools are
// LookPath-gated so a missing binary surfaces as unavailable, not a crash.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	dErrors "lexdraft/pkg/domain-errors"
)

// Result is the extracted text and, for PDFs, the page count.
type Result struct {
	Text      string
	PageCount int
}

// Extractor converts uploaded bytes to plain text.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract dispatches on content type. Unknown types are rejected rather
// than guessed at.
func (e *Extractor) Extract(ctx context.Context, data []byte, contentType string) (*Result, error) {
	switch contentType {
	case "application/pdf":
		return e.extractPDF(ctx, data)
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return e.extractDOCX(ctx, data)
	case "text/plain", "text/markdown":
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, dErrors.New(dErrors.CodeUnprocessable, "file contains no text")
		}
		return &Result{Text: text}, nil
	default:
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unsupported content type %q", contentType)
	}
}

// extractPDF runs pdftotext first and falls back to OCR when the PDF has no
// text layer. Empty text after both passes is an error, matching the
// upload pipeline's contract that version 1 always has content.
func (e *Extractor) extractPDF(ctx context.Context, data []byte) (*Result, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "pdftotext is not installed")
	}

	dir, err := os.MkdirTemp("", "lexdraft-extract-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	pdfPath := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	pageCount, err := pdfPageCount(ctx, pdfPath)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnprocessable, "file is not a readable PDF")
	}

	out, err := runTool(ctx, "pdftotext", pdfPath, "-")
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnprocessable, "pdf text extraction failed")
	}

	text := strings.TrimSpace(out)
	if text == "" {
		text, err = e.ocrPDF(ctx, dir, pdfPath)
		if err != nil {
			return nil, err
		}
	}
	if text == "" {
		return nil, dErrors.New(dErrors.CodeUnprocessable, "no text could be extracted from PDF")
	}
	return &Result{Text: text, PageCount: pageCount}, nil
}

// ocrPDF rasterizes pages with pdftoppm and runs tesseract over each image.
func (e *Extractor) ocrPDF(ctx context.Context, dir, pdfPath string) (string, error) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		return "", dErrors.New(dErrors.CodeUnavailable, "pdftoppm is not installed (required for OCR)")
	}
	if _, err := exec.LookPath("tesseract"); err != nil {
		return "", dErrors.New(dErrors.CodeUnavailable, "tesseract is not installed (required for OCR)")
	}

	prefix := filepath.Join(dir, "page")
	if _, err := runTool(ctx, "pdftoppm", "-png", "-r", "300", pdfPath, prefix); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnprocessable, "pdf rasterization failed")
	}

	images, err := filepath.Glob(prefix + "*.png")
	if err != nil || len(images) == 0 {
		return "", dErrors.New(dErrors.CodeUnprocessable, "pdf produced no pages to OCR")
	}
	sort.Strings(images)

	var text strings.Builder
	for _, image := range images {
		out, err := runTool(ctx, "tesseract", image, "-")
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeUnprocessable, "ocr failed")
		}
		text.WriteString(out)
		text.WriteString("\n")
	}
	return strings.TrimSpace(text.String()), nil
}

func (e *Extractor) extractDOCX(ctx context.Context, data []byte) (*Result, error) {
	if _, err := exec.LookPath("pandoc"); err != nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "pandoc is not installed")
	}

	cmd := exec.CommandContext(ctx, "pandoc", "-f", "docx", "-t", "plain", "-o", "-")
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, dErrors.Newf(dErrors.CodeUnprocessable, "docx extraction failed: %s", strings.TrimSpace(stderr.String()))
	}
	text := strings.TrimSpace(string(out))
	if text == "" {
		return nil, dErrors.New(dErrors.CodeUnprocessable, "file contains no text")
	}
	return &Result{Text: text}, nil
}

// pdfPageCount parses the Pages line from pdfinfo output.
func pdfPageCount(ctx context.Context, pdfPath string) (int, error) {
	if _, err := exec.LookPath("pdfinfo"); err != nil {
		return 0, fmt.Errorf("pdfinfo is not installed")
	}
	out, err := runTool(ctx, "pdfinfo", pdfPath)
	if err != nil {
		return 0, err
	}
	for _, line := range strings.Split(out, "\n") {
		after, ok := strings.CutPrefix(line, "Pages:")
		if !ok {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(after))
		if err != nil {
			return 0, fmt.Errorf("parse page count %q: %w", after, err)
		}
		return count, nil
	}
	return 0, fmt.Errorf("pdfinfo output missing page count")
}

func runTool(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%s: %s", name, msg)
	}
	return stdout.String(), nil
}
