package services

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// PromptConfirmer asks on a terminal. Anything but "y" or "yes" rejects.
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (c PromptConfirmer) Confirm(ctx context.Context, p MatchPrompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fmt.Fprintf(c.Out, "Found potential match with %.0f%% confidence:\n", p.Entry.Confidence*100)
	fmt.Fprintf(c.Out, "  File: %s\n", p.Entry.StoredRelativePath)
	fmt.Fprintf(c.Out, "  Match method: %s\n", p.Entry.MatchMethod)
	fmt.Fprintf(c.Out, "  Searching for: %s\n", p.Identifier)
	fmt.Fprint(c.Out, "\nIs this the correct EPUB? [y/N]: ")

	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
