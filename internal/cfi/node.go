package cfi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/mrlokans/boox2zotero/internal/entities"
)

// NodeConfig locates the epub.js based CFI generator script.
type NodeConfig struct {
	// Binary is the Node.js executable. Default: "node"
	Binary string

	// Script is the generator script path
	Script string

	// Timeout bounds a whole batch. Default: 30s
	Timeout time.Duration
}

func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		Binary:  "node",
		Timeout: 30 * time.Second,
	}
}

// NodeResolver runs the generator script once per batch:
//
//	<binary> <script> <epub> --batch --output json
//
// Texts are written to stdin as a JSON array. The script prints a JSON
// array with one element per text: a location object, null, or an object
// carrying an "error" field.
type NodeResolver struct {
	config NodeConfig
	logger *slog.Logger
}

func NewNodeResolver(cfg NodeConfig, logger *slog.Logger) *NodeResolver {
	if cfg.Binary == "" {
		cfg.Binary = "node"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NodeResolver{config: cfg, logger: logger}
}

type batchResult struct {
	CFI        string `json:"cfi"`
	SpineIndex int    `json:"spineIndex"`
	CharOffset int    `json:"charOffset"`
	Error      string `json:"error"`
}

func (r *NodeResolver) ResolveBatch(ctx context.Context, epubPath string, texts []string) ([]*entities.Location, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if r.config.Script == "" {
		return nil, fmt.Errorf("%w: generator script not configured", ErrBatchResolution)
	}

	input, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode texts: %v", ErrBatchResolution, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.config.Binary, r.config.Script, epubPath, "--batch", "--output", "json")
	cmd.Stdin = bytes.NewReader(input)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err = cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrBatchResolution, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: generator exited with code %d: %s",
				ErrBatchResolution, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("%w: failed to run generator: %v", ErrBatchResolution, err)
	}

	r.logger.Debug("resolved batch", "texts", len(texts), "elapsed", time.Since(started))
	return r.decode(stdout.Bytes(), len(texts))
}

func (r *NodeResolver) decode(output []byte, expected int) ([]*entities.Location, error) {
	var raw []*batchResult
	if err := json.Unmarshal(bytes.TrimSpace(output), &raw); err != nil {
		return nil, fmt.Errorf("%w: invalid generator output: %v", ErrBatchResolution, err)
	}
	if len(raw) != expected {
		return nil, fmt.Errorf("%w: expected %d results, got %d", ErrBatchResolution, expected, len(raw))
	}

	out := make([]*entities.Location, expected)
	for i, res := range raw {
		switch {
		case res == nil:
		case res.Error != "":
			r.logger.Debug("text not located", "index", i, "error", res.Error)
		case res.CFI == "":
		default:
			out[i] = &entities.Location{
				CFI:        res.CFI,
				SpineIndex: res.SpineIndex,
				CharOffset: res.CharOffset,
			}
		}
	}
	return out, nil
}
