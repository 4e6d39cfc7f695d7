package frontend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"erlfix/internal/hir"
	"erlfix/internal/source"
)

var ErrNoCommand = errors.New("no parse command configured")

// Parser produces the structural view of a file of the FileSet.
// Implementations may load headers into fs and must not be called
// concurrently on the same FileSet.
type Parser interface {
	Parse(ctx context.Context, fs *source.FileSet, file source.FileID) (*hir.Module, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(ctx context.Context, fs *source.FileSet, file source.FileID) (*hir.Module, error)

func (f ParserFunc) Parse(ctx context.Context, fs *source.FileSet, file source.FileID) (*hir.Module, error) {
	return f(ctx, fs, file)
}

func Marshal(w *Module) ([]byte, error) {
	return msgpack.Marshal(w)
}

func Unmarshal(data []byte) (*Module, error) {
	var w Module
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadTree, err)
	}
	return &w, nil
}

// LoadResolver resolves header paths against files already in fs and loads
// the rest from disk.
func LoadResolver(fs *source.FileSet) FileResolver {
	return func(path string) (source.FileID, error) {
		if id, ok := fs.GetLatest(path); ok {
			return id, nil
		}
		return fs.Load(path)
	}
}

// CommandParser runs Command with the file path appended, writes the content
// to its stdin and decodes the msgpack reply from stdout.
type CommandParser struct {
	Command []string
	Dir     string
}

func NewCommandParser(command []string, dir string) (*CommandParser, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, ErrNoCommand
	}
	return &CommandParser{Command: command, Dir: dir}, nil
}

func (p *CommandParser) Parse(ctx context.Context, fs *source.FileSet, file source.FileID) (*hir.Module, error) {
	f := fs.Get(file)
	if f == nil {
		return nil, fmt.Errorf("parse: unknown file %d", file)
	}
	args := append(append([]string(nil), p.Command[1:]...), f.Path)
	cmd := exec.CommandContext(ctx, p.Command[0], args...) //nolint:gosec // command comes from project config
	cmd.Dir = p.Dir
	cmd.Stdin = bytes.NewReader(f.Content)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", p.Command[0], err, msg)
		}
		return nil, fmt.Errorf("%s: %w", p.Command[0], err)
	}
	w, err := Unmarshal(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	m, err := Decode(w, file, LoadResolver(fs))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return m, nil
}
