package extract

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	sinkDirPerm  = 0o750
	sinkFilePerm = 0o600
)

// fileSink writes entries under destDir. Content goes to a temporary file in
// the target directory and is renamed into place on commit, so a partially
// written file is never visible at its final path.
type fileSink struct {
	destDir   string
	overwrite bool
}

func newFileSink(destDir string, overwrite bool) *fileSink {
	return &fileSink{destDir: destDir, overwrite: overwrite}
}

// destPath returns the absolute destination of an entry name.
func (s *fileSink) destPath(name string) string {
	return filepath.Join(s.destDir, filepath.FromSlash(name))
}

// shouldWrite returns false if the file already exists and overwrite is disabled.
func (s *fileSink) shouldWrite(name string) bool {
	if s.overwrite {
		return true
	}
	_, err := os.Stat(s.destPath(name))
	return os.IsNotExist(err)
}

// writer returns a committer staging the content of name.
func (s *fileSink) writer(name string, mode fs.FileMode) (*committer, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "extract", Path: name, Err: fs.ErrInvalid}
	}
	destRel := filepath.FromSlash(name)

	root, err := os.OpenRoot(s.destDir)
	if err != nil {
		return nil, fmt.Errorf("open destination root %s: %w", s.destDir, err)
	}
	if err := root.MkdirAll(filepath.Dir(destRel), sinkDirPerm); err != nil {
		_ = root.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("create directory for %s: %w", name, err)
	}

	tempFile, tempRel, err := createTempFile(root, filepath.Dir(destRel), ".jarcache-")
	if err != nil {
		_ = root.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	return &committer{
		destPath: s.destPath(name),
		destRel:  destRel,
		mode:     mode.Perm(),
		tempFile: tempFile,
		tempRel:  tempRel,
		root:     root,
	}, nil
}

// committer writes to a temp file and renames it on Commit.
type committer struct {
	destPath string
	destRel  string
	mode     fs.FileMode
	tempFile *os.File
	tempRel  string
	root     *os.Root
}

// Write implements io.Writer.
func (c *committer) Write(p []byte) (int, error) {
	return c.tempFile.Write(p)
}

// Commit closes the temp file, applies the entry mode, and renames it to the
// final path.
func (c *committer) Commit() error {
	if err := c.tempFile.Close(); err != nil {
		c.abort()
		return fmt.Errorf("close temp file: %w", err)
	}

	if c.mode != 0 {
		if err := c.root.Chmod(c.tempRel, c.mode); err != nil {
			c.abort()
			return fmt.Errorf("chmod: %w", err)
		}
	}

	if err := c.root.Rename(c.tempRel, c.destRel); err != nil {
		c.abort()
		return fmt.Errorf("rename to %s: %w", c.destPath, err)
	}

	_ = c.root.Close() //nolint:errcheck // best-effort cleanup
	return nil
}

// Discard closes and removes the temp file.
func (c *committer) Discard() error {
	_ = c.tempFile.Close() //nolint:errcheck // we're cleaning up
	if err := c.root.Remove(c.tempRel); err != nil {
		_ = c.root.Close() //nolint:errcheck // best-effort cleanup
		return err
	}
	return c.root.Close()
}

func (c *committer) abort() {
	_ = c.root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
	_ = c.root.Close()           //nolint:errcheck // best-effort cleanup
}

func createTempFile(root *os.Root, dir, prefix string) (*os.File, string, error) {
	const attempts = 10
	for range attempts {
		name, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		relPath := filepath.Join(dir, prefix+name)
		f, err := root.OpenFile(relPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, sinkFilePerm)
		if err == nil {
			return f, relPath, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", errors.New("create temp file: exhausted retries")
}

func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
