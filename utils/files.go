package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFileAtomic streams write's output into a temporary file next to filePath and
// renames it into place only when write and every flush succeeded. A failed write
// leaves no file behind. The result keeps the permissions of the file it replaces,
// new files get 0644.
func WriteFileAtomic(filePath string, write func(w io.Writer) error) (err error) {
	dir, name := filepath.Split(filePath)
	if dir == "" {
		dir = "."
	}
	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(filePath); statErr == nil {
		mode = info.Mode().Perm()
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", filePath, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	buf := bufio.NewWriter(tmp)
	if err = write(buf); err != nil {
		return err
	}
	if err = buf.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", filePath, err)
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("chmod %s: %w", filePath, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filePath, err)
	}
	if err = os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("rename into %s: %w", filePath, err)
	}
	return nil
}
