package adapters

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"chem-datapackager/internal/ports"
)

// CIFSourceAdapter reads CIF files and discovers them below a directory.
type CIFSourceAdapter struct{}

func NewCIFSourceAdapter() CIFSourceAdapter {
	return CIFSourceAdapter{}
}

func (a CIFSourceAdapter) ReadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("cif file not found").
			WithCause(err)
	}
	defer file.Close()
	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read cif file").
			WithCause(err)
	}
	return lines, nil
}

// FindCIFFiles walks root for *.cif files, skipping VCS and build output
// directories. A root naming a .cif file yields just that file.
func (a CIFSourceAdapter) FindCIFFiles(root string) ([]string, error) {
	var paths []string
	if root == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("cif search root is empty")
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && shouldSkipSourceDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".cif") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to scan for cif files").
			WithCause(err)
	}
	return paths, nil
}

func shouldSkipSourceDir(name string) bool {
	switch name {
	case ".git", ".svn", ".hg", "node_modules", "__pycache__":
		return true
	default:
		return strings.HasPrefix(name, ".") && name != "."
	}
}

var _ ports.CIFSourcePort = CIFSourceAdapter{}
