package updatelog

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ArchiveDirName is the subdirectory of the log root that holds archives.
const ArchiveDirName = "archives"

// Archive compresses the log directory at dir into
// <root>/archives/<dirname>.tar.gz and returns the archive path. The
// original directory is left in place.
func Archive(root, dirName string) (string, error) {
	src := filepath.Join(root, dirName)
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("failed to stat log directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", src)
	}

	archiveDir := filepath.Join(root, ArchiveDirName)
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivePath := filepath.Join(archiveDir, dirName+".tar.gz")
	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	err = filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(tw, file)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive logs: %w", err)
	}

	return archivePath, nil
}
