package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// DiskUsageBytes returns the total size in bytes of the given paths.
// Each path may be a file or a directory (recursively summed).
// Missing paths are skipped; other errors are returned.
func DiskUsageBytes(paths ...string) (int64, error) {
	usage, err := DiskUsage(paths...)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, n := range usage {
		total += n
	}
	return total, nil
}

// DiskUsage returns the size of each existing path, keyed by path.
func DiskUsage(paths ...string) (map[string]int64, error) {
	usage := make(map[string]int64, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		if !info.IsDir() {
			usage[p] = info.Size()
			continue
		}
		var total int64
		err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			total += fi.Size()
			return nil
		})
		if err != nil {
			return nil, err
		}
		usage[p] = total
	}
	return usage, nil
}
