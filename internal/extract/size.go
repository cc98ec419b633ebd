package extract

import "fmt"

const (
	kib = 1024
	mib = 1024 * kib
	gib = 1024 * mib
)

// DirSize sums the byte length of every regular file under root, skipping
// symlinks and version-control internals.
func DirSize(root string) (int64, error) {
	files, err := walkFiles(root)
	if err != nil {
		return 0, err
	}
	return totalSize(files), nil
}

func totalSize(files []fileEntry) int64 {
	var total int64
	for _, f := range files {
		total += f.size
	}
	return total
}

// FormatSize renders a byte count using binary units with two decimals.
func FormatSize(n int64) string {
	switch {
	case n < kib:
		return fmt.Sprintf("%d Bytes", n)
	case n < mib:
		return fmt.Sprintf("%.2f KB", float64(n)/kib)
	case n < gib:
		return fmt.Sprintf("%.2f MB", float64(n)/mib)
	default:
		return fmt.Sprintf("%.2f GB", float64(n)/gib)
	}
}
