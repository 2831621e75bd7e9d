package epub

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// PathTooLongError reports an output path that exceeds the platform limits
// even after shortening the file name.
type PathTooLongError struct {
	Path    string
	MaxName int
	MaxPath int
}

func (e *PathTooLongError) Error() string {
	return fmt.Sprintf("file path %q too long and cannot be shortened (NAME_MAX=%d, PATH_MAX=%d)",
		e.Path, e.MaxName, e.MaxPath)
}

// minStemLen is the smallest shortened file name stem that stays
// recognizable.
const minStemLen = 15

func platformLimits(goos string) (maxName, maxPath int, known bool) {
	switch goos {
	case "windows":
		return 255, 255, true
	case "darwin":
		return 255, 1024, true
	case "linux":
		return 255, 4096, true
	default:
		return 0, 0, false
	}
}

// OutputPath is where the EPUB for fileName goes: the output directory,
// the subfolder when set, and the file name with the .epub extension,
// shortened to fit the platform path limits. fileName comes out of the
// naming pipeline already sanitized.
func OutputPath(outputDir, subfolder, fileName string) (string, error) {
	dir := outputDir
	if subfolder != "" {
		dir = filepath.Join(outputDir, subfolder)
	}
	const ext = ".epub"
	return ShortenPath(filepath.Join(dir, fileName+ext), ext)
}

// ShortenPath fits path under the platform file name and path length
// limits by cutting characters out of the middle of the file name, keeping
// its start, end and extension. Long titles overflow NAME_MAX on every
// major platform once the naming pipeline stacks series, volume and part
// onto them. Platforms with no known limits get the path back unchanged;
// a path that cannot keep a recognizable stem fails with
// *PathTooLongError.
func ShortenPath(path, ext string) (string, error) {
	return shortenPath(path, ext, runtime.GOOS)
}

func shortenPath(path, ext, goos string) (string, error) {
	maxName, maxPath, known := platformLimits(goos)
	if !known {
		return path, nil
	}

	dir, name := filepath.Dir(path), filepath.Base(path)
	if len(path) < maxPath && len(name) < maxName {
		return path, nil
	}

	// Budget for the stem: whichever of NAME_MAX and the path room left
	// after the directory, separator and extension is tighter.
	budget := maxName - len(ext)
	if room := maxPath - len(dir) - 1 - len(ext); room < budget {
		budget = room
	}
	if budget < minStemLen {
		return "", &PathTooLongError{Path: path, MaxName: maxName, MaxPath: maxPath}
	}

	// Cut whole runes from the center until the stem fits; the limits are
	// byte counts on every platform that has them.
	stem := []rune(strings.TrimSuffix(name, ext))
	for len(stem) > 0 && len(string(stem)) > budget {
		mid := len(stem) / 2
		stem = append(stem[:mid], stem[mid+1:]...)
	}
	return filepath.Join(dir, string(stem)+ext), nil
}
