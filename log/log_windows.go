//go:build windows

package log

import (
	"os"
	"path/filepath"
)

// defaultDir is %LOCALAPPDATA%\sharkhost\logs.
func defaultDir() (string, error) {
	local, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(local, appName, "logs"), nil
}
