//go:build windows

package probe

import (
	"path/filepath"

	"golang.org/x/sys/windows/registry"
)

// steamRoot reads the Steam install root from HKCU\Software\Valve\Steam.
func steamRoot() (string, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, `Software\Valve\Steam`, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer key.Close()

	path, _, err := key.GetStringValue("SteamPath")
	if err != nil {
		return "", err
	}
	return filepath.FromSlash(path), nil
}
