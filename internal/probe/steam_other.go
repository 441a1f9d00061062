//go:build !windows

package probe

func steamRoot() (string, error) {
	return "", errNoRegistry
}
