//go:build !windows

package userenv

import "github.com/broadsword-framework/broadsword/internal/env"

// Default returns the dotenv file under the user config directory.
func Default() (Store, error) {
	path, err := env.UserEnvFile()
	if err != nil {
		return nil, err
	}
	return File{Path: path}, nil
}
