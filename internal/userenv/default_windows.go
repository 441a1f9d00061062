//go:build windows

package userenv

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

// Registry stores variables under HKCU\Environment, the per-user
// environment new processes inherit.
type Registry struct{}

var _ Store = Registry{}

func (Registry) Location() string { return `HKEY_CURRENT_USER\Environment` }

func (Registry) Persist(key, value string) error {
	k, err := registry.OpenKey(registry.CURRENT_USER, "Environment", registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open user environment: %w", err)
	}
	defer k.Close()
	if err := k.SetStringValue(key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	broadcastChange()
	return nil
}

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	procSendMessageTimeout = user32.NewProc("SendMessageTimeoutW")
)

const (
	hwndBroadcast    = 0xffff
	wmSettingChange  = 0x001a
	smtoAbortIfHung  = 0x0002
	broadcastTimeout = 5000
)

// broadcastChange tells running shells the environment changed. Failure
// only means a new terminal is needed, as with any environment change.
func broadcastChange() {
	if procSendMessageTimeout.Find() != nil {
		return
	}
	param, err := windows.UTF16PtrFromString("Environment")
	if err != nil {
		return
	}
	procSendMessageTimeout.Call( //nolint:errcheck
		hwndBroadcast,
		wmSettingChange,
		0,
		uintptr(unsafe.Pointer(param)),
		smtoAbortIfHung,
		broadcastTimeout,
		0,
	)
}

// Default returns the registry store.
func Default() (Store, error) {
	return Registry{}, nil
}
