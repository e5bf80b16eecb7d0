//go:build windows

package privilege

import "golang.org/x/sys/windows"

// hostElevated mirrors IsUserAnAdmin: the effective token must hold an
// enabled Administrators group, which a filtered UAC token does not.
func hostElevated() (bool, error) {
	sid, err := windows.CreateWellKnownSid(windows.WinBuiltinAdministratorsSid)
	if err != nil {
		return false, err
	}
	return windows.Token(0).IsMember(sid)
}
