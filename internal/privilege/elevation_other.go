//go:build !unix && !windows

package privilege

import "errors"

func hostElevated() (bool, error) {
	return false, errors.New("elevation probe not supported on this platform")
}
