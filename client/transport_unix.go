//go:build unix

package client

import (
	"errors"

	"golang.org/x/sys/unix"
)

// interrupted reports a wait cut short by a signal. The read is retried.
func interrupted(err error) bool {
	return errors.Is(err, unix.EINTR)
}
