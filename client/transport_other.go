//go:build !unix

package client

func interrupted(err error) bool {
	return false
}
