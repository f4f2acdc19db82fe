//go:build !unix

package server

import "syscall"

// SO_REUSEADDR on windows lets another process steal a bound port, which is
// not what a restart needs. Windows already allows rebinding over TIME_WAIT.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	return nil
}
