package system

import (
	"net"
	"strconv"
	"time"
)

// IsPortOpen checks if a TCP port accepts connections on host
func IsPortOpen(host string, port int, timeout time.Duration) bool {
	address := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
