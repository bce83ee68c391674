package transport

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// ioctlInt runs an integer ioctl against the descriptor behind rc
func ioctlInt(rc syscall.RawConn, req uint) (int, error) {
	var (
		n    int
		ierr error
	)
	if err := rc.Control(func(fd uintptr) {
		n, ierr = unix.IoctlGetInt(int(fd), req)
	}); err != nil {
		return 0, err
	}
	return n, ierr
}

// pipeRoom returns the free space in the pipe behind rc
func pipeRoom(rc syscall.RawConn) (int, error) {
	var (
		room int
		ierr error
	)
	if err := rc.Control(func(fd uintptr) {
		size, err := unix.FcntlInt(fd, unix.F_GETPIPE_SZ, 0)
		if err != nil {
			ierr = err
			return
		}
		queued, err := unix.IoctlGetInt(int(fd), unix.TIOCINQ)
		if err != nil {
			ierr = err
			return
		}
		room = freeSpace(size, queued)
	}); err != nil {
		return 0, err
	}
	return room, ierr
}

// socketRoom returns the free space in a socket send buffer
func socketRoom(rc syscall.RawConn) (int, error) {
	var (
		room int
		ierr error
	)
	if err := rc.Control(func(fd uintptr) {
		size, err := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF)
		if err != nil {
			ierr = err
			return
		}
		queued, err := unix.IoctlGetInt(int(fd), unix.SIOCOUTQ)
		if err != nil {
			ierr = err
			return
		}
		room = freeSpace(size, queued)
	}); err != nil {
		return 0, err
	}
	return room, ierr
}

// peerClosed peeks at the socket without consuming or waiting. An orderly
// shutdown reads as zero bytes; EAGAIN means the peer is idle but present
func peerClosed(rc syscall.RawConn) bool {
	closed := false
	if err := rc.Control(func(fd uintptr) {
		var b [1]byte
		n, _, err := unix.Recvfrom(int(fd), b[:], unix.MSG_PEEK|unix.MSG_DONTWAIT)
		switch {
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR:
		case err != nil:
			closed = true
		case n == 0:
			closed = true
		}
	}); err != nil {
		return true
	}
	return closed
}

func freeSpace(size, queued int) int {
	if queued >= size {
		return 0
	}
	return size - queued
}
