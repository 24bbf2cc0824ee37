package validation

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/quantarax/netcanv/internal/wire"
)

var (
	ErrInvalidPath    = errors.New("invalid file path")
	ErrPathNotExists  = errors.New("path does not exist")
	ErrInvalidAddr    = errors.New("invalid listen address")
	ErrOutOfRange     = errors.New("value out of range")
	ErrInvalidRoomID  = errors.New("invalid room code")
	ErrInvalidNickname = errors.New("invalid nickname")
)

// MaxNicknameLength bounds a peer's display name.
const MaxNicknameLength = 32

func ValidateFilePath(p string, mustExist bool) error {
	if p == "" { return ErrInvalidPath }
	if !filepath.IsAbs(p) {
		// Allow relative but normalize; disallow traversal outside working dir if needed
		p = filepath.Clean(p)
	}
	if mustExist {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("%w: %v", ErrPathNotExists, err)
		}
	}
	return nil
}

func ValidateAddr(addr string) error {
	if addr == "" { return ErrInvalidAddr }
	_, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil { return fmt.Errorf("%w: %v", ErrInvalidAddr, err) }
	return nil
}

func ValidateRangeInt(v, min, max int) error {
	if v < min || v > max {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrOutOfRange, v, min, max)
	}
	return nil
}

// ValidateRoomID checks that s is a well-formed 6-character room code
// drawn from the unambiguous alphabet.
func ValidateRoomID(s string) error {
	if _, err := wire.ParseRoomID(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRoomID, err)
	}
	return nil
}

// ValidateNickname checks that a nickname is non-empty, bounded in
// length, and free of control characters.
func ValidateNickname(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("%w: empty", ErrInvalidNickname)
	}
	if len([]rune(s)) > MaxNicknameLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidNickname, MaxNicknameLength)
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: contains control characters", ErrInvalidNickname)
		}
	}
	return nil
}
