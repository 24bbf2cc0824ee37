package validation

import (
	"errors"
	"testing"
)

func TestValidateAddrRejectsEmptyAndMalformed(t *testing.T) {
	if err := ValidateAddr(""); !errors.Is(err, ErrInvalidAddr) {
		t.Fatalf("ValidateAddr(\"\") = %v, want ErrInvalidAddr", err)
	}
	if err := ValidateAddr("not-an-address"); !errors.Is(err, ErrInvalidAddr) {
		t.Fatalf("ValidateAddr(malformed) = %v, want ErrInvalidAddr", err)
	}
	if err := ValidateAddr("127.0.0.1:62137"); err != nil {
		t.Fatalf("ValidateAddr(valid) = %v, want nil", err)
	}
}

func TestValidateFilePathRequiresExistenceWhenAsked(t *testing.T) {
	if err := ValidateFilePath(t.TempDir(), true); err != nil {
		t.Fatalf("ValidateFilePath(existing dir) = %v, want nil", err)
	}
	if err := ValidateFilePath("/does/not/exist/at/all", true); !errors.Is(err, ErrPathNotExists) {
		t.Fatalf("ValidateFilePath(missing) = %v, want ErrPathNotExists", err)
	}
	if err := ValidateFilePath("", true); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("ValidateFilePath(\"\") = %v, want ErrInvalidPath", err)
	}
}

func TestValidateRangeIntBounds(t *testing.T) {
	if err := ValidateRangeInt(50, 1, 100); err != nil {
		t.Fatalf("ValidateRangeInt(in range) = %v, want nil", err)
	}
	if err := ValidateRangeInt(0, 1, 100); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("ValidateRangeInt(below) = %v, want ErrOutOfRange", err)
	}
	if err := ValidateRangeInt(101, 1, 100); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("ValidateRangeInt(above) = %v, want ErrOutOfRange", err)
	}
}

func TestValidateRoomIDRejectsWrongLength(t *testing.T) {
	if err := ValidateRoomID("ABC"); !errors.Is(err, ErrInvalidRoomID) {
		t.Fatalf("ValidateRoomID(short) = %v, want ErrInvalidRoomID", err)
	}
	if err := ValidateRoomID("ABCDEF"); err != nil {
		t.Fatalf("ValidateRoomID(valid) = %v, want nil", err)
	}
}

func TestValidateNicknameRejectsEmptyTooLongAndControlChars(t *testing.T) {
	if err := ValidateNickname("   "); !errors.Is(err, ErrInvalidNickname) {
		t.Fatalf("ValidateNickname(blank) = %v, want ErrInvalidNickname", err)
	}
	if err := ValidateNickname("quill"); err != nil {
		t.Fatalf("ValidateNickname(valid) = %v, want nil", err)
	}
	long := make([]byte, MaxNicknameLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if err := ValidateNickname(string(long)); !errors.Is(err, ErrInvalidNickname) {
		t.Fatalf("ValidateNickname(too long) = %v, want ErrInvalidNickname", err)
	}
	if err := ValidateNickname("quill\x00"); !errors.Is(err, ErrInvalidNickname) {
		t.Fatalf("ValidateNickname(control char) = %v, want ErrInvalidNickname", err)
	}
}
