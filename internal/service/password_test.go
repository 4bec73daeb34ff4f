package service

import (
	"strings"
	"testing"
)

func TestCheckPassword(t *testing.T) {
	bcryptHash, err := HashPassword("password")
	if err != nil {
		t.Fatal(err)
	}
	// sha256("password")
	const legacyHash = "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"

	tests := []struct {
		name       string
		hash       string
		password   string
		wantOK     bool
		wantLegacy bool
	}{
		{"bcrypt match", bcryptHash, "password", true, false},
		{"bcrypt mismatch", bcryptHash, "Password", false, false},
		{"legacy match", legacyHash, "password", true, true},
		{"legacy uppercase hex", strings.ToUpper(legacyHash), "password", true, true},
		{"legacy mismatch", legacyHash, "secret", false, true},
		{"garbage hash", "not-a-hash", "password", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, legacy := checkPassword(tt.hash, tt.password)
			if ok != tt.wantOK || legacy != tt.wantLegacy {
				t.Errorf("checkPassword() = %v, %v, want %v, %v", ok, legacy, tt.wantOK, tt.wantLegacy)
			}
		})
	}
}
