package crypto

import (
	"errors"
	"strings"
	"testing"
)

// Requirement: hashes are argon2id PHC strings with a fresh salt each time.
func TestArgon2_Hash(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{name: "simple", password: "testPassword123"},
		{name: "empty password", password: ""},
		{name: "long password", password: strings.Repeat("a", 128)},
		{name: "unicode", password: "pässwörd-日本"},
		{name: "null byte", password: "pass\x00word"},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			a := NewArgon2()

			// Act
			hash, err := a.Hash(test.password)

			// Assert
			if err != nil {
				t.Fatalf("Hash() error = %v", err)
			}
			if !strings.HasPrefix(hash, "$argon2id$v=19$") {
				t.Errorf("Hash() = %q, want argon2id v19 prefix", hash)
			}
			if len(strings.Split(hash, "$")) != 6 {
				t.Error("Hash() should have 6 parts")
			}
			ok, err := a.Verify(test.password, hash)
			if err != nil || !ok {
				t.Errorf("Verify() = %v, %v, want true", ok, err)
			}
		})
	}
}

func TestArgon2_Hash_UniqueSalts(t *testing.T) {
	a := NewArgon2()

	hash1, _ := a.Hash("samePassword")
	hash2, _ := a.Hash("samePassword")

	if hash1 == hash2 {
		t.Error("Hash() should generate different hashes with unique salts")
	}
}

func TestArgon2_Verify(t *testing.T) {
	tests := []struct {
		name    string
		attempt string
		wantOk  bool
	}{
		{name: "correct password", attempt: "correctPassword", wantOk: true},
		{name: "wrong password", attempt: "wrongPassword"},
		{name: "case sensitive", attempt: "correctpassword"},
		{name: "extra character", attempt: "correctPassword1"},
	}

	a := NewArgon2()
	hash, _ := a.Hash("correctPassword")

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			ok, err := a.Verify(test.attempt, hash)

			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if ok != test.wantOk {
				t.Errorf("Verify() = %v, want %v", ok, test.wantOk)
			}
		})
	}
}

func TestArgon2_Verify_InvalidHashes(t *testing.T) {
	tests := []struct {
		name    string
		hash    string
		wantErr error
	}{
		{name: "empty", hash: "", wantErr: ErrInvalidHashFormat},
		{name: "too few parts", hash: "$argon2id$v=19$m=65536,t=3,p=2$salt", wantErr: ErrInvalidHashFormat},
		{name: "argon2i", hash: "$argon2i$v=19$m=65536,t=3,p=2$salt$hash", wantErr: ErrUnsupportedAlgorithm},
		{name: "old version", hash: "$argon2id$v=16$m=65536,t=3,p=2$c2FsdA$aGFzaA", wantErr: ErrUnsupportedAlgorithm},
		{name: "bad params", hash: "$argon2id$v=19$m=x,t=3,p=2$c2FsdA$aGFzaA"},
		{name: "zero parallelism", hash: "$argon2id$v=19$m=65536,t=3,p=0$c2FsdA$aGFzaA"},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			_, err := NewArgon2().Verify("password", test.hash)

			if err == nil {
				t.Fatal("Verify() should return error")
			}
			if test.wantErr != nil && !errors.Is(err, test.wantErr) {
				t.Errorf("Verify() error = %v, want %v", err, test.wantErr)
			}
		})
	}
}

// Requirement: verification reads parameters from the hash, not the verifier.
func TestArgon2_Verify_AcrossParameters(t *testing.T) {
	// Arrange
	weak := &Argon2{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}
	hash, _ := weak.Hash("test")

	// Act
	ok, err := NewArgon2().Verify("test", hash)

	// Assert
	if err != nil || !ok {
		t.Errorf("Verify() = %v, %v, want true", ok, err)
	}
	params, salt, key, _ := decodeArgon2Hash(hash)
	if params.Memory != 8*1024 || params.Iterations != 1 || params.Parallelism != 1 {
		t.Errorf("decoded params = %+v", params)
	}
	if len(salt) != 8 || len(key) != 16 {
		t.Errorf("salt/key length = %d/%d, want 8/16", len(salt), len(key))
	}
}

func FuzzArgon2_Hash(f *testing.F) {
	f.Add("")
	f.Add("testPassword123")
	f.Add("p@ssw0rd!#$%")
	f.Add("a\x00b\x00c")

	f.Fuzz(func(t *testing.T, password string) {
		a := &Argon2{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

		hash, err := a.Hash(password)
		if err != nil {
			t.Fatalf("Hash() error = %v", err)
		}
		ok, err := a.Verify(password, hash)
		if err != nil || !ok {
			t.Fatalf("Verify() = %v, %v", ok, err)
		}
	})
}
