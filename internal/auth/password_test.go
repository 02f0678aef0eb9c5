package auth

import "testing"

func TestPasswordMode_Plaintext(t *testing.T) {
	m, err := ParsePasswordMode("")
	if err != nil || m != PasswordPlaintext {
		t.Fatalf("default mode: %q %v", m, err)
	}
	if !m.Match("secret", "secret") {
		t.Fatalf("expected exact match")
	}
	for _, bad := range []string{"Secret", "secret ", "", "secre"} {
		if m.Match("secret", bad) {
			t.Fatalf("unexpected match for %q", bad)
		}
	}
	stored, err := m.Hash("secret")
	if err != nil || stored != "secret" {
		t.Fatalf("plaintext hash should be identity: %q %v", stored, err)
	}
}

func TestPasswordMode_Bcrypt(t *testing.T) {
	m, err := ParsePasswordMode("bcrypt")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	hash, err := m.Hash("secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "secret" {
		t.Fatalf("expected a hash")
	}
	if !m.Match(hash, "secret") {
		t.Fatalf("expected hash to match")
	}
	if m.Match(hash, "wrong") {
		t.Fatalf("unexpected match")
	}
}

func TestParsePasswordMode_Unknown(t *testing.T) {
	if _, err := ParsePasswordMode("md5"); err == nil {
		t.Fatalf("expected error")
	}
}
