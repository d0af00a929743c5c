package auth

import (
	"testing"
	"time"
)

func TestMakeAndParseToken(t *testing.T) {
	tok, err := MakeToken("secret", 42, time.Hour)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}

	uid, err := ParseToken("secret", tok)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if uid != 42 {
		t.Fatalf("uid: got %d want 42", uid)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	tok, err := MakeToken("secret", 42, time.Hour)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}
	if _, err := ParseToken("other-secret", tok); err == nil {
		t.Fatalf("token accepted with wrong secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	tok, err := MakeToken("secret", 42, -time.Minute)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}
	if _, err := ParseToken("secret", tok); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "hunter2") {
		t.Fatalf("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("wrong password accepted")
	}
}
