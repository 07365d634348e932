package security

import (
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	t.Parallel()

	secret := "test-secret"
	token, err := GenerateSessionToken("u1", "org1", "photographer", secret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateJWT(token, secret)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	session, err := SessionFromClaims(claims)
	if err != nil {
		t.Fatalf("session from claims: %v", err)
	}
	if session.UserID != "u1" || session.TenantID != "org1" || session.Role != "photographer" {
		t.Fatalf("session = %+v", session)
	}
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := GenerateSessionToken("u1", "org1", "", "secret-a", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ValidateJWT(token, "secret-b"); err == nil {
		t.Fatal("token validated with wrong secret")
	}
}

func TestValidateJWTRejectsExpired(t *testing.T) {
	t.Parallel()

	token, err := GenerateSessionToken("u1", "org1", "", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ValidateJWT(token, "secret"); err == nil {
		t.Fatal("expired token validated")
	}
}

func TestSessionFromClaimsMissingIdentity(t *testing.T) {
	t.Parallel()

	token, err := GenerateSessionToken("", "org1", "", "secret", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ValidateJWT(token, "secret")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if _, err := SessionFromClaims(claims); err == nil {
		t.Fatal("expected error for missing user id")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	key, err := GenerateSecureKey(64)
	if err != nil {
		t.Fatalf("key: %v", err)
	}

	encrypted, err := Encrypt("archive-token-xyz", key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if encrypted == "archive-token-xyz" {
		t.Fatal("ciphertext equals plaintext")
	}

	decrypted, err := Decrypt(encrypted, key)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if decrypted != "archive-token-xyz" {
		t.Fatalf("round trip = %q", decrypted)
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	t.Parallel()

	encrypted, err := Encrypt("secret", "0123456789abcdef")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := Decrypt(encrypted, "fedcba9876543210"); err == nil {
		t.Fatal("decrypt succeeded with wrong key")
	}
}

func TestAdminTokenHashing(t *testing.T) {
	t.Parallel()

	hash, err := HashAdminToken("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyAdminToken("hunter2", hash) {
		t.Fatal("correct token rejected")
	}
	if VerifyAdminToken("wrong", hash) {
		t.Fatal("wrong token accepted")
	}
	if VerifyAdminToken("", hash) || VerifyAdminToken("hunter2", "") {
		t.Fatal("empty inputs accepted")
	}
}

func TestGenerateULIDUnique(t *testing.T) {
	t.Parallel()

	a, b := GenerateULID(), GenerateULID()
	if a == b {
		t.Fatal("consecutive ULIDs collide")
	}
	if len(a) != 26 {
		t.Fatalf("ulid length = %d", len(a))
	}
}
