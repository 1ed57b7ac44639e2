package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/coursetable/ferry/internal/pkg/apperrors"
	"golang.org/x/crypto/bcrypt"
)

func testService(exp time.Duration) *JWTService {
	return NewJWTService(JWTConfig{SecretKey: "test-secret", AccessTokenExp: exp, TokenIssuer: "ferry"})
}

func TestTokenRoundTrip(t *testing.T) {
	s := testService(time.Hour)
	token, expiresIn, err := s.GenerateToken("ops")
	if err != nil {
		t.Fatalf("GenerateToken: %s", err)
	}
	if expiresIn != 3600 {
		t.Errorf("Expected 3600s lifetime but actual=%v", expiresIn)
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %s", err)
	}
	if claims.Operator != "ops" || claims.Subject != "ops" || claims.Scope != ScopeRuns {
		t.Errorf("Unexpected claims: %+v", claims)
	}
}

func TestTokenRejections(t *testing.T) {
	s := testService(time.Hour)
	token, _, err := s.GenerateToken("ops")
	if err != nil {
		t.Fatalf("GenerateToken: %s", err)
	}
	expired, _, err := testService(-time.Minute).GenerateToken("ops")
	if err != nil {
		t.Fatalf("GenerateToken: %s", err)
	}
	otherIssuer, _, err := NewJWTService(JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Hour, TokenIssuer: "other"}).GenerateToken("ops")
	if err != nil {
		t.Fatalf("GenerateToken: %s", err)
	}
	otherSecret, _, err := NewJWTService(JWTConfig{SecretKey: "nope", AccessTokenExp: time.Hour, TokenIssuer: "ferry"}).GenerateToken("ops")
	if err != nil {
		t.Fatalf("GenerateToken: %s", err)
	}

	testCases := []struct {
		token    string
		expected error
	}{
		{token: "", expected: apperrors.ErrTokenInvalid},
		{token: "not-a-token", expected: apperrors.ErrTokenInvalid},
		{token: token + "x", expected: apperrors.ErrTokenInvalid},
		{token: expired, expected: apperrors.ErrTokenExpired},
		{token: otherIssuer, expected: apperrors.ErrTokenInvalid},
		{token: otherSecret, expected: apperrors.ErrTokenInvalid},
	}
	for i, testCase := range testCases {
		if _, err := s.ValidateToken(testCase.token); !errors.Is(err, testCase.expected) {
			t.Errorf("[i=%v] Expected %v but actual=%v", i, testCase.expected, err)
		}
	}

	if _, _, err := s.GenerateToken(" "); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("Expected a blank operator to be rejected but actual=%v", err)
	}
}

func TestExtractBearerToken(t *testing.T) {
	testCases := []struct {
		header   string
		expected string
		ok       bool
	}{
		{header: "Bearer a.b.c", expected: "a.b.c", ok: true},
		{header: "  Bearer a.b.c ", expected: "a.b.c", ok: true},
		{header: "a.b.c", expected: "a.b.c", ok: true},
		{header: "Basic dXNlcg==", ok: false},
		{header: "", ok: false},
	}
	for i, testCase := range testCases {
		actual, err := ExtractBearerToken(testCase.header)
		if (err == nil) != testCase.ok || actual != testCase.expected {
			t.Errorf("[i=%v] Expected (%q, ok=%v) but actual=(%q, %v)", i, testCase.expected, testCase.ok, actual, err)
		}
	}
}

func TestCheckPassphrase(t *testing.T) {
	// a low cost keeps the test fast; CheckPassphrase reads the cost from the hash
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword: %s", err)
	}

	if err := CheckPassphrase(string(hash), "correct horse"); err != nil {
		t.Errorf("Expected the passphrase to match but actual=%v", err)
	}
	if err := CheckPassphrase(string(hash), "battery staple"); !errors.Is(err, apperrors.ErrInvalidPassphrase) {
		t.Errorf("Expected ErrInvalidPassphrase but actual=%v", err)
	}
	if err := CheckPassphrase("", "anything"); err != nil {
		t.Errorf("Expected an empty hash to disable the check but actual=%v", err)
	}
	if _, err := HashPassphrase(""); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("Expected an empty passphrase to be rejected but actual=%v", err)
	}
}
