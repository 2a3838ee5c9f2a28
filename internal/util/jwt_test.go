package util

import (
	"net/http/httptest"
	"testing"
)

const testSecret = "test-secret"

func TestTokenPairRoundTrip(t *testing.T) {
	pair, err := GenerateTokenPair(42, testSecret)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatal("expected both tokens to be issued")
	}

	userID, err := ParseToken(pair.Access, testSecret, TokenTypeAccess)
	if err != nil {
		t.Fatalf("ParseToken(access): %v", err)
	}
	if userID != 42 {
		t.Errorf("user id = %d, want 42", userID)
	}

	if _, err := ParseToken(pair.Refresh, testSecret, TokenTypeRefresh); err != nil {
		t.Errorf("ParseToken(refresh): %v", err)
	}
}

func TestParseTokenRejectsWrongType(t *testing.T) {
	pair, err := GenerateTokenPair(7, testSecret)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	// A refresh token must not pass as an access token, and neither may
	// stand in for a verification token.
	if _, err := ParseToken(pair.Refresh, testSecret, TokenTypeAccess); err == nil {
		t.Error("refresh token accepted as access token")
	}
	if _, err := ParseToken(pair.Access, testSecret, TokenTypeVerify); err == nil {
		t.Error("access token accepted as verification token")
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateVerificationToken(3, testSecret)
	if err != nil {
		t.Fatalf("GenerateVerificationToken: %v", err)
	}

	if _, err := ParseToken(token, "other-secret", TokenTypeVerify); err == nil {
		t.Error("token accepted with wrong secret")
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing", "", ""},
		{"bearer", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"case insensitive scheme", "bearer xyz", "xyz"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", ""},
		{"no token", "Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/habits", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if got := ExtractToken(r); got != tt.want {
				t.Errorf("ExtractToken() = %q, want %q", got, tt.want)
			}
		})
	}
}
