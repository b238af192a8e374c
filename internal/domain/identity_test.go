package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name        string
		phone       string
		countryCode string
		expected    string
	}{
		{name: "local number gets default code", phone: "9990001111", expected: "+919990001111"},
		{name: "already canonical", phone: "+919990001111", expected: "+919990001111"},
		{name: "formatting is stripped", phone: "(999) 000-1111", expected: "+919990001111"},
		{name: "custom country code", phone: "5550001111", countryCode: "+1", expected: "+15550001111"},
		{name: "no digits", phone: "alice", expected: ""},
		{name: "empty", phone: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhone(tt.phone, tt.countryCode))
		})
	}
}

func TestNormalizeEmailAndUsername(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.com "))
	assert.Equal(t, "alice", NormalizeUsername(" Alice"))
}

func TestLooksLikePhone(t *testing.T) {
	assert.True(t, LooksLikePhone("+91 999-000 1111"))
	assert.True(t, LooksLikePhone("(999) 000.1111"))
	assert.False(t, LooksLikePhone("alice1"))
	assert.False(t, LooksLikePhone("a1@x.com"))
	assert.False(t, LooksLikePhone("+-()"))
	assert.False(t, LooksLikePhone(""))
}
