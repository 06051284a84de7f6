package auth

import (
	"errors"
	"testing"
)

func TestValidatePIN(t *testing.T) {
	valid := []string{"0000", "1234", "9999"}
	for _, pin := range valid {
		if err := ValidatePIN(pin); err != nil {
			t.Errorf("ValidatePIN(%q) = %v, want nil", pin, err)
		}
	}

	invalid := []string{"", "123", "12345", "12a4", "12.4", "-123"}
	for _, pin := range invalid {
		if err := ValidatePIN(pin); !errors.Is(err, ErrInvalidPIN) {
			t.Errorf("ValidatePIN(%q) = %v, want ErrInvalidPIN", pin, err)
		}
	}
}

func TestHashAndCheckPIN(t *testing.T) {
	hash, err := HashPIN("1234")
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	if hash == "1234" {
		t.Fatal("pin must not be stored in the clear")
	}

	if !CheckPIN(hash, "1234") {
		t.Error("correct pin rejected")
	}
	if CheckPIN(hash, "4321") {
		t.Error("wrong pin accepted")
	}
}

func TestHashPINRejectsInvalid(t *testing.T) {
	if _, err := HashPIN("12"); !errors.Is(err, ErrInvalidPIN) {
		t.Fatalf("err = %v, want ErrInvalidPIN", err)
	}
}
