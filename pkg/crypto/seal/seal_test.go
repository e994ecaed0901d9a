package seal

import (
	"bytes"
	"errors"
	"testing"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func TestNew_KeyTooShort(t *testing.T) {
	if _, err := New([]byte("short")); !errors.Is(err, ErrKeyTooShort) {
		t.Errorf("New() error = %v, want ErrKeyTooShort", err)
	}
}

func TestSealOpen(t *testing.T) {
	s, err := New(secret)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name      string
		plaintext []byte
		aad       []byte
	}{
		{"empty", []byte{}, nil},
		{"document", []byte(`[{"accountNumber":101}]`), nil},
		{"with aad", []byte("balances"), []byte("accounts.json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := s.Seal(tt.plaintext, tt.aad)
			if err != nil {
				t.Fatalf("Seal() error = %v", err)
			}
			if !IsSealed(sealed) {
				t.Error("sealed output lacks magic")
			}
			if len(sealed) <= HeaderSize {
				t.Errorf("sealed length = %d, want > %d", len(sealed), HeaderSize)
			}

			opened, err := s.Open(sealed, tt.aad)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if !bytes.Equal(opened, tt.plaintext) {
				t.Errorf("Open() = %q, want %q", opened, tt.plaintext)
			}
		})
	}
}

func TestSeal_FreshSaltAndNonce(t *testing.T) {
	s, _ := New(secret)
	a, _ := s.Seal([]byte("same"), nil)
	b, _ := s.Seal([]byte("same"), nil)
	if bytes.Equal(a, b) {
		t.Error("two seals of the same plaintext should differ")
	}
}

func TestOpen_Failures(t *testing.T) {
	s, _ := New(secret)
	sealed, err := s.Seal([]byte("payload"), []byte("aad"))
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	other, _ := New([]byte("fedcba9876543210fedcba9876543210"))
	if _, err := other.Open(sealed, []byte("aad")); !errors.Is(err, ErrOpenFailed) {
		t.Errorf("wrong key error = %v, want ErrOpenFailed", err)
	}

	if _, err := s.Open(sealed, []byte("other")); !errors.Is(err, ErrOpenFailed) {
		t.Errorf("wrong aad error = %v, want ErrOpenFailed", err)
	}

	tampered := bytes.Clone(sealed)
	tampered[len(tampered)-1] ^= 0xff
	if _, err := s.Open(tampered, []byte("aad")); !errors.Is(err, ErrOpenFailed) {
		t.Errorf("tampered error = %v, want ErrOpenFailed", err)
	}

	if _, err := s.Open([]byte(`[{"plain":true}]`), nil); !errors.Is(err, ErrMalformed) {
		t.Errorf("plain document error = %v, want ErrMalformed", err)
	}
	if _, err := s.Open(Magic, nil); !errors.Is(err, ErrMalformed) {
		t.Errorf("truncated error = %v, want ErrMalformed", err)
	}
}
