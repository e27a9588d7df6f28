package domain

import (
	"errors"
	"testing"
)

func TestNetworkError(t *testing.T) {
	baseErr := errors.New("connection refused")

	t.Run("retriable error", func(t *testing.T) {
		err := NewNetworkError("dial", baseErr)

		if !err.IsRetriable() {
			t.Error("Expected error to be retriable")
		}

		if err.Error() != "dial: connection refused" {
			t.Errorf("Error message = %q, want %q", err.Error(), "dial: connection refused")
		}

		if !errors.Is(err, baseErr) {
			t.Error("Expected error to wrap baseErr")
		}
	})

	t.Run("fatal error", func(t *testing.T) {
		err := NewFatalNetworkError("auth", baseErr)

		if err.IsRetriable() {
			t.Error("Expected error to not be retriable")
		}
	})

	t.Run("IsRetriable helper", func(t *testing.T) {
		if !IsRetriable(NewNetworkError("dial", baseErr)) {
			t.Error("IsRetriable should return true for retriable error")
		}
		if IsRetriable(NewFatalNetworkError("auth", baseErr)) {
			t.Error("IsRetriable should return false for fatal error")
		}
		if IsRetriable(errors.New("plain error")) {
			t.Error("IsRetriable should return false for plain error")
		}
	})
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Field: "venue.ws_url", Err: errors.New("missing value")}

	if err.IsRetriable() {
		t.Error("ConfigError should never be retriable")
	}

	expected := "config error [venue.ws_url]: missing value"
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "size", Reason: "must be positive"}

	if err.Error() != "invalid size: must be positive" {
		t.Errorf("Error message = %q", err.Error())
	}
	if !errors.Is(err, ErrInvalidRequest) {
		t.Error("ValidationError should wrap ErrInvalidRequest")
	}

	var ve *ValidationError
	if !errors.As(error(err), &ve) || ve.Field != "size" {
		t.Error("errors.As should recover the ValidationError")
	}
}

func TestUnknownReferenceError(t *testing.T) {
	err := &UnknownReferenceError{Kind: "market", ID: "42"}

	if err.Error() != "unknown market 42" {
		t.Errorf("Error message = %q", err.Error())
	}
	if !errors.Is(err, ErrUnknownReference) {
		t.Error("UnknownReferenceError should wrap ErrUnknownReference")
	}
}

func TestParseSide(t *testing.T) {
	tests := []struct {
		in      string
		want    Side
		wantErr bool
	}{
		{"bid", SideBid, false},
		{"OFFER", SideOffer, false},
		{" Offer ", SideOffer, false},
		{"buy", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseSide(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSide(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSide(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if SideBid.Opposite() != SideOffer || SideOffer.Opposite() != SideBid {
		t.Error("Opposite should swap sides")
	}
}
