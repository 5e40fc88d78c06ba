package cmd

import (
	"errors"
	"testing"

	"github.com/marcus/giftwell/internal/models"
)

func TestValidatePrice(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"", false},
		{"  ", false},
		{"24.99", false},
		{"$24.99", false},
		{"1,299", false},
		{"0", false},
		{"-5", true},
		{"cheap", true},
	}
	for _, tt := range tests {
		err := validatePrice(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("validatePrice(%q) = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestValidateTitle(t *testing.T) {
	if err := validateTitle("   "); !errors.Is(err, errTitleRequired) {
		t.Errorf("blank title: got %v", err)
	}
	if err := validateTitle("Kite"); err != nil {
		t.Errorf("valid title: got %v", err)
	}
}

func TestGiftFormInput(t *testing.T) {
	gf := newGiftForm([]models.Person{{ID: 1, Name: "Ada"}})
	gf.Title = "  Kite "
	gf.Price = "$1,024.50"
	gf.Tags = "outdoor, toys"
	gf.PersonIDs = []int64{1}

	in, err := gf.input()
	if err != nil {
		t.Fatalf("input: %v", err)
	}
	if in.Title != "Kite" {
		t.Errorf("Title = %q", in.Title)
	}
	if in.Status != models.GiftStatusIdea {
		t.Errorf("Status = %q, want idea", in.Status)
	}
	if in.Price == nil || *in.Price != 1024.5 {
		t.Errorf("Price = %v", in.Price)
	}
	if len(in.Tags) != 2 || in.Tags[1] != "toys" {
		t.Errorf("Tags = %v", in.Tags)
	}
	if len(in.PersonIDs) != 1 || in.PersonIDs[0] != 1 {
		t.Errorf("PersonIDs = %v", in.PersonIDs)
	}
}

func TestGiftFormInput_NoPrice(t *testing.T) {
	gf := newGiftForm(nil)
	gf.Title = "Socks"

	in, err := gf.input()
	if err != nil {
		t.Fatalf("input: %v", err)
	}
	if in.Price != nil {
		t.Errorf("Price = %v, want nil", *in.Price)
	}
}

func TestGiftFormInput_Invalid(t *testing.T) {
	gf := newGiftForm(nil)
	if _, err := gf.input(); !errors.Is(err, errTitleRequired) {
		t.Errorf("missing title: got %v", err)
	}
	gf.Title = "Socks"
	gf.Price = "-1"
	if _, err := gf.input(); !errors.Is(err, errInvalidPrice) {
		t.Errorf("negative price: got %v", err)
	}
}

func TestParseGiftStatus(t *testing.T) {
	got, err := parseGiftStatus("Purchased")
	if err != nil || got != models.GiftStatusPurchased {
		t.Errorf("parseGiftStatus(Purchased) = %q, %v", got, err)
	}
	_, err = parseGiftStatus("lost")
	var ue usageError
	if !errors.As(err, &ue) {
		t.Errorf("unknown status should be a usage error, got %v", err)
	}
}
