package http

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/expenses", strings.NewReader(`{"amount":"12.50","description":"Coffee"}`))
	req.Header.Set("Content-Type", "application/json")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !p.IsJSON() {
		t.Fatalf("expected JSON detection")
	}
	if got := p.Get("amount"); got != "12.50" {
		t.Fatalf("amount=%q", got)
	}
	if got := p.Get("description"); got != "Coffee" {
		t.Fatalf("description=%q", got)
	}
	if got := p.Get("missing"); got != "" {
		t.Fatalf("missing key should be empty, got %q", got)
	}
}

func TestRequestBodyParser_JSONNumbers(t *testing.T) {
	req := httptest.NewRequest("POST", "/balance", strings.NewReader(`{"amount":1000}`))
	req.Header.Set("Content-Type", "application/json")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := p.Get("amount"); got != "1000" {
		t.Fatalf("numeric amount should round-trip as string, got %q", got)
	}
}

func TestRequestBodyParser_Form(t *testing.T) {
	req := httptest.NewRequest("POST", "/expenses", strings.NewReader("amount=5%2C25&description=Bus+ticket"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.IsJSON() {
		t.Fatalf("form body misdetected as JSON")
	}
	if got := p.Get("amount"); got != "5,25" {
		t.Fatalf("amount=%q", got)
	}
	if got := p.Get("description"); got != "Bus ticket" {
		t.Fatalf("description=%q", got)
	}
}

func TestRequestBodyParser_EmptyAndMalformed(t *testing.T) {
	req := httptest.NewRequest("POST", "/reset", nil)
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("empty body should parse: %v", err)
	}
	if got := p.Get("anything"); got != "" {
		t.Fatalf("expected empty value, got %q", got)
	}

	req = httptest.NewRequest("POST", "/balance", strings.NewReader(`{"amount":`))
	p = NewRequestBodyParser(req)
	if err := p.Parse(); err == nil {
		t.Fatalf("truncated JSON should fail to parse")
	}
	// Parse is idempotent; the stored error survives.
	if err := p.Parse(); err == nil {
		t.Fatalf("second parse should return the stored error")
	}
}

func TestRequestBodyParser_SanitizesControlCharacters(t *testing.T) {
	req := httptest.NewRequest("POST", "/expenses", strings.NewReader("description=bad%00input%07here"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := p.Get("description"); got != "badinputhere" {
		t.Fatalf("control characters should be stripped, got %q", got)
	}
}
