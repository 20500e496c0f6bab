package pipeline

import (
	"testing"

	"github.com/dunamismax/easyconvert/internal/domain"
)

func TestValidateSize(t *testing.T) {
	v := NewValidator(DefaultPolicy())

	cases := []struct {
		size   int64
		ok     bool
		code   ValidationCode
		reason string
	}{
		{size: -1, code: ValidationEmpty, reason: "file is empty"},
		{size: 0, code: ValidationEmpty, reason: "file is empty"},
		{size: 1, ok: true},
		{size: 10 * 1024 * 1024, ok: true},
		{size: 10*1024*1024 + 1, code: ValidationTooLarge, reason: "file too large, max 10 MB"},
		{size: 11_000_000, code: ValidationTooLarge, reason: "file too large, max 10 MB"},
	}
	for _, tc := range cases {
		got := v.ValidateSize(tc.size)
		if got.OK != tc.ok || got.Code != tc.code || got.Reason != tc.reason {
			t.Errorf("ValidateSize(%d) = %+v, want ok=%v code=%q reason=%q", tc.size, got, tc.ok, tc.code, tc.reason)
		}
	}
}

func TestValidateMimeType(t *testing.T) {
	v := NewValidator(DefaultPolicy())

	cases := []struct {
		mime string
		ok   bool
		code ValidationCode
	}{
		{mime: "image/heic", ok: true},
		{mime: "IMAGE/HEIF", ok: true},
		{mime: "Image/Jpg", ok: true},
		{mime: "", code: ValidationMissing},
		{mime: "   ", code: ValidationMissing},
		{mime: "image/bmp", code: ValidationUnsupported},
		{mime: "image/jpeg", code: ValidationUnsupported},
		{mime: " image/heic", ok: true},
		{mime: "image/heif\n", ok: true},
		{mime: " image/bmp ", code: ValidationUnsupported},
	}
	for _, tc := range cases {
		got := v.ValidateMimeType(tc.mime)
		if got.OK != tc.ok || got.Code != tc.code {
			t.Errorf("ValidateMimeType(%q) = %+v, want ok=%v code=%q", tc.mime, got, tc.ok, tc.code)
		}
	}

	if got := v.ValidateMimeType("image/bmp"); got.Reason != "unsupported type" {
		t.Fatalf("expected unsupported type reason, got %q", got.Reason)
	}
}

func TestValidateChecksSizeBeforeType(t *testing.T) {
	v := NewValidator(DefaultPolicy())

	got := v.Validate(domain.InboundMedia{Size: -1, MimeType: "image/bmp"})
	if got.Code != ValidationEmpty {
		t.Fatalf("expected size failure first, got %+v", got)
	}

	got = v.Validate(domain.InboundMedia{Size: 11_000_000, MimeType: "image/bmp"})
	if got.Code != ValidationTooLarge {
		t.Fatalf("expected size failure first, got %+v", got)
	}

	got = v.Validate(domain.InboundMedia{Size: 100, MimeType: "image/bmp"})
	if got.Code != ValidationUnsupported {
		t.Fatalf("expected type failure, got %+v", got)
	}

	if got := v.Validate(domain.InboundMedia{Size: 100, MimeType: "image/heic"}); !got.OK {
		t.Fatalf("expected valid media, got %+v", got)
	}
}

func TestValidateDefersUndeclaredSize(t *testing.T) {
	v := NewValidator(DefaultPolicy())

	if got := v.Validate(domain.InboundMedia{Size: 0, MimeType: "image/heic"}); !got.OK {
		t.Fatalf("expected undeclared size to pass, got %+v", got)
	}
	if got := v.Validate(domain.InboundMedia{Size: 0, MimeType: "image/bmp"}); got.Code != ValidationUnsupported {
		t.Fatalf("expected type check to still run, got %+v", got)
	}
	if got := v.Validate(domain.InboundMedia{Size: 0}); got.Code != ValidationMissing {
		t.Fatalf("expected missing type, got %+v", got)
	}
}

func TestValidatorPolicyOverrides(t *testing.T) {
	v := NewValidator(Policy{
		MaxBytes:         512 * 1024,
		AllowedMimeTypes: []string{" IMAGE/WEBP ", "image/webp", ""},
	})

	if got := v.AllowedMimeTypes(); len(got) != 1 || got[0] != "image/webp" {
		t.Fatalf("expected normalized, deduplicated allowed list, got %v", got)
	}
	if got := v.MaxMB(); got != 1 {
		t.Fatalf("expected sub-megabyte limit to report 1 MB, got %d", got)
	}
	if got := v.ValidateSize(600 * 1024); got.Code != ValidationTooLarge {
		t.Fatalf("expected too large, got %+v", got)
	}

	defaults := NewValidator(Policy{})
	if defaults.MaxBytes() != 10*1024*1024 {
		t.Fatalf("expected default limit for zero policy, got %d", defaults.MaxBytes())
	}
}
