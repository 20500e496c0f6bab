package pipeline

import (
	"fmt"
	"strings"

	"github.com/dunamismax/easyconvert/internal/domain"
)

const bytesPerMB = 1024 * 1024

type Policy struct {
	MaxBytes         int64
	AllowedMimeTypes []string
	NativeMimeTypes  []string
	JPEGQuality      int
}

func DefaultPolicy() Policy {
	return Policy{
		MaxBytes:         10 * bytesPerMB,
		AllowedMimeTypes: []string{"image/heic", "image/heif", "image/jpg"},
		NativeMimeTypes:  []string{"image/jpg", "image/jpeg"},
		JPEGQuality:      100,
	}
}

func (p Policy) quality() int {
	if p.JPEGQuality <= 0 || p.JPEGQuality > 100 {
		return 100
	}
	return p.JPEGQuality
}

type ValidationCode string

const (
	ValidationOK          ValidationCode = ""
	ValidationEmpty       ValidationCode = "empty"
	ValidationTooLarge    ValidationCode = "too_large"
	ValidationMissing     ValidationCode = "missing"
	ValidationUnsupported ValidationCode = "unsupported"
)

type ValidationOutcome struct {
	OK     bool
	Code   ValidationCode
	Reason string
}

func validationFailed(code ValidationCode, reason string) ValidationOutcome {
	return ValidationOutcome{Code: code, Reason: reason}
}

// Validator checks declared metadata against a fixed Policy. It does no I/O and
// is safe for concurrent use.
type Validator struct {
	maxBytes int64
	allowed  map[string]struct{}
	list     []string
}

func NewValidator(policy Policy) Validator {
	v := Validator{
		maxBytes: policy.MaxBytes,
		allowed:  make(map[string]struct{}, len(policy.AllowedMimeTypes)),
		list:     make([]string, 0, len(policy.AllowedMimeTypes)),
	}
	if v.maxBytes <= 0 {
		v.maxBytes = DefaultPolicy().MaxBytes
	}
	for _, mime := range policy.AllowedMimeTypes {
		mime = normalizeMimeType(mime)
		if mime == "" {
			continue
		}
		if _, dup := v.allowed[mime]; dup {
			continue
		}
		v.allowed[mime] = struct{}{}
		v.list = append(v.list, mime)
	}
	return v
}

func (v Validator) ValidateSize(size int64) ValidationOutcome {
	if size <= 0 {
		return validationFailed(ValidationEmpty, "file is empty")
	}
	if size > v.maxBytes {
		return validationFailed(ValidationTooLarge, fmt.Sprintf("file too large, max %d MB", v.MaxMB()))
	}
	return ValidationOutcome{OK: true}
}

func (v Validator) ValidateMimeType(mime string) ValidationOutcome {
	mime = normalizeMimeType(mime)
	if mime == "" {
		return validationFailed(ValidationMissing, "missing type")
	}
	if _, ok := v.allowed[mime]; !ok {
		return validationFailed(ValidationUnsupported, "unsupported type")
	}
	return ValidationOutcome{OK: true}
}

// Validate runs both checks, size first, and reports the first failure. A
// zero size means the sender did not declare one; the fetched body is
// checked with ValidateSize instead.
func (v Validator) Validate(media domain.InboundMedia) ValidationOutcome {
	if media.Size != 0 {
		if out := v.ValidateSize(media.Size); !out.OK {
			return out
		}
	}
	return v.ValidateMimeType(media.MimeType)
}

func (v Validator) MaxBytes() int64 {
	return v.maxBytes
}

// MaxMB rounds up so a limit below one megabyte is never reported as zero.
func (v Validator) MaxMB() int64 {
	return (v.maxBytes + bytesPerMB - 1) / bytesPerMB
}

func (v Validator) AllowedMimeTypes() []string {
	out := make([]string, len(v.list))
	copy(out, v.list)
	return out
}

func normalizeMimeType(mime string) string {
	return strings.ToLower(strings.TrimSpace(mime))
}
