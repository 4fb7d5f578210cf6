package audit

import (
	"errors"
	"testing"
)

func TestParseSampleRef(t *testing.T) {
	id, err := ParseSampleRef(" SMP-42 ")
	if err != nil {
		t.Fatalf("ParseSampleRef() error = %v", err)
	}
	if id != 42 {
		t.Fatalf("ParseSampleRef() id = %d, want 42", id)
	}
}

func TestParseSampleRefRejectsEmpty(t *testing.T) {
	if _, err := ParseSampleRef("   "); !errors.Is(err, ErrSampleRefRequired) {
		t.Fatalf("ParseSampleRef(blank) error = %v, want ErrSampleRefRequired", err)
	}
}

func TestParseSampleRefRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"42", "SMP-", "SMP-abc", "SMP-0", "smp-1", "SMP--3"} {
		if _, err := ParseSampleRef(raw); !errors.Is(err, ErrInvalidSampleRef) {
			t.Fatalf("ParseSampleRef(%q) error = %v, want ErrInvalidSampleRef", raw, err)
		}
	}
}

func TestFormatSampleRefRoundTrip(t *testing.T) {
	ref := FormatSampleRef(7)
	if ref != "SMP-7" {
		t.Fatalf("FormatSampleRef(7) = %q", ref)
	}
	id, err := ParseSampleRef(ref)
	if err != nil || id != 7 {
		t.Fatalf("ParseSampleRef(%q) = %d, %v", ref, id, err)
	}
}
