package audit

import (
	"fmt"
	"strconv"
	"strings"
)

const sampleRefPrefix = "SMP-"

// ParseSampleRef resolves a public sample ref like "SMP-42" to its row id.
func ParseSampleRef(sampleRef string) (uint64, error) {
	trimmed := strings.TrimSpace(sampleRef)
	if trimmed == "" {
		return 0, ErrSampleRefRequired
	}
	if !strings.HasPrefix(trimmed, sampleRefPrefix) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSampleRef, sampleRef)
	}

	numText := strings.TrimPrefix(trimmed, sampleRefPrefix)
	if numText == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSampleRef, sampleRef)
	}

	sampleID, err := strconv.ParseUint(numText, 10, 64)
	if err != nil || sampleID == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSampleRef, sampleRef)
	}
	return sampleID, nil
}

func FormatSampleRef(sampleID uint64) string {
	return fmt.Sprintf("%s%d", sampleRefPrefix, sampleID)
}
