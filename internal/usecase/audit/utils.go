package audit

import (
	"encoding/json"
	"strings"
	"time"

	domainaudit "auditflow/internal/domain/audit"
	"auditflow/internal/ports"
)

func parseSampleRef(sampleRef string) (uint64, error) {
	return domainaudit.ParseSampleRef(sampleRef)
}

func formatSampleRef(sampleID uint64) string {
	return domainaudit.FormatSampleRef(sampleID)
}

func nowUTCString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func strPtr(value string) *string {
	return &value
}

func boolPtr(value bool) *bool {
	return &value
}

func marshalStringMap(in map[string]string) (string, error) {
	if len(in) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func unmarshalStringMap(raw string) (map[string]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "{}" {
		return map[string]string{}, nil
	}
	out := map[string]string{}
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// allEmpty reports whether every value in the maps is blank.
func allEmpty(maps ...map[string]string) bool {
	for _, m := range maps {
		for _, value := range m {
			if strings.TrimSpace(value) != "" {
				return false
			}
		}
	}
	return true
}

func mapSampleView(sample ports.Sample) (SampleView, error) {
	metadata, err := unmarshalStringMap(sample.MetadataJSON)
	if err != nil {
		return SampleView{}, err
	}

	return SampleView{
		SampleRef:    formatSampleRef(sample.SampleID),
		CustomerName: sample.CustomerName,
		TicketID:     sample.TicketID,
		FormType:     sample.FormType,
		Status:       sample.Status,
		AssignedTo:   derefString(sample.AssignedTo),
		Priority:     derefString(sample.Priority),
		Metadata:     metadata,
		SkipReason:   derefString(sample.SkipReason),
		HasDraft:     sample.HasDraft,
		UploadedAt:   sample.UploadedAt,
		UpdatedAt:    sample.UpdatedAt,
	}, nil
}
