package ports

import (
	"context"

	"auditflow/internal/domain/audit"
)

// FormCatalog resolves a form type name to its question schema. Backed by a
// directory of YAML definitions in this repo; a remote catalog can replace it.
type FormCatalog interface {
	GetForm(ctx context.Context, name string) (audit.FormDefinition, error)
}
