package service

import (
	"context"
	"encoding/json"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
)

// writeAudit appends a Who/What/When row. Callers pass it the transaction
// context so the audit entry commits or rolls back with the change it
// describes.
func writeAudit(ctx context.Context, repo repository.AuditRepository, userID, action, entityID, entityName string, payload interface{}) error {
	details, err := json.Marshal(payload)
	if err != nil {
		// The row must still record that something happened, even if the
		// payload could not be serialized.
		details, _ = json.Marshal(map[string]string{"marshal_error": err.Error()})
	}
	entry := &model.AuditLog{
		UserID:     auditUserID(userID),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(details),
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
