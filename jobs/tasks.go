package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrityScan checks posted flags against entry statuses.
	TaskLedgerIntegrityScan = "ledger:integrity_scan"
	// TaskAuditChainVerify re-verifies audit log hash chains.
	TaskAuditChainVerify = "audit:chain_verify"
)

// IntegrityScanPayload bounds the scan to recently touched entries.
type IntegrityScanPayload struct {
	WindowHours int `json:"window_hours"`
}

// NewIntegrityScanTask constructs an Asynq task for the integrity scan.
func NewIntegrityScanTask(windowHours int) (*asynq.Task, error) {
	data, err := json.Marshal(IntegrityScanPayload{WindowHours: windowHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrityScan, data), nil
}

// ChainVerifyPayload selects which audit table to verify.
type ChainVerifyPayload struct {
	TableName string `json:"table_name"`
}

// NewChainVerifyTask constructs an Asynq task for audit chain verification.
func NewChainVerifyTask(tableName string) (*asynq.Task, error) {
	data, err := json.Marshal(ChainVerifyPayload{TableName: tableName})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditChainVerify, data), nil
}
