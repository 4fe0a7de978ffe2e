// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// StatusOverride is the audit trail entry for a manual status change that
// bypassed the transition table. The consistency checker exempts exactly the
// transitions recorded here (prd004-lifecycle R2.5).
type StatusOverride struct {
	RecordID  string    `json:"record_id" yaml:"record_id"`
	From      Status    `json:"from" yaml:"from"`
	To        Status    `json:"to" yaml:"to"`
	Operation string    `json:"operation,omitempty" yaml:"operation,omitempty"`
	Reason    string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// IDRename is the audit trail entry for a record ID change. Renames of
// processed records are only legal when logged (prd005-consistency R2.3).
type IDRename struct {
	OldID     string    `json:"old_id" yaml:"old_id"`
	NewID     string    `json:"new_id" yaml:"new_id"`
	Reason    string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
