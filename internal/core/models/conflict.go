package models

import "time"

// ConflictKind names the collision class the resolver detected.
type ConflictKind string

const (
	// The same seller SKU is attached to two different part number keys.
	ConflictKeyMismatch ConflictKind = "key_mismatch"
	// Two different seller SKUs both claim the same attachment key.
	ConflictDuplicateAttachment ConflictKind = "duplicate_attachment"
	// Both accounts report the same attachment under the same SKU but
	// disagree on the data beyond what a newer watermark explains.
	ConflictDataMismatch ConflictKind = "data_mismatch"
)

// ConflictResolution tracks the lifecycle of a detected conflict.
type ConflictResolution string

const (
	ResolutionOpen   ConflictResolution = "open"
	ResolutionMerged ConflictResolution = "merged"
	ResolutionReject ConflictResolution = "rejected"
)

// ConflictRef identifies one record participating in a conflict.
type ConflictRef struct {
	Account       AccountName `json:"account"`
	SKU           string      `json:"sku"`
	PartNumberKey string      `json:"part_number_key,omitempty"`
}

// Conflict is a detected cross-account collision. Open conflicts are
// persisted for manual resolution; merged ones document an automatic
// tie-break.
type Conflict struct {
	Kind       ConflictKind       `json:"kind"`
	Key        string             `json:"key"`
	Records    []ConflictRef      `json:"records"`
	DetectedAt time.Time          `json:"detected_at"`
	Resolution ConflictResolution `json:"resolution"`
}
