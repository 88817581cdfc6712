package model

import "time"

// MintRecord marks that a principal has created its profile. One record per
// principal, written exactly once and never deleted; together with the
// profiles counter it forms the uniqueness registry.
type MintRecord struct {
	ObjectType string    `json:"objectType"` // "MintRecord"
	Principal  string    `json:"principal"`  // Full client identity string
	ProfileID  string    `json:"profileId"`  // Profile allocated for this principal
	MintedAt   time.Time `json:"mintedAt"`
}
