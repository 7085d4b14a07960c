package models

type UserMode string

const (
	UserModeLocal UserMode = "local"
	UserModeOAuth UserMode = "oauth"
)

// User is the single profile owned by the store.
type User struct {
	ID   string   `json:"id,omitempty"`
	Name string   `json:"name"`
	Mode UserMode `json:"mode"`
}

// Meta is process-wide bookkeeping written on install and reset.
type Meta struct {
	Version int  `json:"version"`
	Welcome bool `json:"welcome"`
}
