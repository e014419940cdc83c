package model

import "fmt"

// NotFoundError reports a lookup for an entity that does not exist.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}

// DuplicateSerialError reports a create/update with a serial number
// already used by another equipment row.
type DuplicateSerialError struct {
	Serial string
}

func (e *DuplicateSerialError) Error() string {
	return fmt.Sprintf("serial number already in use: %s", e.Serial)
}

// AlreadyOpenError reports an attempt to open a second concurrent
// assignment interval for the same equipment. Callers are expected to
// close before opening, so this escaping indicates a sequencing bug.
type AlreadyOpenError struct {
	EquipmentID int64
}

func (e *AlreadyOpenError) Error() string {
	return fmt.Sprintf("equipment %d already has an open assignment interval", e.EquipmentID)
}

// InvalidEnumError reports an external enum token outside its closed set.
type InvalidEnumError struct {
	Kind  string
	Value string
}

func (e *InvalidEnumError) Error() string {
	return fmt.Sprintf("invalid %s value: %q", e.Kind, e.Value)
}
