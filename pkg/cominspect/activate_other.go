//go:build !windows

package cominspect

// Initialize always fails outside Windows.
func Initialize() error { return ErrUnsupported }

// Uninitialize is a no-op outside Windows.
func Uninitialize() {}

// Dispatch is a running COM object. Outside Windows it is never produced.
type Dispatch struct{}

// GetActiveInstance always fails with ErrUnsupported outside Windows.
func GetActiveInstance(string) (*Dispatch, error) { return nil, ErrUnsupported }

// Release is a no-op outside Windows.
func (d *Dispatch) Release() {}

// TypeInfo implements Introspectable.
func (d *Dispatch) TypeInfo() (TypeInfo, error) { return nil, ErrUnsupported }
