// Package cominspect reports the type name, interface id and members of
// late-bound COM objects, and resolves running COM servers by ProgID.
//
// Inspection works against the TypeInfo abstraction; the Windows build backs
// it with IDispatch/ITypeInfo through go-ole. Other platforms can inspect any
// value implementing Introspectable but cannot activate COM servers.
package cominspect

import (
	"errors"
	"fmt"

	"github.com/go-ole/go-ole"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no running instance matches a ProgID.
	ErrNotFound = errors.New("cominspect: no running instance")
	// ErrUnsupported is returned on platforms without COM.
	ErrUnsupported = errors.New("cominspect: COM is not supported on this platform")
	// ErrInvalidArgument flags malformed input such as an empty ProgID.
	ErrInvalidArgument = errors.New("cominspect: invalid argument")
)

// Depth selects how much of an object Inspect reports.
type Depth int

const (
	DepthType Depth = iota
	DepthTypeAndIID
	DepthMembers
)

// ParseDepth maps "type", "iid" and "members" to a Depth.
func ParseDepth(s string) (Depth, error) {
	switch s {
	case "type", "":
		return DepthType, nil
	case "iid":
		return DepthTypeAndIID, nil
	case "members":
		return DepthMembers, nil
	default:
		return DepthType, fmt.Errorf("%w: depth %q", ErrInvalidArgument, s)
	}
}

func (d Depth) String() string {
	switch d {
	case DepthType:
		return "type"
	case DepthTypeAndIID:
		return "iid"
	case DepthMembers:
		return "members"
	default:
		return fmt.Sprintf("Depth(%d)", int(d))
	}
}

// ObjectInfo is the result of an inspection. Methods and Properties stay nil
// below DepthMembers.
type ObjectInfo struct {
	TypeName   string    `json:"type_name"`
	IID        uuid.UUID `json:"iid"`
	Methods    []string  `json:"methods,omitempty"`
	Properties []string  `json:"properties,omitempty"`
}

// TypeInfo is the type-introspection capability of a COM-like object.
type TypeInfo interface {
	Name() (string, error)
	IID() (uuid.UUID, error)
	Methods() ([]string, error)
	Properties() ([]string, error)
	Release()
}

// Introspectable objects hand out their TypeInfo.
type Introspectable interface {
	TypeInfo() (TypeInfo, error)
}

// Inspector inspects objects and logs what it finds.
type Inspector struct {
	log Logger
}

// NewInspector returns an Inspector; a nil logger discards output.
func NewInspector(log Logger) *Inspector {
	return &Inspector{log: ensureLogger(log)}
}

// TypeOnly reports the type name.
func (i *Inspector) TypeOnly(obj any) (ObjectInfo, error) { return i.Inspect(obj, DepthType) }

// TypeAndIID reports the type name and interface id.
func (i *Inspector) TypeAndIID(obj any) (ObjectInfo, error) { return i.Inspect(obj, DepthTypeAndIID) }

// Members reports the type name, interface id, methods and properties.
func (i *Inspector) Members(obj any) (ObjectInfo, error) { return i.Inspect(obj, DepthMembers) }

// Inspect reports obj up to depth. A nil or non-introspectable object yields
// an empty ObjectInfo and no error. Type information is always released.
func (i *Inspector) Inspect(obj any, depth Depth) (ObjectInfo, error) {
	var info ObjectInfo
	if obj == nil {
		return info, nil
	}
	src, ok := obj.(Introspectable)
	if !ok {
		i.log.DebugObj("object is not introspectable", "com_object", map[string]any{
			"go_type": fmt.Sprintf("%T", obj),
		})
		return info, nil
	}

	ti, err := src.TypeInfo()
	if err != nil {
		return info, fmt.Errorf("get type info: %w", err)
	}
	if ti == nil {
		return info, nil
	}
	defer ti.Release()

	if info.TypeName, err = ti.Name(); err != nil {
		return ObjectInfo{}, fmt.Errorf("get type name: %w", err)
	}
	if depth == DepthType {
		return info, nil
	}

	if info.IID, err = ti.IID(); err != nil {
		return ObjectInfo{}, fmt.Errorf("get type attributes: %w", err)
	}
	if depth == DepthTypeAndIID {
		return info, nil
	}

	if info.Methods, err = ti.Methods(); err != nil {
		return ObjectInfo{}, fmt.Errorf("list methods: %w", err)
	}
	if info.Properties, err = ti.Properties(); err != nil {
		return ObjectInfo{}, fmt.Errorf("list properties: %w", err)
	}
	if info.Methods == nil {
		info.Methods = []string{}
	}
	if info.Properties == nil {
		info.Properties = []string{}
	}
	i.log.DebugObj("inspected members", "com_members", map[string]any{
		"type":       info.TypeName,
		"methods":    info.Methods,
		"properties": info.Properties,
	})
	return info, nil
}

// uuidFromGUID converts a COM GUID (little-endian leading fields) to the
// canonical RFC 4122 byte order.
func uuidFromGUID(g *ole.GUID) uuid.UUID {
	var u uuid.UUID
	if g == nil {
		return u
	}
	u[0] = byte(g.Data1 >> 24)
	u[1] = byte(g.Data1 >> 16)
	u[2] = byte(g.Data1 >> 8)
	u[3] = byte(g.Data1)
	u[4] = byte(g.Data2 >> 8)
	u[5] = byte(g.Data2)
	u[6] = byte(g.Data3 >> 8)
	u[7] = byte(g.Data3)
	copy(u[8:], g.Data4[:])
	return u
}
