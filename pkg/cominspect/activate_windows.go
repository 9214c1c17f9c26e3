//go:build windows

package cominspect

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/google/uuid"
)

const mkEUnavailable = 0x800401E3

// Initialize prepares the calling OS thread for COM. Callers should lock the
// goroutine to its thread first and pair this with Uninitialize.
func Initialize() error {
	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		var oleErr *ole.OleError
		// S_FALSE: already initialized on this thread.
		if errors.As(err, &oleErr) && oleErr.Code() == 1 {
			return nil
		}
		return fmt.Errorf("cominspect: initialize: %w", err)
	}
	return nil
}

// Uninitialize releases COM on the calling thread.
func Uninitialize() { ole.CoUninitialize() }

// Dispatch is a running COM object reached through IDispatch.
type Dispatch struct {
	disp *ole.IDispatch
}

// GetActiveInstance returns the running object registered for progID. The
// ProgID is resolved to a CLSID first; a literal CLSID string is accepted
// too. Release the result when done.
func GetActiveInstance(progID string) (*Dispatch, error) {
	progID = strings.TrimSpace(progID)
	if progID == "" {
		return nil, fmt.Errorf("%w: empty ProgID", ErrInvalidArgument)
	}
	clsid, err := ole.ClassIDFrom(progID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not registered: %v", ErrNotFound, progID, err)
	}
	unk, err := ole.GetActiveObject(clsid, ole.IID_IUnknown)
	if err != nil {
		var oleErr *ole.OleError
		if errors.As(err, &oleErr) && uint32(oleErr.Code()) == mkEUnavailable {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, progID)
		}
		return nil, fmt.Errorf("cominspect: get active object %s: %w", progID, err)
	}
	defer unk.Release()

	disp, err := unk.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return nil, fmt.Errorf("cominspect: %s does not support IDispatch: %w", progID, err)
	}
	return &Dispatch{disp: disp}, nil
}

// IDispatch exposes the underlying interface for late-bound calls.
func (d *Dispatch) IDispatch() *ole.IDispatch { return d.disp }

// Release drops the object reference.
func (d *Dispatch) Release() {
	if d != nil && d.disp != nil {
		d.disp.Release()
		d.disp = nil
	}
}

// TypeInfo implements Introspectable.
func (d *Dispatch) TypeInfo() (TypeInfo, error) {
	if d == nil || d.disp == nil {
		return nil, nil
	}
	ti, err := d.disp.GetTypeInfo()
	if err != nil {
		return nil, err
	}
	return &comTypeInfo{ti: ti}, nil
}

type comTypeInfo struct {
	ti   *ole.ITypeInfo
	attr *ole.TYPEATTR
}

func (c *comTypeInfo) typeAttr() (*ole.TYPEATTR, error) {
	if c.attr != nil {
		return c.attr, nil
	}
	attr, err := c.ti.GetTypeAttr()
	if err != nil {
		return nil, err
	}
	c.attr = attr
	return attr, nil
}

func (c *comTypeInfo) Name() (string, error) { return c.documentation(-1) }

func (c *comTypeInfo) IID() (uuid.UUID, error) {
	attr, err := c.typeAttr()
	if err != nil {
		return uuid.Nil, err
	}
	return uuidFromGUID(&attr.Guid), nil
}

func (c *comTypeInfo) Methods() ([]string, error) {
	attr, err := c.typeAttr()
	if err != nil {
		return nil, err
	}
	vt := c.ti.VTable()
	return c.members(int(attr.CFuncs), vt.GetFuncDesc, vt.ReleaseFuncDesc)
}

func (c *comTypeInfo) Properties() ([]string, error) {
	attr, err := c.typeAttr()
	if err != nil {
		return nil, err
	}
	vt := c.ti.VTable()
	return c.members(int(attr.CVars), vt.GetVarDesc, vt.ReleaseVarDesc)
}

// members walks FUNCDESC or VARDESC entries; both start with the member id.
func (c *comTypeInfo) members(n int, get, release uintptr) ([]string, error) {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		var desc unsafe.Pointer
		hr, _, _ := syscall.SyscallN(get, uintptr(unsafe.Pointer(c.ti)), uintptr(i), uintptr(unsafe.Pointer(&desc)))
		if hr != 0 {
			return out, ole.NewError(hr)
		}
		memid := *(*int32)(desc)
		name, err := c.documentation(memid)
		syscall.SyscallN(release, uintptr(unsafe.Pointer(c.ti)), uintptr(desc))
		if err != nil {
			return out, err
		}
		out = append(out, name)
	}
	return out, nil
}

func (c *comTypeInfo) documentation(memid int32) (string, error) {
	var bstr *uint16
	hr, _, _ := syscall.SyscallN(c.ti.VTable().GetDocumentation,
		uintptr(unsafe.Pointer(c.ti)),
		uintptr(memid),
		uintptr(unsafe.Pointer(&bstr)),
		0, 0, 0,
	)
	if hr != 0 {
		return "", ole.NewError(hr)
	}
	if bstr == nil {
		return "", nil
	}
	defer ole.SysFreeString((*int16)(unsafe.Pointer(bstr)))
	return ole.BstrToString(bstr), nil
}

func (c *comTypeInfo) Release() {
	if c.attr != nil {
		syscall.SyscallN(c.ti.VTable().ReleaseTypeAttr, uintptr(unsafe.Pointer(c.ti)), uintptr(unsafe.Pointer(c.attr)))
		c.attr = nil
	}
	c.ti.Release()
}
