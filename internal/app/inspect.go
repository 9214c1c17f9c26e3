package app

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/samvad-hq/samvad-webhelpers/pkg/cominspect"
)

// Inspect attaches to the running COM server registered as progID and
// writes its ObjectInfo as JSON.
func (r *Runner) Inspect(progID string, depth cominspect.Depth, out io.Writer) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := cominspect.Initialize(); err != nil {
		return err
	}
	defer cominspect.Uninitialize()

	obj, err := cominspect.GetActiveInstance(progID)
	if err != nil {
		return err
	}
	defer obj.Release()

	return r.writeInspection(obj, depth, out)
}

func (r *Runner) writeInspection(obj any, depth cominspect.Depth, out io.Writer) error {
	info, err := cominspect.NewInspector(r.log).Inspect(obj, depth)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	r.log.InfoObj("object inspected", "com_object", map[string]any{
		"type":  info.TypeName,
		"depth": depth.String(),
	})
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
