// Instance lifecycle states and the user-facing status derivation.

package compute

import (
	"github.com/craneworks/nimbus/errors"
)

// VMState is the stable lifecycle state of an instance.
type VMState string

const (
	VMBuilding   VMState = "building"
	VMActive     VMState = "active"
	VMRebuilding VMState = "rebuilding"
	VMResizing   VMState = "resizing"
	VMStopped    VMState = "stopped"
	VMError      VMState = "error"
)

// TaskState is an in-progress transition label, possibly absent.
type TaskState string

const (
	TaskNone             TaskState = ""
	TaskRebooting        TaskState = "rebooting"
	TaskResizeVerify     TaskState = "resize_verify"
	TaskUpdatingPassword TaskState = "updating_password"
)

// taskAny matches any task state in a status rule.
const taskAny = TaskState("*")

type statusRule struct {
	vm     VMState
	task   TaskState
	status string
}

// statusRules is consulted in order, first match wins. Rules with a
// specific task state must precede their vm state's catch-all rule.
var statusRules = []statusRule{
	{VMActive, TaskRebooting, "REBOOT"},
	{VMActive, TaskResizeVerify, "VERIFY_RESIZE"},
	{VMActive, TaskUpdatingPassword, "PASSWORD"},
	{VMActive, taskAny, "ACTIVE"},
	{VMBuilding, taskAny, "BUILD"},
	{VMRebuilding, taskAny, "REBUILD"},
	{VMResizing, taskAny, "RESIZE"},
	{VMStopped, taskAny, "STOPPED"},
	{VMError, taskAny, "ERROR"},
}

// StatusOf derives the user-facing status token from an instance's
// (vm state, task state) pair. An unrecognized vm state is an error,
// never silently defaulted.
func StatusOf(vm VMState, task TaskState) (string, error) {
	for _, rule := range statusRules {
		if rule.vm != vm {
			continue
		}
		if rule.task == taskAny || rule.task == task {
			return rule.status, nil
		}
	}
	return "", errors.UnknownStatef("unrecognized vm_state %q", string(vm))
}

// VMStateOf maps a status token back to the vm state it is derived
// from, for use by list filters. Unknown tokens are a bad request.
func VMStateOf(status string) (VMState, error) {
	for _, rule := range statusRules {
		if rule.status == status {
			return rule.vm, nil
		}
	}
	return "", errors.BadRequestf("invalid server status: %s", status)
}
