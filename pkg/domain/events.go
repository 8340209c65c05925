package domain

import (
	"context"
	"time"
)

// HookEventType categorizes lifecycle notifications.
type HookEventType string

const (
	HookStateEnter HookEventType = "state_enter"
	HookStateLeave HookEventType = "state_leave"
	HookTaskStart  HookEventType = "task_start"
	HookTaskDone   HookEventType = "task_done"
	HookResponse   HookEventType = "response"
)

// HookBase contains common fields for all lifecycle events.
type HookBase struct {
	Timestamp time.Time     `json:"timestamp"`
	Type      HookEventType `json:"type"`
	SessionID string        `json:"session_id"`
}

// StateEvent notifies entry into or exit from a machine state.
type StateEvent struct {
	HookBase
	StateID string    `json:"state_id"`
	Trigger EventType `json:"trigger,omitempty"`
}

// TaskEvent notifies the start or completion of an invoked task.
type TaskEvent struct {
	HookBase
	StateID  string        `json:"state_id"`
	TaskName string        `json:"task_name"`
	Duration time.Duration `json:"duration,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
}

// ResponseEvent notifies that an entry action appended assistant messages.
type ResponseEvent struct {
	HookBase
	StateID string `json:"state_id"`
	Count   int    `json:"count"`
}

// LifecycleHooks defines optional callbacks for engine observability.
// Callbacks run on the actor's goroutine and must not block.
type LifecycleHooks struct {
	OnStateEnter func(context.Context, *StateEvent)
	OnStateLeave func(context.Context, *StateEvent)
	OnTaskStart  func(context.Context, *TaskEvent)
	OnTaskDone   func(context.Context, *TaskEvent)
	OnResponse   func(context.Context, *ResponseEvent)
}
