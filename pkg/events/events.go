// Package events defines lifecycle event types emitted by the workflow
// engine. Events are dispatched after the owning transaction commits; the
// notification, analytics and webhook consumers live behind the event bus.
package events

import (
	"time"

	"github.com/flowlineio/flowline/pkg/models"
)

type EventType string

// Kafka topics.
const Topic = "flowline.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowStartedEvent   EventType = "workflow.started"
	WorkflowCompletedEvent EventType = "workflow.completed"
	WorkflowEndedEvent     EventType = "workflow.ended" // terminated by an END_WORKFLOW condition
	WorkflowDelayedEvent   EventType = "workflow.delayed"
	WorkflowResumedEvent   EventType = "workflow.resumed"
	WorkflowMigratedEvent  EventType = "workflow.migrated"

	TaskStartedEvent            EventType = "task.started"
	TaskCompletedEvent          EventType = "task.completed"
	TaskSkippedEvent            EventType = "task.skipped"
	TaskReturnedEvent           EventType = "task.returned"
	TaskPerformerCompletedEvent EventType = "task.performer.completed"
	TaskPerformersChangedEvent  EventType = "task.performers.changed"
	ChecklistItemMarkedEvent    EventType = "task.checklist.marked"

	TemplateVersionPublishedEvent EventType = "template.version.published"
)

// Event is implemented by every lifecycle event.
type Event interface {
	GetType() EventType
}

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	AccountID  string    `json:"account_id"`
	WorkflowID string    `json:"workflow_id,omitempty"`
}

type WorkflowStarted struct {
	BaseEvent

	TemplateID string `json:"template_id"`
	Version    int    `json:"version"`
	StarterID  string `json:"starter_id"`
}

func (e WorkflowStarted) GetType() EventType { return WorkflowStartedEvent }

type WorkflowCompleted struct {
	BaseEvent

	TemplateID string `json:"template_id"`
}

func (e WorkflowCompleted) GetType() EventType { return WorkflowCompletedEvent }

// WorkflowEnded is emitted when an END_WORKFLOW condition fires. Condition
// names the condition whose rules were satisfied.
type WorkflowEnded struct {
	BaseEvent

	TaskAPIName string `json:"task_api_name"`
	Condition   string `json:"condition_api_name"`
}

func (e WorkflowEnded) GetType() EventType { return WorkflowEndedEvent }

type WorkflowDelayed struct {
	BaseEvent

	TaskAPIName string    `json:"task_api_name"`
	ResumeAt    time.Time `json:"resume_at"`
}

func (e WorkflowDelayed) GetType() EventType { return WorkflowDelayedEvent }

type WorkflowResumed struct {
	BaseEvent
}

func (e WorkflowResumed) GetType() EventType { return WorkflowResumedEvent }

// WorkflowMigrated is emitted after a live workflow picked up a newer
// template version.
type WorkflowMigrated struct {
	BaseEvent

	TemplateID  string `json:"template_id"`
	FromVersion int    `json:"from_version"`
	ToVersion   int    `json:"to_version"`
}

func (e WorkflowMigrated) GetType() EventType { return WorkflowMigratedEvent }

type TaskStarted struct {
	BaseEvent

	TaskAPIName string     `json:"task_api_name"`
	TaskNumber  int        `json:"task_number"`
	Performers  []string   `json:"performers"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

func (e TaskStarted) GetType() EventType { return TaskStartedEvent }

type TaskCompleted struct {
	BaseEvent

	TaskAPIName string `json:"task_api_name"`
	TaskNumber  int    `json:"task_number"`
	UserID      string `json:"user_id"`
}

func (e TaskCompleted) GetType() EventType { return TaskCompletedEvent }

type TaskSkipped struct {
	BaseEvent

	TaskAPIName string                `json:"task_api_name"`
	TaskNumber  int                   `json:"task_number"`
	Reason      models.TaskSkipReason `json:"reason"`
}

func (e TaskSkipped) GetType() EventType { return TaskSkippedEvent }

type TaskReturned struct {
	BaseEvent

	TargetAPIName string `json:"target_api_name"`
	FromNumber    int    `json:"from_number"`
	UserID        string `json:"user_id,omitempty"`
}

func (e TaskReturned) GetType() EventType { return TaskReturnedEvent }

// TaskPerformerCompleted is emitted when one performer of a
// require_completion_by_all task finishes their share without completing the
// task as a whole.
type TaskPerformerCompleted struct {
	BaseEvent

	TaskAPIName string `json:"task_api_name"`
	UserID      string `json:"user_id"`
}

func (e TaskPerformerCompleted) GetType() EventType { return TaskPerformerCompletedEvent }

// TaskPerformersChanged is emitted when a migration rewrites the current
// task's performer set in place.
type TaskPerformersChanged struct {
	BaseEvent

	TaskAPIName string   `json:"task_api_name"`
	Added       []string `json:"added,omitempty"`
	Removed     []string `json:"removed,omitempty"`
}

func (e TaskPerformersChanged) GetType() EventType { return TaskPerformersChangedEvent }

// ChecklistItemMarked is emitted when a performer marks one required
// checklist item of the current task.
type ChecklistItemMarked struct {
	BaseEvent

	TaskAPIName string `json:"task_api_name"`
	Item        string `json:"item"`
	UserID      string `json:"user_id"`
}

func (e ChecklistItemMarked) GetType() EventType { return ChecklistItemMarkedEvent }

type TemplateVersionPublished struct {
	BaseEvent

	TemplateID string `json:"template_id"`
	Version    int    `json:"version"`
}

func (e TemplateVersionPublished) GetType() EventType { return TemplateVersionPublishedEvent }
