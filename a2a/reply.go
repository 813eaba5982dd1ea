package a2a

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Reply is what a remote agent answered: a terminal message or a task.
// Exactly one field is set.
type Reply struct {
	Message *Message
	Task    *Task
}

// Parts flattens the reply into the canonical sequence of parts. For a task
// the artifacts are read in order; the status message is used when the task
// produced no artifact.
func (r Reply) Parts() []Part {
	switch {
	case r.Message != nil:
		return r.Message.Parts
	case r.Task != nil:
		var parts []Part
		for _, artifact := range r.Task.Artifacts {
			parts = append(parts, artifact.Parts...)
		}
		if len(parts) == 0 && r.Task.Status.Message != nil {
			parts = r.Task.Status.Message.Parts
		}
		return parts
	}
	return nil
}

// Text concatenates the reply's text content in received order. Data parts
// are rendered as JSON. The boolean is false when there was nothing to read.
func (r Reply) Text() (string, bool) {
	return PartsText(r.Parts())
}

// PartsText joins text and data parts without a separator
func PartsText(parts []Part) (string, bool) {
	var sb strings.Builder
	found := false
	for _, part := range parts {
		switch part.Kind {
		case PartKindText:
			if part.Text == "" {
				continue
			}
			sb.WriteString(part.Text)
			found = true
		case PartKindData:
			if part.Data == nil {
				continue
			}
			if s, ok := part.Data.(string); ok {
				sb.WriteString(s)
			} else if b, err := json.Marshal(part.Data); err == nil {
				sb.Write(b)
			}
			found = true
		}
	}
	return sb.String(), found
}

// State returns the task state, or completed for a direct message
func (r Reply) State() TaskState {
	if r.Task != nil {
		return r.Task.Status.State
	}
	return TaskStateCompleted
}

type resultKind struct {
	Kind string `json:"kind"`
}

// replyFolder accumulates a JSON-RPC result or a sequence of streamed events
// into one Reply.
type replyFolder struct {
	reply Reply
	done  bool
}

func (f *replyFolder) add(raw json.RawMessage) error {
	var shape resultKind
	if err := json.Unmarshal(raw, &shape); err != nil {
		return fmt.Errorf("decode result kind: %w", err)
	}

	switch shape.Kind {
	case "message":
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			return fmt.Errorf("decode message: %w", err)
		}
		f.reply = Reply{Message: &msg}
		f.done = true
	case "task":
		var task Task
		if err := json.Unmarshal(raw, &task); err != nil {
			return fmt.Errorf("decode task: %w", err)
		}
		f.reply = Reply{Task: &task}
		f.done = task.Status.State.Terminal()
	case "status-update":
		var ev TaskStatusUpdateEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("decode status update: %w", err)
		}
		task := f.task(ev.TaskID, ev.ContextID)
		task.Status = ev.Status
		f.done = ev.Final || ev.Status.State.Terminal()
	case "artifact-update":
		var ev TaskArtifactUpdateEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("decode artifact update: %w", err)
		}
		f.mergeArtifact(f.task(ev.TaskID, ev.ContextID), ev)
	default:
		return fmt.Errorf("unexpected result kind %q", shape.Kind)
	}
	return nil
}

func (f *replyFolder) task(id, contextID string) *Task {
	if f.reply.Task == nil {
		f.reply = Reply{Task: &Task{Kind: "task", ID: id, ContextID: contextID}}
	}
	return f.reply.Task
}

func (f *replyFolder) mergeArtifact(task *Task, ev TaskArtifactUpdateEvent) {
	for i := range task.Artifacts {
		if task.Artifacts[i].ArtifactID != ev.Artifact.ArtifactID {
			continue
		}
		if ev.Append {
			task.Artifacts[i].Parts = append(task.Artifacts[i].Parts, ev.Artifact.Parts...)
		} else {
			task.Artifacts[i] = ev.Artifact
		}
		return
	}
	task.Artifacts = append(task.Artifacts, ev.Artifact)
}

func (f *replyFolder) result() (Reply, error) {
	if f.reply.Message == nil && f.reply.Task == nil {
		return Reply{}, fmt.Errorf("agent returned no result")
	}
	return f.reply, nil
}
