package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFormat marks a model reply that is not the expected strict JSON.
// Callers surface this differently from transport failures.
var ErrInvalidFormat = errors.New("AI返回的格式无效")

// ExtractedTodo holds the nine fields the text extraction prompt requires.
type ExtractedTodo struct {
	Title           string   `json:"title"`
	DueDate         string   `json:"due_date"`
	DueTime         string   `json:"due_time"`
	Description     string   `json:"description"`
	InvolvedPeople  []string `json:"involved_people"`
	ReminderEnabled bool     `json:"reminder_enabled"`
	ReminderMethod  string   `json:"reminder_method"`
	Priority        string   `json:"priority"`
	Tags            []string `json:"tags"`
}

// ExtractedEvent is one event recognized from an image.
type ExtractedEvent struct {
	Title           string   `json:"title"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	Location        string   `json:"location,omitempty"`
	Description     string   `json:"description"`
	Category        string   `json:"category,omitempty"`
	Priority        string   `json:"priority"`
	InvolvedPeople  []string `json:"involved_people"`
	ReminderEnabled bool     `json:"reminder_enabled"`
	ReminderMethod  string   `json:"reminder_method"`
}

// TodoExtraction is the reply contract for the text flow.
type TodoExtraction struct {
	Extracted ExtractedTodo `json:"extracted"`
	Questions []string      `json:"questions"`
}

// EventExtraction is the reply contract for the image flow.
type EventExtraction struct {
	Extracted []ExtractedEvent `json:"extracted"`
	Questions []string         `json:"questions"`
}

// StripFences removes a leading/trailing markdown code fence if present.
// Some deployments wrap the JSON payload in ```json ... ``` markers.
func StripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```json") && strings.HasSuffix(trimmed, "```") {
		return strings.TrimSpace(trimmed[len("```json") : len(trimmed)-3])
	}
	if strings.HasPrefix(trimmed, "```") && strings.HasSuffix(trimmed, "```") && len(trimmed) > 6 {
		return strings.TrimSpace(trimmed[3 : len(trimmed)-3])
	}
	return trimmed
}

// ParseTodoExtraction parses a text-flow reply.
func ParseTodoExtraction(content string) (TodoExtraction, error) {
	var out TodoExtraction
	if err := json.Unmarshal([]byte(StripFences(content)), &out); err != nil {
		return TodoExtraction{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	applyTodoDefaults(&out.Extracted)
	if out.Questions == nil {
		out.Questions = []string{}
	}
	return out, nil
}

// ParseEventExtraction parses an image-flow reply.
func ParseEventExtraction(content string) (EventExtraction, error) {
	var out EventExtraction
	if err := json.Unmarshal([]byte(StripFences(content)), &out); err != nil {
		return EventExtraction{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if out.Extracted == nil {
		out.Extracted = []ExtractedEvent{}
	}
	for i := range out.Extracted {
		applyEventDefaults(&out.Extracted[i])
	}
	if out.Questions == nil {
		out.Questions = []string{}
	}
	return out, nil
}

// Fills empty strings and nil slices so callers always see complete
// objects. A missing reminder_enabled decodes to false; the prompt already
// instructs the model to emit it explicitly.
func applyTodoDefaults(t *ExtractedTodo) {
	if t.InvolvedPeople == nil {
		t.InvolvedPeople = []string{}
	}
	if t.ReminderMethod == "" {
		t.ReminderMethod = "系统通知"
	}
	if t.Priority == "" {
		t.Priority = "一般"
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
}

func applyEventDefaults(e *ExtractedEvent) {
	if e.InvolvedPeople == nil {
		e.InvolvedPeople = []string{}
	}
	if e.ReminderMethod == "" {
		e.ReminderMethod = "系统通知"
	}
	if e.Priority == "" {
		e.Priority = "一般"
	}
}
