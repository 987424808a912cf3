package codec

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/fentz26/tasklog/internal/models"
)

func sampleTasks() []models.Task {
	created := time.Date(2026, 10, 18, 9, 30, 0, 123456789, time.UTC)
	updated := created.Add(2 * time.Hour)
	scheduled := created.Add(24 * time.Hour)

	return []models.Task{
		{
			ID:          "a",
			Title:       "Buy milk",
			Description: "",
			CreatedAt:   created,
			Status:      models.TaskStatusInProgress,
			Files:       []string{},
		},
		{
			ID:             "b",
			Title:          "Dentist",
			Description:    "Bring insurance card",
			Location:       models.StringPtr("12 Main St, Springfield"),
			Coordinates:    &models.Coordinates{Latitude: 39.78, Longitude: -89.65},
			CreatedAt:      created.Add(time.Minute),
			Status:         models.TaskStatusCompleted,
			LastUpdated:    &updated,
			Files:          []string{"/tmp/card.png", "/tmp/form.pdf"},
			ScheduledFor:   &scheduled,
			NotificationID: models.StringPtr("rem-1"),
		},
	}
}

func TestTasksRoundTrip(t *testing.T) {
	tasks := sampleTasks()

	blob, err := EncodeTasks(tasks)
	if err != nil {
		t.Fatalf("EncodeTasks failed: %v", err)
	}
	got, err := DecodeTasks(blob)
	if err != nil {
		t.Fatalf("DecodeTasks failed: %v", err)
	}
	if !reflect.DeepEqual(got, tasks) {
		t.Errorf("Round trip mismatch:\n got  %+v\n want %+v", got, tasks)
	}
}

func TestTasksAbsentFieldsStayAbsent(t *testing.T) {
	blob, err := EncodeTasks(sampleTasks()[:1])
	if err != nil {
		t.Fatalf("EncodeTasks failed: %v", err)
	}
	for _, key := range []string{"location", "coordinates", "lastUpdated", "scheduledFor", "notificationId"} {
		if strings.Contains(blob, `"`+key+`"`) {
			t.Errorf("Expected %s to be omitted, blob: %s", key, blob)
		}
	}
	if !strings.Contains(blob, `"files":[]`) {
		t.Errorf("Expected empty files array, blob: %s", blob)
	}
}

func TestEncodeNilCollections(t *testing.T) {
	blob, err := EncodeTasks(nil)
	if err != nil || blob != "[]" {
		t.Errorf("Expected [], got %q err=%v", blob, err)
	}
	blob, err = EncodeLog(nil)
	if err != nil || blob != "[]" {
		t.Errorf("Expected [], got %q err=%v", blob, err)
	}
}

func TestEncodeTasksNilFiles(t *testing.T) {
	tasks := sampleTasks()[:1]
	tasks[0].Files = nil

	blob, _ := EncodeTasks(tasks)
	got, err := DecodeTasks(blob)
	if err != nil {
		t.Fatalf("DecodeTasks failed: %v", err)
	}
	if got[0].Files == nil || len(got[0].Files) != 0 {
		t.Errorf("Expected empty non-nil files, got %#v", got[0].Files)
	}
	if tasks[0].Files != nil {
		t.Error("EncodeTasks must not mutate its input")
	}
}

func TestDecodeTasksMissingFiles(t *testing.T) {
	blob := `[{"id":"x","title":"t","description":"","createdAt":"2026-10-18T09:30:00Z","status":"In Progress"}]`
	got, err := DecodeTasks(blob)
	if err != nil {
		t.Fatalf("DecodeTasks failed: %v", err)
	}
	if len(got) != 1 || got[0].Files == nil {
		t.Errorf("Expected one task with empty files, got %#v", got)
	}
}

func TestDecodeTasksRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"not json", `{{`},
		{"not array", `{"id":"x"}`},
		{"bad status", `[{"id":"x","title":"t","createdAt":"2026-10-18T09:30:00Z","status":"Done"}]`},
		{"missing title", `[{"id":"x","createdAt":"2026-10-18T09:30:00Z","status":"Completed"}]`},
		{"bad timestamp", `[{"id":"x","title":"t","createdAt":"yesterday","status":"Completed"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeTasks(tt.blob); err == nil {
				t.Errorf("Expected error for %s", tt.blob)
			}
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	tasks, err := DecodeTasks("")
	if err != nil || tasks == nil || len(tasks) != 0 {
		t.Errorf("Expected empty tasks, got %#v err=%v", tasks, err)
	}
	entries, err := DecodeLog("  ")
	if err != nil || entries == nil || len(entries) != 0 {
		t.Errorf("Expected empty log, got %#v err=%v", entries, err)
	}
}

func TestLogRoundTrip(t *testing.T) {
	ts := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	entries := []models.LogEntry{
		{
			ID:        "2",
			TaskID:    "b",
			TaskTitle: "Dentist",
			Action:    models.LogActionStatusChanged,
			Timestamp: ts.Add(time.Minute),
			Details:   "Status changed from In Progress to Completed",
			OldValue:  models.StringPtr("In Progress"),
			NewValue:  models.StringPtr("Completed"),
		},
		{
			ID:        "1",
			TaskID:    "b",
			TaskTitle: "Dentist",
			Action:    models.LogActionCreated,
			Timestamp: ts,
			Details:   `Task "Dentist" created`,
		},
	}

	blob, err := EncodeLog(entries)
	if err != nil {
		t.Fatalf("EncodeLog failed: %v", err)
	}
	got, err := DecodeLog(blob)
	if err != nil {
		t.Fatalf("DecodeLog failed: %v", err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Errorf("Round trip mismatch:\n got  %+v\n want %+v", got, entries)
	}
}

func TestDecodeLogRejectsUnknownAction(t *testing.T) {
	blob := `[{"id":"1","taskId":"a","taskTitle":"t","action":"renamed","timestamp":"2026-10-18T09:30:00Z"}]`
	if _, err := DecodeLog(blob); err == nil {
		t.Error("Expected unknown action to be rejected")
	}
}
