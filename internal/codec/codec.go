// Package codec serializes task and log collections for the KV adapter and
// validates persisted blobs before they are trusted.
package codec

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/fentz26/tasklog/internal/models"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Fixed KV keys, one per collection.
const (
	TasksKey = "@tasks"
	LogKey   = "@taskLogs"
)

//go:embed schema/*.json
var schemaFS embed.FS

const (
	tasksSchemaURL = "mem://tasklog/tasks.json"
	logSchemaURL   = "mem://tasklog/log.json"
)

var (
	compileOnce sync.Once
	tasksSchema *jsonschema.Schema
	logSchema   *jsonschema.Schema
	compileErr  error
)

func schemas() (*jsonschema.Schema, *jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true

		for url, file := range map[string]string{
			tasksSchemaURL: "schema/tasks.json",
			logSchemaURL:   "schema/log.json",
		} {
			data, err := schemaFS.ReadFile(file)
			if err != nil {
				compileErr = fmt.Errorf("read schema %s: %w", file, err)
				return
			}
			if err := compiler.AddResource(url, strings.NewReader(string(data))); err != nil {
				compileErr = fmt.Errorf("add schema %s: %w", file, err)
				return
			}
		}

		if tasksSchema, compileErr = compiler.Compile(tasksSchemaURL); compileErr != nil {
			return
		}
		logSchema, compileErr = compiler.Compile(logSchemaURL)
	})
	return tasksSchema, logSchema, compileErr
}

// EncodeTasks serializes tasks as a JSON array. A nil slice encodes as [].
func EncodeTasks(tasks []models.Task) (string, error) {
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t
		if out[i].Files == nil {
			out[i].Files = []string{}
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshal tasks: %w", err)
	}
	return string(data), nil
}

// DecodeTasks validates and parses a tasks blob. An empty blob yields an
// empty collection.
func DecodeTasks(blob string) ([]models.Task, error) {
	if strings.TrimSpace(blob) == "" {
		return []models.Task{}, nil
	}
	sch, _, err := schemas()
	if err != nil {
		return nil, err
	}
	if err := validate(sch, blob); err != nil {
		return nil, fmt.Errorf("validate tasks: %w", err)
	}

	var tasks []models.Task
	if err := json.Unmarshal([]byte(blob), &tasks); err != nil {
		return nil, fmt.Errorf("parse tasks: %w", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	for i := range tasks {
		if tasks[i].Files == nil {
			tasks[i].Files = []string{}
		}
	}
	return tasks, nil
}

// EncodeLog serializes log entries as a JSON array, newest first.
func EncodeLog(entries []models.LogEntry) (string, error) {
	if entries == nil {
		entries = []models.LogEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshal log: %w", err)
	}
	return string(data), nil
}

// DecodeLog validates and parses a log blob.
func DecodeLog(blob string) ([]models.LogEntry, error) {
	if strings.TrimSpace(blob) == "" {
		return []models.LogEntry{}, nil
	}
	_, sch, err := schemas()
	if err != nil {
		return nil, err
	}
	if err := validate(sch, blob); err != nil {
		return nil, fmt.Errorf("validate log: %w", err)
	}

	var entries []models.LogEntry
	if err := json.Unmarshal([]byte(blob), &entries); err != nil {
		return nil, fmt.Errorf("parse log: %w", err)
	}
	if entries == nil {
		entries = []models.LogEntry{}
	}
	return entries, nil
}

func validate(sch *jsonschema.Schema, blob string) error {
	var v interface{}
	if err := json.Unmarshal([]byte(blob), &v); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	return sch.Validate(v)
}
