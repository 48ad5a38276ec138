package storage

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/amnyam666/tgdailybot/internal/constants"
	"github.com/amnyam666/tgdailybot/internal/errors"
	"github.com/amnyam666/tgdailybot/internal/logger"
	"github.com/amnyam666/tgdailybot/internal/models"
	"github.com/amnyam666/tgdailybot/internal/reminder"
)

const schemaURL = "tgdaily://store.schema.json"

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// Document is the on-disk layout of the local store.
type Document struct {
	Version  int                    `json:"version"`
	Settings models.Settings        `json:"settings"`
	Tasks    map[string]models.Task `json:"tasks"`
}

// JSONStore keeps the whole task list in a single JSON document,
// rewritten on every change. Other processes may rewrite the file too, so
// every operation first re-reads it if its bytes differ from the last ones
// this store read or wrote.
type JSONStore struct {
	path  string
	store *Document
	raw   []byte
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
	}
}

func storeSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// ValidateDocument checks raw store bytes against the embedded schema.
func ValidateDocument(data []byte) error {
	schema, err := storeSchema()
	if err != nil {
		return fmt.Errorf("failed to compile store schema: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("storage document is invalid: %s", schemaMessages(err))
	}
	return nil
}

func schemaMessages(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	var msgs []string
	collectSchemaMessages(ve, &msgs)
	return strings.Join(msgs, "; ")
}

func collectSchemaMessages(err *jsonschema.ValidationError, msgs *[]string) {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*msgs = append(*msgs, fmt.Sprintf("%s: %s", loc, err.Message))
		return
	}
	for _, cause := range err.Causes {
		collectSchemaMessages(cause, msgs)
	}
}

func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	s.store = &Document{
		Version:  1,
		Settings: models.DefaultSettings(),
		Tasks:    make(map[string]models.Task),
	}

	return s.save()
}

func (s *JSONStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	if err := ValidateDocument(data); err != nil {
		return err
	}

	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}

	if doc.Tasks == nil {
		doc.Tasks = make(map[string]models.Task)
	}
	doc.Settings.Normalize()

	s.store = doc
	s.raw = data
	return nil
}

// refresh reloads the document when the file no longer holds what this
// store last read or wrote.
func (s *JSONStore) refresh() error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read storage: %w", err)
	}
	if bytes.Equal(data, s.raw) {
		return nil
	}
	logger.Debug("Store changed on disk, reloading", "path", s.path)
	return s.Load()
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	// write-then-rename keeps the previous document intact on failure
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		s.raw = nil
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.raw = nil
		return fmt.Errorf("failed to write storage: %w", err)
	}

	s.raw = data
	return nil
}

func (s *JSONStore) GetSettings() (models.Settings, error) {
	if err := s.refresh(); err != nil {
		return models.Settings{}, err
	}
	return s.store.Settings, nil
}

func (s *JSONStore) SaveSettings(settings models.Settings) error {
	return s.UpdateSettings(settings, false)
}

func (s *JSONStore) UpdateSettings(settings models.Settings, resetNotified bool) error {
	if err := s.refresh(); err != nil {
		return err
	}
	settings.Normalize()
	s.store.Settings = settings
	if resetNotified {
		tasks := make([]models.Task, 0, len(s.store.Tasks))
		for _, task := range s.store.Tasks {
			tasks = append(tasks, task)
		}
		for _, task := range reminder.ResetNotified(tasks) {
			s.store.Tasks[task.ID] = task
		}
	}
	return s.save()
}

func (s *JSONStore) AddTask(task models.Task) error {
	if err := s.refresh(); err != nil {
		return err
	}
	if err := task.Validate(); err != nil {
		return err
	}
	if _, exists := s.store.Tasks[task.ID]; exists {
		return fmt.Errorf("task already exists: %s", task.ID)
	}

	s.store.Tasks[task.ID] = task
	return s.save()
}

func (s *JSONStore) GetTask(id string) (models.Task, error) {
	if err := s.refresh(); err != nil {
		return models.Task{}, err
	}

	task, ok := s.store.Tasks[id]
	if !ok {
		return models.Task{}, fmt.Errorf("%w: %s", errors.ErrNotFound, id)
	}

	return task, nil
}

func (s *JSONStore) GetAllTasks() ([]models.Task, error) {
	if err := s.refresh(); err != nil {
		return nil, err
	}

	tasks := make([]models.Task, 0, len(s.store.Tasks))
	for _, task := range s.store.Tasks {
		tasks = append(tasks, task)
	}
	models.SortTasks(tasks)

	return tasks, nil
}

func (s *JSONStore) UpdateTask(task models.Task) error {
	return s.SaveTasks([]models.Task{task})
}

func (s *JSONStore) SaveTasks(tasks []models.Task) error {
	if err := s.refresh(); err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}

	for i := range tasks {
		if _, ok := s.store.Tasks[tasks[i].ID]; !ok {
			return fmt.Errorf("%w: %s", errors.ErrNotFound, tasks[i].ID)
		}
		if err := tasks[i].Validate(); err != nil {
			return err
		}
	}
	for _, task := range tasks {
		s.store.Tasks[task.ID] = task
	}
	return s.save()
}

func (s *JSONStore) DeleteTask(id string) error {
	if err := s.refresh(); err != nil {
		return err
	}

	if _, ok := s.store.Tasks[id]; !ok {
		return fmt.Errorf("%w: %s", errors.ErrNotFound, id)
	}

	delete(s.store.Tasks, id)
	return s.save()
}

func (s *JSONStore) MarkNotified(marks []models.NotifiedMark) (int, error) {
	if err := s.refresh(); err != nil {
		return 0, err
	}

	applied := 0
	for _, m := range marks {
		task, ok := s.store.Tasks[m.TaskID]
		if !ok || !m.Applies(task) {
			continue
		}
		trigger := m.TriggerMs
		task.NotifiedForMs = &trigger
		s.store.Tasks[m.TaskID] = task
		applied++
	}
	if applied == 0 {
		return 0, nil
	}
	return applied, s.save()
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}
