// Package storage implements the on-disk JSON document stores and the merge
// engine that maintains their append-only history logs.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"finfeed/internal/logger"
)

// Storage errors.
var (
	// ErrNotFound is returned when no document is stored for the requested symbol.
	ErrNotFound = errors.New("document not found")
)

// Reserved top-level document fields maintained by the engine.
const (
	fieldTimestamp = "timestamp"
	fieldHistory   = "history"

	// timestampUnknown marks history snapshots taken from documents that
	// never recorded a timestamp.
	timestampUnknown = "unknown"
)

// Slot is a named top-level section of a stored document tracked across
// merges. Default, when non-nil, stands in for the slot wherever a value
// is missing; a slot with a nil Default is omitted instead.
type Slot struct {
	Name    string
	Default json.RawMessage
}

// Engine folds incoming payloads into a JSON document on disk, moving the
// superseded top-level state into the document's history log.
//
// Documents are handled as raw key/value maps: slot payloads are never
// inspected, and top-level keys the engine does not know about survive
// merges untouched. The engine assumes exclusive access to each path;
// writes are plain overwrites.
type Engine struct {
	slots  []Slot
	static map[string]json.RawMessage
	logger *logger.Logger
}

// NewEngine creates a merge engine for documents composed of the given
// slots. Static fields are written verbatim whenever a fresh document is
// created and are otherwise left alone.
func NewEngine(slots []Slot, static map[string]json.RawMessage, log *logger.Logger) *Engine {
	return &Engine{
		slots:  slots,
		static: static,
		logger: log,
	}
}

// Merge updates the document at path with the slot values in update and
// returns the path. Slots absent from update, or present with a nil value,
// retain whatever the document already holds.
//
// A missing file produces a fresh flat document with no history log. For an
// existing document the pre-merge state is appended to the log first; a
// document predating the history format has that state become the log's
// first entry. A document that cannot be parsed is reported and overwritten
// with a fresh one, losing its history.
func (e *Engine) Merge(path, timestamp string, update map[string]json.RawMessage) (string, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return e.create(path, timestamp, update)
	}

	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}

	doc := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &doc); err != nil {
		e.reportCorrupt(path, err)
		return e.create(path, timestamp, update)
	}

	var history []json.RawMessage
	if rawHistory, ok := doc[fieldHistory]; ok {
		if err := json.Unmarshal(rawHistory, &history); err != nil {
			e.reportCorrupt(path, err)
			return e.create(path, timestamp, update)
		}
	}

	snapshot, err := e.snapshot(doc)
	if err != nil {
		return "", err
	}

	history = append(history, snapshot)

	historyJSON, err := json.Marshal(history)
	if err != nil {
		return "", fmt.Errorf("failed to encode history: %w", err)
	}

	doc[fieldHistory] = historyJSON
	doc[fieldTimestamp] = mustMarshal(timestamp)

	for _, slot := range e.slots {
		if value, ok := update[slot.Name]; ok && value != nil {
			doc[slot.Name] = value
		}
	}

	if err := e.write(path, doc); err != nil {
		return "", err
	}

	return path, nil
}

// create writes a fresh flat document with no history log.
func (e *Engine) create(path, timestamp string, update map[string]json.RawMessage) (string, error) {
	doc := make(map[string]json.RawMessage, len(e.slots)+len(e.static)+1)
	doc[fieldTimestamp] = mustMarshal(timestamp)

	for name, value := range e.static {
		doc[name] = value
	}

	for _, slot := range e.slots {
		if value, ok := update[slot.Name]; ok && value != nil {
			doc[slot.Name] = value
		} else if slot.Default != nil {
			doc[slot.Name] = slot.Default
		}
	}

	if err := e.write(path, doc); err != nil {
		return "", err
	}

	return path, nil
}

// snapshot captures the document's current top-level state as one history
// entry: the timestamp plus every slot, with defaults filling the gaps.
func (e *Engine) snapshot(doc map[string]json.RawMessage) (json.RawMessage, error) {
	entry := make(map[string]json.RawMessage, len(e.slots)+1)

	if ts, ok := doc[fieldTimestamp]; ok {
		entry[fieldTimestamp] = ts
	} else {
		entry[fieldTimestamp] = mustMarshal(timestampUnknown)
	}

	for _, slot := range e.slots {
		if value, ok := doc[slot.Name]; ok {
			entry[slot.Name] = value
		} else if slot.Default != nil {
			entry[slot.Name] = slot.Default
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode history entry: %w", err)
	}

	return data, nil
}

// write serializes the document with two-space indentation. HTML escaping
// is disabled so URLs and non-ASCII text are stored exactly as received.
func (e *Engine) write(path string, doc map[string]json.RawMessage) error {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	return nil
}

func (e *Engine) reportCorrupt(path string, err error) {
	if e.logger != nil {
		e.logger.Warn(fmt.Sprintf("Error merging with existing data at %s: %v (starting fresh)", path, err))
	}
}

func mustMarshal(s string) json.RawMessage {
	data, err := json.Marshal(s)
	if err != nil {
		// Marshaling a plain string cannot fail.
		panic(err)
	}

	return data
}
