package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"finfeed/internal/logger"
)

// testEngine mirrors the raw document layout: two opaque payload slots that
// default to an empty object, plus a static stock field written on create.
func testEngine() *Engine {
	slots := []Slot{
		{Name: "newsapi", Default: json.RawMessage(`{}`)},
		{Name: "gnews", Default: json.RawMessage(`{}`)},
	}
	static := map[string]json.RawMessage{
		"stock": json.RawMessage(`"AAPL"`),
	}

	return NewEngine(slots, static, logger.NewLogger("error"))
}

func readDoc(t *testing.T, path string) map[string]json.RawMessage {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read document: %v", err)
	}

	doc := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Failed to parse document: %v", err)
	}

	return doc
}

func readHistory(t *testing.T, doc map[string]json.RawMessage) []map[string]json.RawMessage {
	t.Helper()

	raw, ok := doc["history"]
	if !ok {
		t.Fatal("Expected history key in document")
	}

	var history []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &history); err != nil {
		t.Fatalf("Failed to parse history: %v", err)
	}

	return history
}

func jsonEqual(a, b json.RawMessage) bool {
	var av, bv interface{}

	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}

	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}

	return reflect.DeepEqual(av, bv)
}

func TestEngine_Merge_CreatesFlatDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "AAPL.json")
	engine := testEngine()

	payload := json.RawMessage(`{"status":"ok","articles":[{"title":"A1"}]}`)

	got, err := engine.Merge(path, "2025-01-01T00:00:00Z", map[string]json.RawMessage{
		"newsapi": payload,
	})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if got != path {
		t.Errorf("Expected returned path %s, got %s", path, got)
	}

	doc := readDoc(t, path)

	if string(doc["timestamp"]) != `"2025-01-01T00:00:00Z"` {
		t.Errorf("Expected timestamp field, got %s", doc["timestamp"])
	}

	if string(doc["stock"]) != `"AAPL"` {
		t.Errorf("Expected static stock field, got %s", doc["stock"])
	}

	if !jsonEqual(doc["newsapi"], payload) {
		t.Errorf("Expected newsapi payload stored verbatim, got %s", doc["newsapi"])
	}

	// The slot that received nothing defaults to an empty object.
	if !jsonEqual(doc["gnews"], json.RawMessage(`{}`)) {
		t.Errorf("Expected empty gnews default, got %s", doc["gnews"])
	}

	if _, ok := doc["history"]; ok {
		t.Error("Fresh document must not carry a history log")
	}
}

func TestEngine_Merge_FirstMergeMigratesFlatDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "AAPL.json")
	engine := testEngine()

	first := json.RawMessage(`{"run":1}`)
	second := json.RawMessage(`{"run":2}`)

	if _, err := engine.Merge(path, "2025-01-01T00:00:00Z", map[string]json.RawMessage{"newsapi": first}); err != nil {
		t.Fatalf("First merge failed: %v", err)
	}

	if _, err := engine.Merge(path, "2025-01-02T00:00:00Z", map[string]json.RawMessage{"newsapi": second}); err != nil {
		t.Fatalf("Second merge failed: %v", err)
	}

	doc := readDoc(t, path)

	if !jsonEqual(doc["newsapi"], second) {
		t.Errorf("Expected top-level newsapi from second merge, got %s", doc["newsapi"])
	}

	history := readHistory(t, doc)
	if len(history) != 1 {
		t.Fatalf("Expected exactly 1 history entry after second merge, got %d", len(history))
	}

	// The single entry is the superseded first state.
	if !jsonEqual(history[0]["newsapi"], first) {
		t.Errorf("Expected first payload in history, got %s", history[0]["newsapi"])
	}

	if string(history[0]["timestamp"]) != `"2025-01-01T00:00:00Z"` {
		t.Errorf("Expected first timestamp in history, got %s", history[0]["timestamp"])
	}
}

func TestEngine_Merge_HistoryHoldsSupersededStatesOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "AAPL.json")
	engine := testEngine()

	runs := []json.RawMessage{
		json.RawMessage(`{"run":1}`),
		json.RawMessage(`{"run":2}`),
		json.RawMessage(`{"run":3}`),
	}
	timestamps := []string{
		"2025-01-01T00:00:00Z",
		"2025-01-02T00:00:00Z",
		"2025-01-03T00:00:00Z",
	}

	for i, run := range runs {
		if _, err := engine.Merge(path, timestamps[i], map[string]json.RawMessage{"newsapi": run}); err != nil {
			t.Fatalf("Merge %d failed: %v", i+1, err)
		}
	}

	doc := readDoc(t, path)

	if !jsonEqual(doc["newsapi"], runs[2]) {
		t.Errorf("Expected latest payload at top level, got %s", doc["newsapi"])
	}

	history := readHistory(t, doc)
	if len(history) != 2 {
		t.Fatalf("Expected 2 history entries after 3 merges, got %d", len(history))
	}

	for i := range history {
		if !jsonEqual(history[i]["newsapi"], runs[i]) {
			t.Errorf("History entry %d: expected run %d payload, got %s", i, i+1, history[i]["newsapi"])
		}

		if !jsonEqual(history[i]["timestamp"], mustMarshal(timestamps[i])) {
			t.Errorf("History entry %d: expected timestamp %s, got %s", i, timestamps[i], history[i]["timestamp"])
		}
	}
}

func TestEngine_Merge_LegacyDocumentWithoutTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "AAPL.json")
	engine := testEngine()

	// A document written before timestamps and history logs existed.
	legacy := `{"newsapi": {"run": 0}, "gnews": {}}`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatalf("Failed to write legacy document: %v", err)
	}

	if _, err := engine.Merge(path, "2025-02-01T00:00:00Z", map[string]json.RawMessage{
		"newsapi": json.RawMessage(`{"run":1}`),
	}); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	history := readHistory(t, readDoc(t, path))
	if len(history) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(history))
	}

	if string(history[0]["timestamp"]) != `"unknown"` {
		t.Errorf(`Expected "unknown" snapshot timestamp, got %s`, history[0]["timestamp"])
	}

	if !jsonEqual(history[0]["newsapi"], json.RawMessage(`{"run":0}`)) {
		t.Errorf("Expected legacy payload in history, got %s", history[0]["newsapi"])
	}
}

func TestEngine_Merge_AbsentSlotRetainsStoredValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "AAPL.json")
	engine := testEngine()

	newsapiRun := json.RawMessage(`{"provider":"newsapi"}`)
	gnewsRun := json.RawMessage(`{"provider":"gnews"}`)

	if _, err := engine.Merge(path, "2025-01-01T00:00:00Z", map[string]json.RawMessage{"newsapi": newsapiRun}); err != nil {
		t.Fatalf("First merge failed: %v", err)
	}

	// Second merge updates only the other slot.
	if _, err := engine.Merge(path, "2025-01-02T00:00:00Z", map[string]json.RawMessage{"gnews": gnewsRun}); err != nil {
		t.Fatalf("Second merge failed: %v", err)
	}

	doc := readDoc(t, path)

	if !jsonEqual(doc["newsapi"], newsapiRun) {
		t.Errorf("Expected newsapi retained from first merge, got %s", doc["newsapi"])
	}

	if !jsonEqual(doc["gnews"], gnewsRun) {
		t.Errorf("Expected gnews from second merge, got %s", doc["gnews"])
	}

	history := readHistory(t, doc)
	if len(history) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(history))
	}

	if !jsonEqual(history[0]["gnews"], json.RawMessage(`{}`)) {
		t.Errorf("Expected gnews default in snapshot, got %s", history[0]["gnews"])
	}
}

func TestEngine_Merge_CorruptDocumentOverwritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "AAPL.json")
	engine := testEngine()

	if err := os.WriteFile(path, []byte(`{"timestamp": "broken`), 0644); err != nil {
		t.Fatalf("Failed to write corrupt document: %v", err)
	}

	payload := json.RawMessage(`{"run":1}`)

	if _, err := engine.Merge(path, "2025-01-01T00:00:00Z", map[string]json.RawMessage{"newsapi": payload}); err != nil {
		t.Fatalf("Merge over corrupt document failed: %v", err)
	}

	doc := readDoc(t, path)

	if !jsonEqual(doc["newsapi"], payload) {
		t.Errorf("Expected fresh payload after overwrite, got %s", doc["newsapi"])
	}

	// The corrupt file's contents, history included, are gone.
	if _, ok := doc["history"]; ok {
		t.Error("Expected no history after corrupt document overwrite")
	}
}

func TestEngine_Merge_IllTypedHistoryOverwritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "AAPL.json")
	engine := testEngine()

	damaged := `{"timestamp": "2025-01-01T00:00:00Z", "newsapi": {}, "gnews": {}, "history": "not a list"}`
	if err := os.WriteFile(path, []byte(damaged), 0644); err != nil {
		t.Fatalf("Failed to write damaged document: %v", err)
	}

	if _, err := engine.Merge(path, "2025-01-02T00:00:00Z", map[string]json.RawMessage{
		"newsapi": json.RawMessage(`{"run":1}`),
	}); err != nil {
		t.Fatalf("Merge over damaged document failed: %v", err)
	}

	doc := readDoc(t, path)
	if _, ok := doc["history"]; ok {
		t.Error("Expected fresh document without history after overwrite")
	}
}

func TestEngine_Merge_PreservesUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "AAPL.json")
	engine := testEngine()

	existing := `{"timestamp": "2025-01-01T00:00:00Z", "stock": "AAPL", "note": "keep me", "newsapi": {"run":1}, "gnews": {}}`
	if err := os.WriteFile(path, []byte(existing), 0644); err != nil {
		t.Fatalf("Failed to write document: %v", err)
	}

	if _, err := engine.Merge(path, "2025-01-02T00:00:00Z", map[string]json.RawMessage{
		"newsapi": json.RawMessage(`{"run":2}`),
	}); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	doc := readDoc(t, path)

	if string(doc["note"]) != `"keep me"` {
		t.Errorf("Expected unknown field preserved, got %s", doc["note"])
	}

	if string(doc["stock"]) != `"AAPL"` {
		t.Errorf("Expected stock field preserved, got %s", doc["stock"])
	}

	// Snapshots carry the timestamp and slots only.
	history := readHistory(t, doc)
	if _, ok := history[0]["note"]; ok {
		t.Error("Unknown fields must not leak into history snapshots")
	}

	if _, ok := history[0]["stock"]; ok {
		t.Error("Static fields must not leak into history snapshots")
	}
}

func TestEngine_Write_IndentedWithVerbatimText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "AAPL.json")
	engine := testEngine()

	payload := json.RawMessage(`{"title":"日本語の見出し","url":"https://example.com/a?b=1&c=2"}`)

	if _, err := engine.Merge(path, "2025-01-01T00:00:00Z", map[string]json.RawMessage{"newsapi": payload}); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read document: %v", err)
	}

	content := string(data)

	if !strings.Contains(content, "日本語の見出し") {
		t.Error("Expected non-ASCII text stored verbatim")
	}

	if strings.Contains(content, `\u0026`) {
		t.Error("Expected ampersand stored without HTML escaping")
	}

	if !strings.Contains(content, "\n  \"") {
		t.Error("Expected two-space indented output")
	}
}
