package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// recordID renders a SurrealDB record id ("post:abc") from the shapes the
// client may hand back.
func recordID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprintf("%s:%v", v.Table, v.ID)
		}
		return ""
	case map[string]interface{}:
		tb, _ := v["tb"].(string)
		switch inner := v["id"].(type) {
		case string:
			if tb != "" {
				return tb + ":" + inner
			}
			return inner
		case map[string]interface{}:
			if s, ok := inner["String"].(string); ok && tb != "" {
				return tb + ":" + s
			}
		}
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", id)
}

// parseTime parses time from the formats SurrealDB returns
func parseTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	case models.CustomDateTime:
		return t.Time
	case *models.CustomDateTime:
		if t != nil {
			return t.Time
		}
	}
	return time.Time{}
}

// extractQueryResults extracts the record array of the first statement
func extractQueryResults(result []interface{}) []interface{} {
	if len(result) == 0 {
		return nil
	}
	if first, ok := result[0].(map[string]interface{}); ok {
		if records, ok := first["result"].([]interface{}); ok {
			return records
		}
	}
	return result
}

// extractCreatedRecord returns the record produced by a CREATE statement
func extractCreatedRecord(result []interface{}) (map[string]interface{}, error) {
	records := extractQueryResults(result)
	if len(records) == 0 {
		return nil, errors.New("no result returned")
	}
	data, ok := records[0].(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}
	return data, nil
}

// extractCountValue converts various numeric types to int
func extractCountValue(v interface{}) int {
	switch c := v.(type) {
	case float64:
		return int(c)
	case float32:
		return int(c)
	case int:
		return c
	case int64:
		return int(c)
	case uint64:
		return int(c)
	}
	return 0
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
