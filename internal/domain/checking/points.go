package checking

import (
	"encoding/json"
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// ValidatePointsQuery checks that a points query compiles. Empty queries are valid.
func ValidatePointsQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if _, err := jmespath.Compile(query); err != nil {
		return fmt.Errorf("compile points query: %w", err)
	}
	return nil
}

// PointsFromOutput evaluates query over output parsed as JSON and returns the
// numeric result. ok is false when the output is not JSON or the query does not
// yield a number.
func PointsFromOutput(query, output string) (float64, bool, error) {
	if strings.TrimSpace(query) == "" {
		return 0, false, nil
	}

	var doc any
	if err := json.Unmarshal([]byte(output), &doc); err != nil {
		return 0, false, nil
	}

	res, err := jmespath.Search(query, doc)
	if err != nil {
		return 0, false, fmt.Errorf("evaluate points query: %w", err)
	}

	switch v := res.(type) {
	case float64:
		return v, true, nil
	case int:
		return float64(v), true, nil
	default:
		return 0, false, nil
	}
}
