// Package identity resolves heterogeneous raw inputs (literal
// identifiers and delimited tabular sources) into a deduplicated,
// normalized set of principal identifiers.
package identity

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/entraops/lictl/internal/logger"
)

// identifierColumns are the header names recognized as "this column
// holds principal identifiers", matched case-insensitively.
var identifierColumns = []string{
	"userprincipalname",
	"upn",
	"identifier",
	"email",
	"emailaddress",
	"mail",
	"user",
}

// Input is the raw material for one resolution pass.
type Input struct {
	// Literals are identifiers given directly (e.g. --user flags).
	Literals []string
	// Sources are paths to delimited files holding identifiers.
	Sources []string
}

// Result is the outcome of a resolution pass. Identifiers preserves
// first-occurrence order and contains no case-insensitive duplicates
// and no empty entries. Warnings collects the non-fatal problems hit
// along the way (empty sources, header fallbacks, unreadable files).
type Result struct {
	Identifiers []string
	Warnings    []string
}

// Resolve collects identifiers from all inputs. A source that cannot
// be read is reported and skipped; it never aborts resolution of the
// remaining inputs.
func Resolve(in Input) *Result {
	res := &Result{}
	seen := make(map[string]bool)

	add := func(raw string) {
		id := strings.TrimSpace(raw)
		if id == "" {
			return
		}
		key := strings.ToLower(id)
		if seen[key] {
			return
		}
		seen[key] = true
		res.Identifiers = append(res.Identifiers, id)
	}

	for _, lit := range in.Literals {
		add(lit)
	}

	for _, path := range in.Sources {
		ids, warnings, err := readSource(path)
		for _, w := range warnings {
			logger.Warn(w, logger.KeySource, path)
			res.Warnings = append(res.Warnings, w)
		}
		if err != nil {
			msg := fmt.Sprintf("skipping unreadable source %s: %v", path, err)
			logger.Warn("skipping unreadable source", logger.KeySource, path, logger.KeyError, err.Error())
			res.Warnings = append(res.Warnings, msg)
			continue
		}
		for _, id := range ids {
			add(id)
		}
	}

	logger.Debug("identifier resolution complete",
		logger.KeyCount, len(res.Identifiers))

	return res
}

// readSource reads one delimited file and extracts its identifier
// column. Column selection:
//   - exactly one column: every row (header included) is an identifier
//   - multiple columns: the first header matching identifierColumns,
//     falling back to the first column with a warning
func readSource(path string) ([]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) == 0 {
		return nil, []string{fmt.Sprintf("source %s is empty", path)}, nil
	}

	if len(records[0]) == 1 {
		var ids []string
		for _, row := range records {
			if len(row) > 0 {
				ids = append(ids, row[0])
			}
		}
		return ids, nil, nil
	}

	col, matched := matchIdentifierColumn(records[0])
	var warnings []string
	if !matched {
		warnings = append(warnings, fmt.Sprintf(
			"source %s has no identifier-like column header, falling back to the first column", path))
	}
	logger.Debug("identifier column selected",
		logger.KeySource, path,
		logger.KeyColumn, strings.TrimSpace(records[0][col]))

	var ids []string
	for _, row := range records[1:] {
		if col < len(row) {
			ids = append(ids, row[col])
		}
	}
	return ids, warnings, nil
}

// matchIdentifierColumn returns the index of the first header matching
// the identifier candidate list, or (0, false) when none matches.
func matchIdentifierColumn(header []string) (int, bool) {
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		for _, candidate := range identifierColumns {
			if key == candidate {
				return i, true
			}
		}
	}
	return 0, false
}
