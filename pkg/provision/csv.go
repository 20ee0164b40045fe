package provision

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Row is one provisioning input record: the recognized account
// attributes plus every column the parser did not recognize, echoed
// verbatim into the run report.
type Row struct {
	UserPrincipalName string
	DisplayName       string
	MailNickname      string
	GivenName         string
	Surname           string
	Department        string
	JobTitle          string
	UsageLocation     string
	AccountEnabled    bool
	Extra             map[string]string
}

// attributeColumns maps recognized header names (lowercased, spaces
// and underscores stripped) to a field setter.
var attributeColumns = map[string]func(*Row, string){
	"userprincipalname": func(r *Row, v string) { r.UserPrincipalName = v },
	"upn":               func(r *Row, v string) { r.UserPrincipalName = v },
	"identifier":        func(r *Row, v string) { r.UserPrincipalName = v },
	"email":             func(r *Row, v string) { r.UserPrincipalName = v },
	"displayname":       func(r *Row, v string) { r.DisplayName = v },
	"name":              func(r *Row, v string) { r.DisplayName = v },
	"mailnickname":      func(r *Row, v string) { r.MailNickname = v },
	"givenname":         func(r *Row, v string) { r.GivenName = v },
	"firstname":         func(r *Row, v string) { r.GivenName = v },
	"surname":           func(r *Row, v string) { r.Surname = v },
	"lastname":          func(r *Row, v string) { r.Surname = v },
	"department":        func(r *Row, v string) { r.Department = v },
	"jobtitle":          func(r *Row, v string) { r.JobTitle = v },
	"title":             func(r *Row, v string) { r.JobTitle = v },
	"usagelocation":     func(r *Row, v string) { r.UsageLocation = v },
	"location":          func(r *Row, v string) { r.UsageLocation = v },
}

// ParseCSV reads a provisioning CSV. The first record is the header;
// recognized columns fill the account attributes, everything else lands
// in Extra under its original header. Accounts are enabled unless an
// accountenabled/enabled column says otherwise. Rows without an
// identifier are returned as errors alongside the good rows so callers
// can report them without dropping the rest of the file.
func ParseCSV(r io.Reader) ([]Row, []error, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("provisioning file is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read provisioning header: %w", err)
	}

	var rows []Row
	var rowErrs []error
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("line %d: %w", line, err))
			continue
		}

		row := Row{AccountEnabled: true, Extra: make(map[string]string)}
		for i, raw := range record {
			if i >= len(header) {
				break
			}
			value := strings.TrimSpace(raw)
			name := normalizeColumn(header[i])
			if set, ok := attributeColumns[name]; ok {
				set(&row, value)
				continue
			}
			if name == "accountenabled" || name == "enabled" {
				if enabled, err := strconv.ParseBool(value); err == nil {
					row.AccountEnabled = enabled
				}
				continue
			}
			if value != "" {
				row.Extra[strings.TrimSpace(header[i])] = value
			}
		}

		if row.UserPrincipalName == "" {
			rowErrs = append(rowErrs, fmt.Errorf("line %d: no identifier column value", line))
			continue
		}
		if row.DisplayName == "" {
			row.DisplayName = displayNameFromUPN(row.UserPrincipalName)
		}
		rows = append(rows, row)
	}
	return rows, rowErrs, nil
}

func normalizeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "")
	return strings.ReplaceAll(name, "_", "")
}

// displayNameFromUPN derives a readable name from the local part of
// the identifier when the input has no display name column.
func displayNameFromUPN(upn string) string {
	local, _, _ := strings.Cut(upn, "@")
	words := strings.Split(local, ".")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
