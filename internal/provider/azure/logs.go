// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package azure

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/monitor/azquery"
	"github.com/juju/errors"
)

// LogEntry is one console log line of the application.
type LogEntry struct {
	Time time.Time
	Line string
}

// AppLogs queries the Log Analytics workspace for console logs of the
// named container app, newer than the given time. Entries are returned
// in ascending time order.
func (p *Provider) AppLogs(ctx context.Context, workspaceCustomerID, appName string, since time.Time) ([]LogEntry, error) {
	query := fmt.Sprintf(
		`ContainerAppConsoleLogs_CL | where ContainerAppName_s == "%s"`,
		appName,
	)
	if !since.IsZero() {
		query += fmt.Sprintf(` | where TimeGenerated > datetime("%s")`, since.UTC().Format(time.RFC3339Nano))
	}
	query += ` | order by TimeGenerated asc | project TimeGenerated, Log_s`

	resp, err := p.logs.QueryWorkspace(ctx, workspaceCustomerID, azquery.Body{
		Query: &query,
	}, nil)
	if err != nil {
		return nil, errors.Annotatef(err, "querying logs for app %q", appName)
	}

	var entries []LogEntry
	for _, table := range resp.Tables {
		timeIdx, logIdx := -1, -1
		for i, col := range table.Columns {
			if col.Name == nil {
				continue
			}
			switch *col.Name {
			case "TimeGenerated":
				timeIdx = i
			case "Log_s":
				logIdx = i
			}
		}
		for _, row := range table.Rows {
			if logIdx < 0 || logIdx >= len(row) {
				continue
			}
			line, ok := row[logIdx].(string)
			if !ok || line == "" {
				continue
			}
			var ts time.Time
			if timeIdx >= 0 && timeIdx < len(row) {
				if tsStr, ok := row[timeIdx].(string); ok {
					ts, _ = time.Parse(time.RFC3339Nano, tsStr)
				}
			}
			entries = append(entries, LogEntry{Time: ts, Line: line})
		}
	}
	return entries, nil
}
