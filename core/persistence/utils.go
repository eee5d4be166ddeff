package persistence

import (
	"time"

	"github.com/asaidimu/go-crudsql/core/query"
)

func createEvent(
	eventType PersistenceEventType,
	operation string,
	table string,
	cmd *query.Command,
	input any,
	output any,
	err error,
	startTime time.Time,
) PersistenceEvent {
	var duration *int64
	if !startTime.IsZero() {
		d := time.Since(startTime).Milliseconds()
		duration = &d
	}

	var errStr *string
	if err != nil {
		s := err.Error()
		errStr = &s
	}

	event := PersistenceEvent{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Operation: operation,
		Input:     input,
		Output:    output,
		Error:     errStr,
		Duration:  duration,
	}
	if table != "" {
		event.Table = &table
	}
	if cmd != nil {
		event.SQL = cmd.SQL
		event.Dialect = cmd.Dialect
		event.Params = len(cmd.Params)
	}
	return event
}
