// Package seed imports task fixtures from CSV files.
package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/taskmaster-dev/task-master/backend/internal/domain"
	"github.com/taskmaster-dev/task-master/backend/internal/service"
)

// Columns every import file must carry. An optional "assignedTo" column
// holds user ids separated by ";".
var RequiredHeaders = []string{"title", "description", "dueDate", "priority", "status"}

const assignedToHeader = "assignedTo"

type TaskCreator interface {
	Create(in service.CreateTaskInput) (*domain.Task, error)
}

// ImportTasks creates one task per data row. Rows the service rejects are
// logged and skipped; a malformed file aborts the import. It returns the
// number of tasks created.
func ImportTasks(r io.Reader, tasks TaskCreator) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, errors.New("empty file")
		}
		return 0, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	for _, required := range RequiredHeaders {
		if !slices.Contains(headers, required) {
			return 0, fmt.Errorf("missing column %q", required)
		}
	}

	created := 0
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return created, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		record := make(map[string]string, len(headers))
		for i, value := range row {
			record[headers[i]] = strings.TrimSpace(value)
		}

		task, err := tasks.Create(inputFromRecord(record))
		if err != nil {
			slog.Error("skipping row", "line", line, "error", err)
			continue
		}

		slog.Debug("task imported", "line", line, "id", task.ID)
		created++
	}

	return created, nil
}

func inputFromRecord(record map[string]string) service.CreateTaskInput {
	in := service.CreateTaskInput{
		Title:       record["title"],
		Description: record["description"],
		DueDate:     record["dueDate"],
		Priority:    record["priority"],
		Status:      record["status"],
	}

	for _, id := range strings.Split(record[assignedToHeader], ";") {
		if id = strings.TrimSpace(id); id != "" {
			in.AssignedTo = append(in.AssignedTo, id)
		}
	}

	return in
}
