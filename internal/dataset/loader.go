package dataset

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hmiddleton/schoolpitch/internal/errors"
)

// Loader reads the three source CSV files and merges them into a Store.
// Every Load builds a fresh Store, so Refresh is a build-then-swap for the
// caller with no locking inside the dataset itself.
type Loader struct {
	logger        *slog.Logger
	financialPath string
	directoryPath string
	sendPath      string
}

func NewLoader(logger *slog.Logger, financialPath, directoryPath, sendPath string) *Loader {
	return &Loader{
		logger:        logger,
		financialPath: financialPath,
		directoryPath: directoryPath,
		sendPath:      sendPath,
	}
}

// Load reads and merges all three sources. A missing or malformed file is
// not fatal; the affected source contributes nothing and loading carries on
// with whatever remains. Load fails only when no school can be built at all.
func (l *Loader) Load() (*Store, error) {
	financial := l.loadSource(l.financialPath, "financial", l.keepFinancial)
	directory := l.loadSource(l.directoryPath, "directory", nil)
	send := l.loadSource(l.sendPath, "send", nil)

	schools := merge(l.logger, financial, directory, send)
	if len(schools) == 0 {
		return nil, errors.New("no schools loaded from any source",
			slog.String("financial", l.financialPath),
			slog.String("directory", l.directoryPath),
			slog.String("send", l.sendPath))
	}
	l.logger.Info("dataset loaded",
		slog.Int("schools", len(schools)),
		slog.Int("financial_rows", len(financial)),
		slog.Int("directory_rows", len(directory)),
		slog.Int("send_rows", len(send)))
	return newStore(schools), nil
}

// keepFinancial drops benchmarking rows whose scrape did not complete. Rows
// without a status column are kept.
func (l *Loader) keepFinancial(row Row) bool {
	status, ok := lookup(row, "status", "Status")
	if !ok {
		return true
	}
	return strings.EqualFold(status, "success")
}

// loadSource reads one CSV into rows keyed by cleaned URN. Rows without a
// usable URN are dropped. Duplicate URNs keep the first occurrence.
func (l *Loader) loadSource(path, name string, keep func(Row) bool) map[string]Row {
	rows := make(map[string]Row)
	if path == "" {
		return rows
	}
	file, err := os.Open(path)
	if err != nil {
		l.logger.Warn("source file unavailable",
			slog.String("source", name),
			slog.String("path", path),
			errors.SlogError(err))
		return rows
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		l.logger.Warn("source file unreadable",
			slog.String("source", name),
			slog.String("path", path),
			errors.SlogError(err))
		return rows
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			l.logger.Warn("skipping malformed row",
				slog.String("source", name),
				errors.SlogError(err))
			continue
		}
		row := make(Row, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			}
		}
		if keep != nil && !keep(row) {
			continue
		}
		urn := CleanURN(String(row, "URN", "urn", "School URN"))
		if urn == "" {
			continue
		}
		if _, exists := rows[urn]; !exists {
			rows[urn] = row
		}
	}
	return rows
}
