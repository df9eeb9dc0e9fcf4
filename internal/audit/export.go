package audit

import (
	"bytes"
	"encoding/csv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CSVExporter menulis ekspor timeline dalam format CSV.
type CSVExporter struct {
	printer *message.Printer
}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{printer: message.NewPrinter(language.English)}
}

// WriteCSV merender baris audit menjadi dokumen CSV.
func (e *CSVExporter) WriteCSV(rows []Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"occurred_at", "table", "record_id", "action", "actor_id", "old_values", "new_values", "chain_hash"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			row.OccurredAt.UTC().Format(time.RFC3339),
			row.TableName,
			row.RecordID.String(),
			row.Action,
			row.ActorID.String(),
			string(row.OldValues),
			string(row.NewValues),
			e.printer.Sprintf("%x", row.ChainHash),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
