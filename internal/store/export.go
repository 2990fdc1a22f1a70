package store

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// agentRow is one exported agent record, the per-startup outcome row of
// the analysis dataset.
type agentRow struct {
	BatchID         string  `json:"batch_id"`
	Run             int     `json:"run"`
	AgentID         int     `json:"agent_id"`
	FinalStatus     string  `json:"final_status"`
	MonthsSurvived  int     `json:"months_survived"`
	Funded          bool    `json:"funded"`
	FundingReceived float64 `json:"funding_received"`
	FinalCapital    float64 `json:"final_capital"`
	FinalPMF        float64 `json:"final_pmf"`
	FinalRevenue    float64 `json:"final_revenue"`
	FinalValuation  float64 `json:"final_valuation"`
}

var exportHeader = []string{
	"batch_id", "run", "agent_id", "final_status", "months_survived",
	"funded", "funding_received", "final_capital", "final_pmf",
	"final_revenue", "final_valuation",
}

// ExportJSONL writes every agent record of the batch to w, one JSON
// object per line.
func (s *Store) ExportJSONL(ctx context.Context, batchID string, w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.agentRows(ctx, batchID)
	if err != nil {
		return err
	}
	defer rows.Close()

	bw := bufio.NewWriter(w)
	for rows.Next() {
		row, err := scanAgentRow(rows)
		if err != nil {
			return err
		}
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to marshal agent record: %w", err)
		}
		data = append(data, '\n')
		if _, err := bw.Write(data); err != nil {
			return fmt.Errorf("failed to write agent record: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate agents of batch %s: %w", batchID, err)
	}
	return bw.Flush()
}

// ExportCSV writes the same agent records as a CSV table with a header
// row. Floats are formatted to round-trip exactly.
func (s *Store) ExportCSV(ctx context.Context, batchID string, w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.agentRows(ctx, batchID)
	if err != nil {
		return err
	}
	defer rows.Close()

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for rows.Next() {
		row, err := scanAgentRow(rows)
		if err != nil {
			return err
		}
		record := []string{
			row.BatchID,
			strconv.Itoa(row.Run),
			strconv.Itoa(row.AgentID),
			row.FinalStatus,
			strconv.Itoa(row.MonthsSurvived),
			strconv.FormatBool(row.Funded),
			formatFloat(row.FundingReceived),
			formatFloat(row.FinalCapital),
			formatFloat(row.FinalPMF),
			formatFloat(row.FinalRevenue),
			formatFloat(row.FinalValuation),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate agents of batch %s: %w", batchID, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// agentRows checks that the batch exists and returns its agent records
// in run, agent order.
func (s *Store) agentRows(ctx context.Context, batchID string) (*sql.Rows, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM batches WHERE id = ?`, batchID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("batch %s not found", batchID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up batch %s: %w", batchID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT batch_id, run, agent_id, final_status, months_survived,
			funded, funding_received, final_capital, final_pmf,
			final_revenue, final_valuation
		FROM agents WHERE batch_id = ? ORDER BY run, agent_id
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents of batch %s: %w", batchID, err)
	}
	return rows, nil
}

func scanAgentRow(rows *sql.Rows) (agentRow, error) {
	var row agentRow
	var funded int
	if err := rows.Scan(&row.BatchID, &row.Run, &row.AgentID, &row.FinalStatus,
		&row.MonthsSurvived, &funded, &row.FundingReceived, &row.FinalCapital,
		&row.FinalPMF, &row.FinalRevenue, &row.FinalValuation); err != nil {
		return agentRow{}, fmt.Errorf("failed to scan agent record: %w", err)
	}
	row.Funded = funded != 0
	return row, nil
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
