package http

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/odyssey-erp/bukubesar/internal/accounting/reports"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeComment(line string) error {
	if s == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	line = strings.TrimRight(line, "\r\n") + "\r\n"
	_, err := s.buf.WriteString(line)
	return err
}

func (s *csvStreamer) writeRow(row []string) error {
	if s == nil || s.csv == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	if s == nil || s.csv == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

func (s *csvStreamer) Close() error {
	return s.Flush()
}

func writeMetadata(streamer *csvStreamer, reportName, period string, warnings []reports.Warning) error {
	if err := streamer.writeComment("# Report: " + reportName); err != nil {
		return err
	}
	if err := streamer.writeComment("# Period: " + period); err != nil {
		return err
	}
	if len(warnings) == 0 {
		return streamer.writeComment("# Warnings: none")
	}
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = fmt.Sprintf("%s %s", w.Code, strings.TrimSpace(w.Message))
	}
	return streamer.writeComment("# Warnings: " + strings.Join(parts, " | "))
}

// writeTrialBalanceCSV renders the trial balance with the TOTAL row last.
func writeTrialBalanceCSV(w io.Writer, period string, rows []reports.TrialBalanceRow, warnings []reports.Warning) error {
	streamer := newCSVStreamer(w)
	if err := writeMetadata(streamer, "Neraca Saldo", period, warnings); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"No", "Akun", "Total Debit", "Total Kredit", "Saldo Akhir"}); err != nil {
		return err
	}
	for _, r := range rows {
		no := ""
		if !r.IsTotal {
			no = strconv.Itoa(r.No)
		}
		balance := ""
		if r.EndingBalance.Valid {
			balance = money(r.EndingBalance.Decimal)
		}
		if err := streamer.writeRow([]string{no, r.Account, money(r.TotalDebit), money(r.TotalCredit), balance}); err != nil {
			return err
		}
	}
	return streamer.Close()
}
