package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"llm-trader/internal/types"
)

var mu sync.Mutex

// DecisionEntry records a pipeline decision, executed or not.
type DecisionEntry struct {
	Ts         time.Time    `json:"ts"`
	Symbol     string       `json:"symbol"`
	Action     types.Action `json:"action"`
	Size       float64      `json:"size"`
	Confidence float64      `json:"confidence"`
	Reason     types.Reason `json:"reason"`
	Rationale  string       `json:"rationale"`
	Price      float64      `json:"price"`
}

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyFilepath(t time.Time) string {
	return filepath.Join(logDir(), t.UTC().Format("2006-01-02")+".txt")
}

func decisionsFilepath(t time.Time) string {
	return filepath.Join(logDir(), "decisions", t.UTC().Format("2006-01-02")+".txt")
}

// Append writes one executed fill to the daily trade log. Files are named by
// the fill's own timestamp so backtests over historical data land in the
// matching day file.
func Append(f types.Fill) error {
	mu.Lock()
	defer mu.Unlock()
	return appendJSON(dailyFilepath(f.Ts), f)
}

// AppendDecision writes one decision to the daily decision log.
func AppendDecision(e DecisionEntry) error {
	mu.Lock()
	defer mu.Unlock()
	return appendJSON(decisionsFilepath(e.Ts), e)
}

func appendJSON(p string, v any) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(v)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips log files older than the retention window.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(logDir(), func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, e := os.Stat(gz); e == nil {
			return os.Remove(p)
		}
		in, e := os.Open(p)
		if e != nil {
			return nil
		}
		defer in.Close()
		out, e := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if e != nil {
			return nil
		}
		gw := gzip.NewWriter(out)
		if _, e = io.Copy(gw, in); e == nil {
			_ = gw.Close()
			_ = out.Close()
			return os.Remove(p)
		}
		_ = gw.Close()
		_ = out.Close()
		return nil
	})
}
