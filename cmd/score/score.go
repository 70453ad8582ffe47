package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/water-risk-etl/internal/domain"
	"github.com/couchcryptid/water-risk-etl/internal/observability"
)

type options struct {
	input       string
	output      string
	workers     int
	lexiconPath string
	logLevel    string
}

// columnAliases maps accepted CSV headers to Observation JSON fields.
var columnAliases = map[string]string{
	"village":     "village",
	"village_id":  "village",
	"observed_at": "observed_at",
	"date":        "observed_at",
	"ph":          "ph",
	"turbidity":   "turbidity",
	"orp":         "orp",
	"rainfall":    "rainfall",
	"diarrhea":    "diarrhea",
	"vomiting":    "vomiting",
	"fever":       "fever",
	"report_text": "report_text",
}

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func run(ctx context.Context, opts options, stdin io.Reader, stdout, stderr io.Writer) error {
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: observability.ParseLevel(opts.logLevel)}))

	assessor, err := newAssessor(opts.lexiconPath)
	if err != nil {
		return err
	}

	in := stdin
	if opts.input != "-" {
		f, err := os.Open(opts.input)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	observations, err := readObservations(in)
	if err != nil {
		return err
	}
	logger.Debug("observations loaded", "rows", len(observations), "workers", opts.workers)

	start := time.Now()
	assessments, err := scoreAll(ctx, assessor, observations, opts.workers)
	if err != nil {
		return err
	}

	if opts.output == "" {
		err = writeAssessments(stdout, assessments)
	} else {
		err = writeFile(opts.output, assessments)
	}
	if err != nil {
		return err
	}

	summary := summarize(assessments)
	logger.Info("scoring complete",
		"rows", len(assessments),
		"duration", time.Since(start),
		"no_data", summary[domain.TierNoData],
		"green", summary[domain.TierGreen],
		"yellow", summary[domain.TierYellow],
		"red", summary[domain.TierRed],
	)
	return nil
}

func newAssessor(lexiconPath string) (*domain.Assessor, error) {
	if lexiconPath == "" {
		return domain.NewAssessor(), nil
	}
	lex, err := domain.LoadLexiconFile(lexiconPath)
	if err != nil {
		return nil, err
	}
	return domain.NewAssessor(domain.WithExtractor(domain.NewExtractor(lex))), nil
}

// readObservations parses a header-mapped CSV. Unknown columns are ignored
// and empty cells are left missing.
func readObservations(r io.Reader) ([]domain.Observation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("input has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	fields := make([]string, len(header))
	known := 0
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if f, ok := columnAliases[h]; ok {
			fields[i] = f
			known++
		}
	}
	if known == 0 {
		return nil, fmt.Errorf("no recognised columns in header %q", strings.Join(header, ","))
	}

	var observations []domain.Observation
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		obs, err := rowToObservation(fields, record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		observations = append(observations, obs)
	}
	return observations, nil
}

// rowToObservation decodes one record through Observation's JSON decoding so
// CSV cells get the same number handling as Kafka and HTTP payloads.
func rowToObservation(fields, record []string) (domain.Observation, error) {
	values := make(map[string]string, len(fields))
	var observedAt string
	for i, cell := range record {
		if i >= len(fields) || fields[i] == "" {
			continue
		}
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if fields[i] == "observed_at" {
			observedAt = cell
			continue
		}
		values[fields[i]] = cell
	}

	data, err := json.Marshal(values)
	if err != nil {
		return domain.Observation{}, err
	}
	var obs domain.Observation
	if err := json.Unmarshal(data, &obs); err != nil {
		return domain.Observation{}, err
	}

	if observedAt != "" {
		if obs.ObservedAt, err = parseDate(observedAt); err != nil {
			return domain.Observation{}, err
		}
	}
	return obs, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// scoreAll assesses observations on a fixed pool of workers. Results keep
// input order.
func scoreAll(ctx context.Context, assessor *domain.Assessor, observations []domain.Observation, workers int) ([]domain.Assessment, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]domain.Assessment, len(observations))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = assessor.Assess(observations[i])
			}
		}()
	}

	var err error
send:
	for i := range observations {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break send
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return results, nil
}

func writeFile(path string, assessments []domain.Assessment) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	return writeAndClose(f, assessments)
}

// writeAndClose reports a failed Close, since buffered data may only reach
// the disk on close.
func writeAndClose(wc io.WriteCloser, assessments []domain.Assessment) error {
	err := writeAssessments(wc, assessments)
	if cerr := wc.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close output: %w", cerr)
	}
	return err
}

func writeAssessments(w io.Writer, assessments []domain.Assessment) error {
	enc := json.NewEncoder(w)
	for i := range assessments {
		if err := enc.Encode(assessments[i]); err != nil {
			return fmt.Errorf("write assessment %d: %w", i+1, err)
		}
	}
	return nil
}

func summarize(assessments []domain.Assessment) map[domain.Tier]int {
	counts := make(map[domain.Tier]int, len(domain.Tiers))
	for _, a := range assessments {
		counts[a.Tier]++
	}
	return counts
}
