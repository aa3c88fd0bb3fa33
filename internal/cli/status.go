package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/tnunamak/glucobar/internal/cache"
	"github.com/tnunamak/glucobar/internal/dexcom"
	"github.com/tnunamak/glucobar/internal/glucose"
	"github.com/tnunamak/glucobar/internal/monitor"
)

// Exit codes.
const (
	ExitOK               = 0
	ExitError            = 1
	ExitNotAuthenticated = 2
)

// ProjectionHorizon is how far ahead status projects the trend.
const ProjectionHorizon = 15 * time.Minute

// Format selects how status prints a reading.
type Format int

const (
	FormatAuto Format = iota
	FormatColor
	FormatPlain
	FormatJSON
	FormatYAML
)

func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func formatAge(d time.Duration) string {
	if d < time.Minute {
		return "just now"
	}
	d = d.Round(time.Minute)
	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh%02dm ago", hours, mins)
	}
	return fmt.Sprintf("%dm ago", mins)
}

func rangeColor(r glucose.Range) *color.Color {
	switch r {
	case glucose.Low:
		return color.New(color.FgRed, color.Bold)
	case glucose.High:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgGreen)
	}
}

func arrow(t glucose.Trend) string {
	if a := t.Arrow(); a != "" {
		return " " + a
	}
	return ""
}

// PrintColor writes a two-line colored summary.
func PrintColor(w io.Writer, reading dexcom.Reading, now time.Time) {
	r := glucose.Classify(reading.Value)
	p := glucose.Project(reading.Value, reading.Trend, ProjectionHorizon)

	value := rangeColor(r).Sprintf("%d mg/dL%s", reading.Value, arrow(reading.Trend))
	fmt.Fprintf(w, "glucobar  %s  %s  (%s)\n", value, r, formatAge(now.Sub(reading.Time)))
	fmt.Fprintf(w, "          %dm  ~%s  %s\n",
		int(p.Horizon.Minutes()), rangeColor(p.Range).Sprintf("%d", p.Value), p.Indicator())
}

// PrintPlain writes a single uncolored line.
func PrintPlain(w io.Writer, reading dexcom.Reading, now time.Time) {
	p := glucose.Project(reading.Value, reading.Trend, ProjectionHorizon)
	fmt.Fprintf(w, "%d mg/dL%s %s (%s), %dm: ~%d %s\n",
		reading.Value, arrow(reading.Trend), glucose.Classify(reading.Value),
		formatAge(now.Sub(reading.Time)), int(p.Horizon.Minutes()), p.Value, p.Indicator())
}

// Report is the machine-readable status shape.
type Report struct {
	Value      int               `json:"value" yaml:"value"`
	Trend      glucose.Trend     `json:"trend" yaml:"trend"`
	Arrow      string            `json:"arrow,omitempty" yaml:"arrow,omitempty"`
	Range      string            `json:"range" yaml:"range"`
	Time       time.Time         `json:"time" yaml:"time"`
	Projection *ProjectionReport `json:"projection" yaml:"projection"`
	Cache      *CacheInfo        `json:"cache,omitempty" yaml:"cache,omitempty"`
}

type ProjectionReport struct {
	Minutes   int    `json:"minutes" yaml:"minutes"`
	Value     int    `json:"value" yaml:"value"`
	Range     string `json:"range" yaml:"range"`
	Indicator string `json:"indicator" yaml:"indicator"`
}

type CacheInfo struct {
	Hit       bool      `json:"hit" yaml:"hit"`
	FetchedAt time.Time `json:"fetched_at,omitempty" yaml:"fetched_at,omitempty"`
}

// NewReport builds the report for reading. entry is the cache entry the
// reading came from, if any.
func NewReport(reading dexcom.Reading, entry *cache.Entry) Report {
	p := glucose.Project(reading.Value, reading.Trend, ProjectionHorizon)
	report := Report{
		Value: reading.Value,
		Trend: reading.Trend,
		Arrow: reading.Trend.Arrow(),
		Range: glucose.Classify(reading.Value).String(),
		Time:  reading.Time,
		Projection: &ProjectionReport{
			Minutes:   int(p.Horizon.Minutes()),
			Value:     p.Value,
			Range:     p.Range.String(),
			Indicator: p.Indicator(),
		},
	}
	if entry != nil {
		report.Cache = &CacheInfo{Hit: true, FetchedAt: entry.FetchedAt}
	}
	return report
}

func PrintJSON(w io.Writer, reading dexcom.Reading, entry *cache.Entry) error {
	data, err := json.MarshalIndent(NewReport(reading, entry), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func PrintYAML(w io.Writer, reading dexcom.Reading, entry *cache.Entry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewReport(reading, entry)); err != nil {
		return err
	}
	return enc.Close()
}

// FetchReading authenticates through src and reads the latest value.
func FetchReading(ctx context.Context, src monitor.SessionSource) (dexcom.Reading, error) {
	session, err := src.Authenticate(ctx)
	if err != nil {
		return dexcom.Reading{}, err
	}
	if session == nil {
		return dexcom.Reading{}, monitor.ErrNotAuthenticated
	}
	return session.CurrentReading(ctx)
}

// Status prints the latest reading.
type Status struct {
	Source monitor.SessionSource
	Cache  *cache.Cache
	TTL    time.Duration
	Format Format
	Logger *slog.Logger

	Out io.Writer
	Err io.Writer
	Now func() time.Time
}

// Run prints the cached reading when fresh, otherwise fetches one. It
// returns the process exit code.
func (s *Status) Run(ctx context.Context) int {
	if s.Cache != nil {
		if entry, ok := s.Cache.Fresh(s.TTL); ok {
			return s.print(entry.Reading, entry)
		}
	}

	reading, err := FetchReading(ctx, s.Source)
	if errors.Is(err, monitor.ErrNotAuthenticated) || errors.Is(err, dexcom.ErrAccount) {
		fmt.Fprintln(s.errOut(), "glucobar: not signed in, run `glucobar login`")
		return ExitNotAuthenticated
	}
	if err != nil {
		fmt.Fprintf(s.errOut(), "glucobar: %v\n", err)
		return ExitError
	}

	if s.Cache != nil {
		if err := s.Cache.Write(reading); err != nil && s.Logger != nil {
			s.Logger.Warn("write reading cache failed", "error", err)
		}
	}
	return s.print(reading, nil)
}

func (s *Status) print(reading dexcom.Reading, entry *cache.Entry) int {
	out := s.out()
	var err error

	switch s.format() {
	case FormatJSON:
		err = PrintJSON(out, reading, entry)
	case FormatYAML:
		err = PrintYAML(out, reading, entry)
	case FormatPlain:
		PrintPlain(out, reading, s.now())
	default:
		PrintColor(out, reading, s.now())
	}

	if err != nil {
		fmt.Fprintf(s.errOut(), "glucobar: %v\n", err)
		return ExitError
	}
	return ExitOK
}

func (s *Status) format() Format {
	if s.Format != FormatAuto {
		return s.Format
	}
	if s.Out == nil && isTTY() {
		return FormatColor
	}
	return FormatPlain
}

func (s *Status) out() io.Writer {
	if s.Out != nil {
		return s.Out
	}
	return os.Stdout
}

func (s *Status) errOut() io.Writer {
	if s.Err != nil {
		return s.Err
	}
	return os.Stderr
}

func (s *Status) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
