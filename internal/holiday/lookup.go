package holiday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Sources a lookup result can come from, in preference order.
const (
	SourceCache    = "cache"
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

const (
	cacheKeyPrefix = "holidays_year_"
	cacheFreshFor  = 7 * 24 * time.Hour
)

// Day describes one holiday date.
type Day struct {
	Name     string `json:"name"`
	IsOffDay bool   `json:"isOffDay"`
}

// Result is a date-keyed holiday map plus its provenance.
type Result struct {
	Year   int            `json:"year"`
	Days   map[string]Day `json:"days"`
	Source string         `json:"source"`
}

// NotFoundError reports a year no tier could serve.
type NotFoundError struct {
	Year      int
	Supported []int
	Attempted []string
}

func (e *NotFoundError) Error() string {
	years := make([]string, 0, len(e.Supported))
	for _, y := range e.Supported {
		years = append(years, strconv.Itoa(y))
	}
	return fmt.Sprintf("no holiday data for %d (supported fallback years: %s; attempted: %s)",
		e.Year, strings.Join(years, ", "), strings.Join(e.Attempted, ", "))
}

type cacheEntry struct {
	Data      map[string]Day `json:"data"`
	Source    string         `json:"source"`
	Timestamp int64          `json:"timestamp"` // unix milliseconds
}

// remoteCalendar is the upstream static JSON shape.
type remoteCalendar struct {
	Year int `json:"year"`
	Days []struct {
		Name     string `json:"name"`
		Date     string `json:"date"`
		IsOffDay bool   `json:"isOffDay"`
	} `json:"days"`
}

// Service answers holiday lookups cache-first, then a remote static JSON
// source, then the embedded fallback table. No write ever fails a read.
type Service struct {
	cache      *redis.Client
	httpClient *http.Client
	baseURL    string
	now        func() time.Time
}

// NewService builds a holiday lookup service. baseURL points at a directory
// of per-year JSON files, e.g.
// "https://raw.githubusercontent.com/NateScarlet/holiday-cn/master".
func NewService(cache *redis.Client, baseURL string) *Service {
	return &Service{
		cache:      cache,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		now:        time.Now,
	}
}

// YearFromMonth derives the year from a "YYYY-MM" month parameter.
func YearFromMonth(month string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(month), "-", 2)
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 1000 || year > 9999 {
		return 0, fmt.Errorf("invalid month %q", month)
	}
	return year, nil
}

// Lookup returns the holiday calendar for the year, tagged with its source.
func (s *Service) Lookup(ctx context.Context, year int) (Result, error) {
	if days, ok := s.fromCache(ctx, year); ok {
		return Result{Year: year, Days: days, Source: SourceCache}, nil
	}
	attempted := []string{SourceCache}

	days, err := s.fromRemote(ctx, year)
	if err == nil {
		s.writeCache(ctx, year, days, SourceRemote)
		return Result{Year: year, Days: days, Source: SourceRemote}, nil
	}
	slog.Warn("holiday remote fetch failed", "year", year, "err", err)
	attempted = append(attempted, SourceRemote)

	if days, ok := fallbackCalendars[year]; ok {
		s.writeCache(ctx, year, days, SourceFallback)
		return Result{Year: year, Days: days, Source: SourceFallback}, nil
	}
	attempted = append(attempted, SourceFallback)

	return Result{}, &NotFoundError{
		Year:      year,
		Supported: fallbackYears(),
		Attempted: attempted,
	}
}

// fromCache returns cached data when present and fresh (7-day window).
func (s *Service) fromCache(ctx context.Context, year int) (map[string]Day, bool) {
	raw, err := s.cache.Get(ctx, cacheKey(year)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("holiday cache read failed", "year", year, "err", err)
		return nil, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		slog.Warn("holiday cache entry corrupt", "year", year, "err", err)
		return nil, false
	}
	age := s.now().UTC().Sub(time.UnixMilli(entry.Timestamp))
	if age > cacheFreshFor {
		return nil, false
	}
	return entry.Data, true
}

func (s *Service) fromRemote(ctx context.Context, year int) (map[string]Day, error) {
	url := fmt.Sprintf("%s/%d.json", s.baseURL, year)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "AI-Todo-Assistant/1.0")
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday source returned %s for %s", resp.Status, url)
	}
	var calendar remoteCalendar
	if err := json.NewDecoder(resp.Body).Decode(&calendar); err != nil {
		return nil, fmt.Errorf("decode holiday calendar: %w", err)
	}
	days := make(map[string]Day, len(calendar.Days))
	for _, d := range calendar.Days {
		days[d.Date] = Day{Name: d.Name, IsOffDay: d.IsOffDay}
	}
	return days, nil
}

// writeCache is best-effort: failures are logged and swallowed.
func (s *Service) writeCache(ctx context.Context, year int, days map[string]Day, source string) {
	entry := cacheEntry{
		Data:      days,
		Source:    source,
		Timestamp: s.now().UTC().UnixMilli(),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		slog.Warn("holiday cache marshal failed", "year", year, "err", err)
		return
	}
	if err := s.cache.Set(ctx, cacheKey(year), raw, cacheFreshFor).Err(); err != nil {
		slog.Warn("holiday cache write failed", "year", year, "err", err)
	}
}

func cacheKey(year int) string {
	return cacheKeyPrefix + strconv.Itoa(year)
}

func fallbackYears() []int {
	years := make([]int, 0, len(fallbackCalendars))
	for y := range fallbackCalendars {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
