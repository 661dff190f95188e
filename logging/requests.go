package logging

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"
)

// RequestEntry is one request line of the JSON log file, as written by
// the request logging middleware.
type RequestEntry struct {
	Time       time.Time     `json:"time"`
	Level      string        `json:"level"`
	Message    string        `json:"msg"`
	Method     string        `json:"method"`
	Path       string        `json:"path"`
	Status     int           `json:"status"`
	Latency    time.Duration `json:"-"`
	RawLatency string        `json:"latency"`
	IP         string        `json:"ip"`
	RequestID  string        `json:"request_id"`
	UserID     uint          `json:"user_id,omitempty"`
	Role       string        `json:"role,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// RequestFilter narrows ReadRequests. Zero values match everything.
type RequestFilter struct {
	From   time.Time
	To     time.Time
	Path   string
	Method string
	Status int
}

func (f RequestFilter) match(e RequestEntry) bool {
	if !f.From.IsZero() && e.Time.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Time.After(f.To) {
		return false
	}
	if f.Path != "" && !strings.Contains(strings.ToLower(e.Path), strings.ToLower(f.Path)) {
		return false
	}
	if f.Method != "" && !strings.EqualFold(e.Method, f.Method) {
		return false
	}
	return f.Status == 0 || e.Status == f.Status
}

// ReadRequests scans the log file for request entries matching filter.
// Lines that are not request entries are skipped. A missing file reads
// as empty.
func ReadRequests(file string, filter RequestFilter) ([]RequestEntry, error) {
	f, err := os.Open(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}
	defer f.Close()

	var entries []RequestEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry RequestEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil || entry.Method == "" {
			continue
		}
		entry.Latency, _ = time.ParseDuration(entry.RawLatency)
		if filter.match(entry) {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file: %w", err)
	}
	return entries, nil
}

// RouteGroup aggregates the requests of one method and path.
type RouteGroup struct {
	Method      string         `json:"method"`
	Path        string         `json:"path"`
	Count       int            `json:"count"`
	AvgLatency  float64        `json:"avg_latency_ms"`
	MinLatency  float64        `json:"min_latency_ms"`
	MaxLatency  float64        `json:"max_latency_ms"`
	SuccessRate float64        `json:"success_rate"`
	Requests    []RequestEntry `json:"requests"`
}

func millis(d time.Duration) float64 { return float64(d.Microseconds()) / 1000.0 }

// GroupByRoute groups entries by method and path, busiest route first.
// Within a group requests are newest first.
func GroupByRoute(entries []RequestEntry) []RouteGroup {
	index := make(map[string]int)
	var groups []RouteGroup
	var total []time.Duration
	var ok []int

	for _, e := range entries {
		key := e.Method + " " + e.Path
		i, found := index[key]
		if !found {
			i = len(groups)
			index[key] = i
			groups = append(groups, RouteGroup{Method: e.Method, Path: e.Path, MinLatency: millis(e.Latency)})
			total = append(total, 0)
			ok = append(ok, 0)
		}
		g := &groups[i]
		g.Count++
		g.Requests = append(g.Requests, e)
		total[i] += e.Latency
		if ms := millis(e.Latency); ms < g.MinLatency {
			g.MinLatency = ms
		} else if ms > g.MaxLatency {
			g.MaxLatency = ms
		}
		if e.Status >= 200 && e.Status < 300 {
			ok[i]++
		}
	}

	for i := range groups {
		g := &groups[i]
		g.AvgLatency = millis(total[i] / time.Duration(g.Count))
		g.SuccessRate = float64(ok[i]) / float64(g.Count)
		sort.SliceStable(g.Requests, func(a, b int) bool {
			return g.Requests[a].Time.After(g.Requests[b].Time)
		})
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].Count > groups[b].Count })
	return groups
}

// RequestStats summarizes a set of request entries.
type RequestStats struct {
	Total       int            `json:"total_requests"`
	Successful  int            `json:"successful_requests"`
	Failed      int            `json:"error_requests"`
	SuccessRate float64        `json:"success_rate"`
	AvgLatency  float64        `json:"avg_latency_ms"`
	MaxLatency  float64        `json:"max_latency_ms"`
	ByMethod    map[string]int `json:"method_stats"`
	ByStatus    map[int]int    `json:"status_stats"`
	ByUser      map[uint]int   `json:"user_stats"`
}

func Summarize(entries []RequestEntry) RequestStats {
	stats := RequestStats{
		ByMethod: make(map[string]int),
		ByStatus: make(map[int]int),
		ByUser:   make(map[uint]int),
	}
	var total, slowest time.Duration
	for _, e := range entries {
		stats.Total++
		switch {
		case e.Status >= 200 && e.Status < 300:
			stats.Successful++
		case e.Status >= 400:
			stats.Failed++
		}
		total += e.Latency
		if e.Latency > slowest {
			slowest = e.Latency
		}
		stats.ByMethod[e.Method]++
		stats.ByStatus[e.Status]++
		if e.UserID != 0 {
			stats.ByUser[e.UserID]++
		}
	}
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Successful) / float64(stats.Total) * 100
		stats.AvgLatency = millis(total / time.Duration(stats.Total))
	}
	stats.MaxLatency = millis(slowest)
	return stats
}
