package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRequests(t *testing.T) string {
	file := filepath.Join(t.TempDir(), "app.log")
	logger, err := New("info", file)
	require.NoError(t, err)

	base := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	request := func(offset time.Duration, method, path string, status int, latency string, user uint) {
		fields := logrus.Fields{"method": method, "path": path, "status": status, "latency": latency, "request_id": "r"}
		if user != 0 {
			fields["user_id"] = user
		}
		logger.WithTime(base.Add(offset)).WithFields(fields).Info("request handled")
	}
	request(0, "GET", "/api/projects", 200, "2ms", 1)
	request(time.Minute, "GET", "/api/projects", 500, "6ms", 1)
	request(2*time.Minute, "POST", "/api/projects", 201, "10ms", 2)
	logger.WithTime(base).Info("listening")
	request(48*time.Hour, "GET", "/api/projects", 200, "1ms", 0)

	f, err := os.OpenFile(file, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString("not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return file
}

func TestReadRequests(t *testing.T) {
	file := writeRequests(t)
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	all, err := ReadRequests(file, RequestFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	today, err := ReadRequests(file, RequestFilter{From: day, To: day.AddDate(0, 0, 1)})
	require.NoError(t, err)
	require.Len(t, today, 3)
	assert.Equal(t, 6*time.Millisecond, today[1].Latency)
	assert.Equal(t, uint(2), today[2].UserID)

	failed, err := ReadRequests(file, RequestFilter{Status: 500, Method: "get", Path: "PROJECTS"})
	require.NoError(t, err)
	assert.Len(t, failed, 1)

	missing, err := ReadRequests(filepath.Join(t.TempDir(), "none.log"), RequestFilter{})
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestGroupAndSummarize(t *testing.T) {
	file := writeRequests(t)
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	entries, err := ReadRequests(file, RequestFilter{From: day, To: day.AddDate(0, 0, 1)})
	require.NoError(t, err)

	groups := GroupByRoute(entries)
	require.Len(t, groups, 2)
	get := groups[0]
	assert.Equal(t, "GET", get.Method)
	assert.Equal(t, 2, get.Count)
	assert.Equal(t, 2.0, get.MinLatency)
	assert.Equal(t, 6.0, get.MaxLatency)
	assert.Equal(t, 4.0, get.AvgLatency)
	assert.Equal(t, 0.5, get.SuccessRate)
	assert.Equal(t, 500, get.Requests[0].Status, "newest first")

	stats := Summarize(entries)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Successful)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 10.0, stats.MaxLatency)
	assert.Equal(t, map[uint]int{1: 2, 2: 1}, stats.ByUser)
	assert.Equal(t, map[string]int{"GET": 2, "POST": 1}, stats.ByMethod)
}
