package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"podcast-agent/internal/models"
)

const (
	// VideoListFile holds the videos collected by the most recent run
	VideoListFile = "recent_videos.json"

	resultPrefix = "result_"
	dayLayout    = "20060102"
)

// ResultStore persists run artifacts under a single output directory
type ResultStore struct {
	dir string
	mu  sync.Mutex
}

// NewResultStore creates the output directory if needed
func NewResultStore(dir string) (*ResultStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &ResultStore{dir: dir}, nil
}

// Dir returns the output directory
func (rs *ResultStore) Dir() string {
	return rs.dir
}

// ResultPath returns the dated result file for day
func (rs *ResultStore) ResultPath(day time.Time) string {
	return filepath.Join(rs.dir, resultPrefix+day.Format(dayLayout)+".json")
}

// SaveResult writes the run result to its dated file, replacing any earlier run that day
func (rs *ResultStore) SaveResult(result *models.RunResult, day time.Time) (string, error) {
	if result == nil {
		return "", fmt.Errorf("result cannot be nil")
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	path := rs.ResultPath(day)
	if err := WriteJSON(path, result, 0644); err != nil {
		return "", fmt.Errorf("failed to save result: %w", err)
	}
	return path, nil
}

// LoadResult reads the result written for day
func (rs *ResultStore) LoadResult(day time.Time) (*models.RunResult, error) {
	var result models.RunResult
	if err := ReadJSON(rs.ResultPath(day), &result); err != nil {
		return nil, fmt.Errorf("failed to load result: %w", err)
	}
	return &result, nil
}

// ResultDays lists the days that have a stored result, newest first
func (rs *ResultStore) ResultDays() ([]time.Time, error) {
	entries, err := os.ReadDir(rs.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	var days []time.Time
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, resultPrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		day, err := time.Parse(dayLayout, strings.TrimSuffix(strings.TrimPrefix(name, resultPrefix), ".json"))
		if err != nil {
			continue
		}
		days = append(days, day)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days, nil
}

// RecentResults loads up to limit stored results, newest first. Unreadable
// result files are skipped. A limit of zero or less loads all of them.
func (rs *ResultStore) RecentResults(limit int) ([]*models.RunResult, error) {
	days, err := rs.ResultDays()
	if err != nil {
		return nil, err
	}

	var results []*models.RunResult
	for _, day := range days {
		if limit > 0 && len(results) == limit {
			break
		}
		result, err := rs.LoadResult(day)
		if err != nil {
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

// SaveVideos writes the collected video list
func (rs *ResultStore) SaveVideos(videos []models.VideoRecord) (string, error) {
	if videos == nil {
		videos = []models.VideoRecord{}
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	path := filepath.Join(rs.dir, VideoListFile)
	if err := WriteJSON(path, videos, 0644); err != nil {
		return "", fmt.Errorf("failed to save video list: %w", err)
	}
	return path, nil
}

// LoadVideos reads a video list file. A missing file yields an empty list.
func LoadVideos(path string) ([]models.VideoRecord, error) {
	var videos []models.VideoRecord
	if err := ReadJSON(path, &videos); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load video list: %w", err)
	}
	return videos, nil
}
