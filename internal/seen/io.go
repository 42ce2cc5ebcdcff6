package seen

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/MrJJimenez/jobscout/internal/search"
)

// ReadJobs reads ranked jobs from path. Both a bare JSON array and a full
// search response envelope are accepted.
func ReadJobs(path string) ([]models.ScoredJob, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeJobs(data)
}

func decodeJobs(data []byte) ([]models.ScoredJob, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return []models.ScoredJob{}, nil
	}

	var jobs []models.ScoredJob
	if strings.HasPrefix(trimmed, "{") {
		var resp search.Response
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("decode search response: %w", err)
		}
		if resp.Data != nil {
			jobs = resp.Data.Jobs
		}
	} else if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}
	if jobs == nil {
		return []models.ScoredJob{}, nil
	}
	return jobs, nil
}

// ReadJobsAllowMissing reads jobs and treats missing files as empty history.
func ReadJobsAllowMissing(path string) ([]models.ScoredJob, error) {
	jobs, err := ReadJobs(path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.ScoredJob{}, nil
	}
	return jobs, err
}

// WriteJobs writes jobs as indented JSON.
func WriteJobs(path string, jobs []models.ScoredJob) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("path is required")
	}
	if jobs == nil {
		jobs = []models.ScoredJob{}
	}
	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
