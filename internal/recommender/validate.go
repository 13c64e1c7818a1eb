package recommender

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Input limits enforced by the backend guardrails. Validating here keeps
// obviously broken submissions off the wire.
const (
	MinJobDescriptionLen = 50
	MaxJobDescriptionLen = 10000
	MaxCVFileSizeMB      = 10
	MaxCVFileSize        = MaxCVFileSizeMB * 1024 * 1024
)

var allowedCVExtensions = []string{".pdf", ".docx", ".doc", ".txt"}

// ValidateSubmitRequest checks the request against the backend input limits
// without touching the network.
func ValidateSubmitRequest(req *SubmitRequest) error {
	if req == nil {
		return fmt.Errorf("submit request is not set")
	}

	if req.CVFile == "" && strings.TrimSpace(req.CVText) == "" {
		return fmt.Errorf("either a CV file or CV text is required")
	}

	if req.CVFile != "" {
		if err := ValidateCVFile(req.CVFile); err != nil {
			return err
		}
	}

	return ValidateJobDescription(req.JobDescription)
}

func ValidateJobDescription(text string) error {
	length := len(strings.TrimSpace(text))

	if length == 0 {
		return fmt.Errorf("job description cannot be empty")
	}

	if length < MinJobDescriptionLen {
		return fmt.Errorf("job description too short (%d chars), minimum is %d", length, MinJobDescriptionLen)
	}

	if length > MaxJobDescriptionLen {
		return fmt.Errorf("job description too long (%d chars), maximum is %d", length, MaxJobDescriptionLen)
	}

	return nil
}

func ValidateCVFile(path string) error {
	stat, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("CV file: %w", err)
	}

	if stat.IsDir() {
		return fmt.Errorf("CV file %q is a directory", path)
	}

	if stat.Size() > MaxCVFileSize {
		return fmt.Errorf("CV file size (%.1fMB) exceeds the maximum of %dMB", float64(stat.Size())/1024/1024, MaxCVFileSizeMB)
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range allowedCVExtensions {
		if ext == allowed {
			return nil
		}
	}

	return fmt.Errorf("CV file type %q is not allowed, expected one of: %s", ext, strings.Join(allowedCVExtensions, ", "))
}
