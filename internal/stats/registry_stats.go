package stats

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/trustmod/registry/db/repositories"
	"github.com/trustmod/registry/internal/logging"
)

// RegistryStats holds cached statistics about the artifact store and the
// package table.
type RegistryStats struct {
	ArtifactCount int64
	ArtifactBytes int64
	PackageCount  int64
	LastUpdated   time.Time
	mu            sync.RWMutex
}

// Global instance
var Registry *RegistryStats

// Init initializes the global stats instance and starts background updates.
func Init(artifactDir string, updateInterval time.Duration, packages *repositories.PackageRepository) {
	Registry = &RegistryStats{}

	Registry.update(artifactDir, packages)

	go func() {
		ticker := time.NewTicker(updateInterval)
		defer ticker.Stop()

		for range ticker.C {
			Registry.update(artifactDir, packages)
		}
	}()

	logging.Log.Infow("registry stats initialized", "interval", updateInterval)
}

func (s *RegistryStats) update(artifactDir string, packages *repositories.PackageRepository) {
	fileCount, totalSize := walkArtifacts(artifactDir)
	packageCount := countPackages(packages)

	s.mu.Lock()
	s.ArtifactCount = fileCount
	s.ArtifactBytes = totalSize
	s.PackageCount = packageCount
	s.LastUpdated = time.Now()
	s.mu.Unlock()
}

// Get returns the current cached statistics.
func (s *RegistryStats) Get() (artifactCount, artifactBytes, packageCount int64, lastUpdated time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ArtifactCount, s.ArtifactBytes, s.PackageCount, s.LastUpdated
}

func walkArtifacts(artifactDir string) (fileCount int64, totalSize int64) {
	err := filepath.Walk(artifactDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logging.Log.Warnw("error accessing artifact path", "path", path, "error", err)
			return nil
		}
		if !info.IsDir() {
			fileCount++
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		logging.Log.Warnw("error walking artifact dir", "dir", artifactDir, "error", err)
	}
	return fileCount, totalSize
}

func countPackages(packages *repositories.PackageRepository) int64 {
	if packages == nil {
		return 0
	}
	total, err := packages.Count(context.Background())
	if err != nil {
		logging.Log.Warnw("error counting packages", "error", err)
		return 0
	}
	return total
}

// FormatBytes converts bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
