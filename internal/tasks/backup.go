package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/desertthunder/studydesk/internal/shared"
)

// Backup writes every domain of s into opts.OutputDir and a manifest.json describing the files.
//
// The returned result lists one entry per domain, sorted by domain name. An error is returned only when the
// directory or the manifest cannot be written, or ctx is cancelled before every file is done.
func (e *Engine) Backup(ctx context.Context, prog chan<- ProgressUpdate, s Snapshot, opts BackupOpts) (*BackupResult, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("studydesk_backup_%d", e.now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 2
	}
	if opts.NumWorkers > 4 {
		opts.NumWorkers = 4
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	all := jobsFor(s)
	result := &BackupResult{
		Identity:        s.Identity.String(),
		CreatedAt:       e.now().UTC(),
		OutputDirectory: opts.OutputDir,
		Files:           make([]BackupFile, 0, len(all)),
	}

	jobs := make(chan backupJob, len(all))
	results := make(chan BackupFile, len(all))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.backupWorker(ctx, &wg, jobs, results, opts.OutputDir)
	}

	e.sendProgress(prog, collectUpdate(len(all), s.Identity.String()))
	for _, job := range all {
		jobs <- job
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for file := range results {
		completed++
		result.Files = append(result.Files, file)

		if file.Success {
			result.Succeeded++
			e.sendProgress(prog, fileWrittenUpdate(completed, len(all), file))
		} else {
			result.Failed++
			e.logger.Warn("backup file failed", "domain", file.Domain, "error", file.Error)
			e.sendProgress(prog, fileFailedUpdate(completed, len(all), file))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	slices.SortFunc(result.Files, func(a, b BackupFile) int { return strings.Compare(a.Domain, b.Domain) })

	e.sendProgress(prog, manifestUpdate(len(all)))
	manifestPath := filepath.Join(opts.OutputDir, "manifest.json")
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("backup completed but failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("backup completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// backupWorker renders and writes jobs until the channel closes or ctx is done.
func (e *Engine) backupWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan backupJob, results chan<- BackupFile, dir string) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		results <- e.writeJob(job, dir)
	}
}

func (e *Engine) writeJob(job backupJob, dir string) BackupFile {
	file := BackupFile{Domain: job.domain, Items: job.items}

	data, err := job.render()
	if err != nil {
		return failed(file, fmt.Errorf("%s export failed: %w", job.domain, err))
	}

	path := filepath.Join(dir, job.domain+job.format.Extension())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return failed(file, fmt.Errorf("%s write failed: %w", job.domain, err))
	}

	file.Path = path
	file.Bytes = len(data)
	file.Success = true
	return file
}

func failed(file BackupFile, err error) BackupFile {
	file.Error = err
	file.Message = err.Error()
	return file
}
