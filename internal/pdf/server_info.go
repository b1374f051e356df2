package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/a3tai/mcp-pdf-filler/internal/descriptions"
)

const (
	// DefaultCacheTTL is how long a directory scan is reused
	DefaultCacheTTL = 5 * time.Minute
	// DefaultScanDepth limits how deep the base directory is walked
	DefaultScanDepth = 5
	// DefaultScanLimit limits how many files a scan returns
	DefaultScanLimit = 100
	// DefaultScanTime limits how long a scan may take
	DefaultScanTime = 3 * time.Second
)

// DirectoryCache provides TTL-based caching for directory scans
type DirectoryCache struct {
	entries map[string]*cacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
}

type cacheEntry struct {
	result     *ScanResult
	lastUpdate time.Time
}

// NewDirectoryCache creates a new directory cache with specified TTL
func NewDirectoryCache(ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
	}
}

// Get returns a cached scan that has not expired
func (c *DirectoryCache) Get(path string) (*ScanResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[path]
	if !ok || time.Since(entry.lastUpdate) > c.ttl {
		return nil, false
	}
	return entry.result, true
}

// Set stores a scan result
func (c *DirectoryCache) Set(path string, result *ScanResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = &cacheEntry{result: result, lastUpdate: time.Now()}
}

// Clear removes expired entries from cache
func (c *DirectoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for path, entry := range c.entries {
		if now.Sub(entry.lastUpdate) > c.ttl {
			delete(c.entries, path)
		}
	}
}

// ScanResult holds the templates and data files below a directory
type ScanResult struct {
	Templates []FileInfo
	DataFiles []FileInfo
	Truncated bool
}

// DirectoryScanner walks a directory for templates (.pdf) and data files
// (.json, .yaml, .yml) with depth, count and time limits.
type DirectoryScanner struct {
	maxDepth  int
	fileLimit int
	timeLimit time.Duration
}

// NewDirectoryScanner creates a new directory scanner
func NewDirectoryScanner(maxDepth, fileLimit int, timeLimit time.Duration) *DirectoryScanner {
	return &DirectoryScanner{
		maxDepth:  maxDepth,
		fileLimit: fileLimit,
		timeLimit: timeLimit,
	}
}

// Scan walks root. Hidden entries and symlinks are skipped.
func (s *DirectoryScanner) Scan(ctx context.Context, root string) (*ScanResult, error) {
	result := &ScanResult{}
	started := time.Now()

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			if s.maxDepth > 0 && depth(root, path) >= s.maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if (s.fileLimit > 0 && len(result.Templates)+len(result.DataFiles) >= s.fileLimit) ||
			(s.timeLimit > 0 && time.Since(started) > s.timeLimit) {
			result.Truncated = true
			return filepath.SkipAll
		}

		var list *[]FileInfo
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".pdf":
			list = &result.Templates
		case ".json", ".yaml", ".yml":
			list = &result.DataFiles
		default:
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // vanished between listing and stat
		}
		*list = append(*list, FileInfo{
			Name:         d.Name(),
			Path:         path,
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	return result, err
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// ServerInfo builds server info results, caching the base directory listing
type ServerInfo struct {
	service *Service
	cache   *DirectoryCache
	scanner *DirectoryScanner
}

// NewServerInfo creates a new server info handler
func NewServerInfo(service *Service) *ServerInfo {
	return &ServerInfo{
		service: service,
		cache:   NewDirectoryCache(DefaultCacheTTL),
		scanner: NewDirectoryScanner(DefaultScanDepth, DefaultScanLimit, DefaultScanTime),
	}
}

// GetServerInfo returns server information, tool usage and the base directory contents
func (p *ServerInfo) GetServerInfo(ctx context.Context, serverName, version string) (*PDFServerInfoResult, error) {
	result := &PDFServerInfoResult{
		ServerName:    serverName,
		Version:       version,
		BaseDirectory: p.service.BaseDirectory(),
		MaxFileSize:   p.service.GetMaxFileSize(),
		Tools:         availableTools(),
		Templates:     []FileInfo{},
		DataFiles:     []FileInfo{},
		UsageGuidance: p.usageGuidance(),
	}

	dir := result.BaseDirectory
	if dir == "" {
		return result, nil
	}

	p.ClearCache()
	scan, ok := p.cache.Get(dir)
	if !ok {
		var err error
		scan, err = p.scanner.Scan(ctx, dir)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
		}
		p.cache.Set(dir, scan)
	}

	result.Templates = append(result.Templates, scan.Templates...)
	result.DataFiles = append(result.DataFiles, scan.DataFiles...)
	result.Truncated = scan.Truncated
	return result, nil
}

// ClearCache clears expired cache entries
func (p *ServerInfo) ClearCache() {
	p.cache.Clear()
}

func availableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "pdf_fill_forms",
			Description: descriptions.GetToolDescription("pdf_fill_forms"),
			Parameters: "template (required): PDF template path, records (required): JSON records file, " +
				"lookup (required): lookup table (.json, .yaml), output_dir (required): output directory, " +
				"password (optional): owner password, report (optional): .xlsx report path",
		},
		{
			Name:        "pdf_template_fields",
			Description: descriptions.GetToolDescription("pdf_template_fields"),
			Parameters:  "path (required): PDF template path",
		},
		{
			Name:        "pdf_validate_template",
			Description: descriptions.GetToolDescription("pdf_validate_template"),
			Parameters:  "path (required): PDF template path",
		},
		{
			Name:        "pdf_server_info",
			Description: descriptions.GetToolDescription("pdf_server_info"),
			Parameters:  "No parameters required",
		},
	}
}

func (p *ServerInfo) usageGuidance() string {
	maxFileSizeMB := p.service.GetMaxFileSize() / (1024 * 1024)

	return fmt.Sprintf(`PDF Form Filler Usage Guide:

1. CHECK THE TEMPLATE:
   - Use 'pdf_validate_template' to make sure the template is a readable PDF
   - Use 'pdf_template_fields' to list its field names, types and options

2. WRITE THE LOOKUP TABLE:
   - One entry per field name: {"json_path": "A -> B -> C", "type": "FILL_FIELD"}
   - Types: FILL_FIELD, FILL_ADDRESS, CHECKBOX, RADIO_BUTTON
   - CHECKBOX and RADIO_BUTTON need "allowed_values"

3. FILL:
   - Use 'pdf_fill_forms' with a records file holding one object or an array of objects
   - Existing outputs are never overwritten and repeated names are skipped

NOTES:
- Relative paths are resolved against the base directory
- Files up to %dMB are accepted
- Directory listings are cached for %s`, maxFileSizeMB, DefaultCacheTTL)
}
