package source

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/roomstack/sheetsync/internal"
	"github.com/roomstack/sheetsync/internal/util"
	"github.com/shopmonkeyus/go-common/logger"
)

// Parser turns one exported source file into rows keyed by original column
// name. Implementations register themselves by file extension.
type Parser interface {
	// Extensions returns the file extensions this parser handles, without
	// the leading dot.
	Extensions() []string

	// Parse reads the file and returns its rows in file order.
	Parse(fn string) ([]internal.Row, error)
}

var parsers = make(map[string]Parser)

// RegisterParser registers a parser for its extensions. Later registrations
// win, which lets callers override the built-in formats.
func RegisterParser(p Parser) {
	for _, ext := range p.Extensions() {
		parsers[strings.ToLower(ext)] = p
	}
}

func parserFor(fn string) Parser {
	name := strings.ToLower(filepath.Base(fn))
	name = strings.TrimSuffix(name, ".gz")
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	return parsers[ext]
}

// DirSource reads source files from a versioned directory layout: one
// subdirectory per version holding the exported spreadsheet files.
type DirSource struct {
	logger logger.Logger
	dir    string
}

// NewDirSource returns a RowSource over the given root directory.
func NewDirSource(log logger.Logger, dir string) *DirSource {
	return &DirSource{logger: log.WithPrefix("[source]"), dir: dir}
}

var _ internal.RowSource = (*DirSource)(nil)

// Rows parses every known source file under the version directory and groups
// the rows by logical table name, resolving file base names through the
// mapping's original table names. Files sort lexically so row order is
// stable across runs.
func (s *DirSource) Rows(version string, mapping *internal.Mapping) (map[string][]internal.Row, error) {
	dir := filepath.Join(s.dir, version)
	if !util.Exists(dir) {
		return nil, errors.Newf("no source directory for version %s", version)
	}
	files, err := util.ListDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	index := make(map[string]string)
	for _, node := range mapping.Nodes {
		if node.OriginalName != "" {
			index[node.OriginalName] = node.TableName
		}
		index[node.TableName] = node.TableName
	}

	grouped := make(map[string][]internal.Row)
	for _, fn := range files {
		name := filepath.Base(fn)
		if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			continue
		}
		parser := parserFor(fn)
		if parser == nil {
			continue
		}
		rows, err := parser.Parse(fn)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", name)
		}
		base := BaseTableName(name)
		tableName, ok := index[base]
		if !ok {
			tableName = "unknown_" + base
			s.logger.Warn("no mapping for source file %s (base %s)", name, base)
		}
		grouped[tableName] = append(grouped[tableName], rows...)
		s.logger.Debug("parsed %s: %d rows into %s", name, len(rows), tableName)
	}
	return grouped, nil
}

var (
	extPattern        = regexp.MustCompile(`(?i)\.(csv|ndjson|json)(\.gz)?$`)
	dateSuffixPattern = regexp.MustCompile(`[\(\s_-]*\d{2,4}[-.]\d{1,2}[\)\s]*$`)
	yearSuffixPattern = regexp.MustCompile(`[\s_-]*\d{2,4}$`)
	copySuffixPattern = regexp.MustCompile(`\s*\(\d+\)$`)
)

// BaseTableName strips the extension plus trailing date, year and copy
// markers from an exported file name, leaving the stable report name used to
// look up the logical table. "合同创建报表 24-10 (1).csv" becomes "合同创建报表".
func BaseTableName(fileName string) string {
	name := extPattern.ReplaceAllString(fileName, "")
	name = dateSuffixPattern.ReplaceAllString(name, "")
	name = yearSuffixPattern.ReplaceAllString(name, "")
	name = copySuffixPattern.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}
