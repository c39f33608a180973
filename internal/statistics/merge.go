package statistics

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/leanai/mumul-backend/pkg/storage"
)

const (
	mergedMarker  = "merged_output_"
	agentColumn   = 1
	utterColumn   = 5
	utteranceHead = "user_utterances"
	agentHead     = "agent_id"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Scope picks the merged file name for an account kind.
type Scope int

const (
	ScopeStore Scope = iota
	ScopePublic
)

// MergedName is the output file name for a merge run on day.
func MergedName(scope Scope, day time.Time) string {
	name := mergedMarker + day.Format("2006-01-02") + ".csv"
	if scope == ScopePublic {
		return "public_" + name
	}
	return name
}

func isMerged(name string) bool {
	return strings.Contains(name, mergedMarker) && strings.HasSuffix(strings.ToLower(name), ".csv")
}

// newestMerged returns the key of the latest merged file in objects, by the
// date in its name.
func newestMerged(objects []storage.Object) string {
	var best, bestDate string
	for _, obj := range objects {
		name := obj.Name()
		if !isMerged(name) {
			continue
		}
		date := name[strings.Index(name, mergedMarker)+len(mergedMarker):]
		if best == "" || date > bestDate {
			best, bestDate = obj.Key, date
		}
	}
	return best
}

type utteranceRow struct {
	agentID   string
	utterance string
}

// readConversation pulls the agent id and utterance columns out of one export.
func readConversation(r io.Reader) ([]utteranceRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, err
	}
	if len(header) <= utterColumn {
		return nil, fmt.Errorf("expected at least %d columns, got %d", utterColumn+1, len(header))
	}
	var rows []utteranceRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		if len(record) <= utterColumn {
			continue
		}
		rows = append(rows, utteranceRow{agentID: record[agentColumn], utterance: record[utterColumn]})
	}
}

// merge combines every conversation export under folder into a single CSV
// written next to them. It returns the new key, or "" when nothing could be
// read. Unreadable files are reported through the returned error alongside
// a successful merge.
func (s *service) merge(ctx context.Context, folder string, scope Scope) (string, error) {
	objects, err := s.conversations.List(ctx, folder)
	if err != nil {
		return "", err
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	var (
		rows     []utteranceRow
		fileErrs error
		readAny  bool
	)
	for _, obj := range objects {
		name := obj.Name()
		if isMerged(name) || !strings.HasSuffix(strings.ToLower(name), ".csv") {
			continue
		}
		fileRows, err := s.readObject(ctx, obj.Key)
		if err != nil {
			fileErrs = multierr.Append(fileErrs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		readAny = true
		rows = append(rows, fileRows...)
	}
	if !readAny || len(rows) == 0 {
		return "", fileErrs
	}

	agentID := rows[0].agentID
	questions, err := s.repo.Questions(ctx, agentID)
	if err != nil {
		fileErrs = multierr.Append(fileErrs, fmt.Errorf("question log %s: %w", agentID, err))
	}
	for _, q := range questions {
		rows = append(rows, utteranceRow{agentID: agentID, utterance: q})
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{agentHead, utteranceHead}); err != nil {
		return "", err
	}
	for _, row := range rows {
		if err := w.Write([]string{row.agentID, row.utterance}); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	key := path.Join(folder, MergedName(scope, s.now().In(s.loc)))
	if err := s.conversations.Save(ctx, key, &buf, "text/csv"); err != nil {
		return "", err
	}
	return key, fileErrs
}

func (s *service) readObject(ctx context.Context, key string) ([]utteranceRow, error) {
	rc, err := s.conversations.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return readConversation(stripBOM(rc))
}

func stripBOM(r io.Reader) io.Reader {
	head := make([]byte, len(utf8BOM))
	n, _ := io.ReadFull(r, head)
	if n == len(utf8BOM) && bytes.Equal(head, utf8BOM) {
		return r
	}
	return io.MultiReader(bytes.NewReader(head[:n]), r)
}
