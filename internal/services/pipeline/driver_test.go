package pipeline

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	arbormodels "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/notiondigest/internal/interfaces"
	"github.com/ternarybob/notiondigest/internal/models"
)

const (
	titleProp   = "Article Title"
	summaryProp = "Article Summary"
)

// MockSummarizer is a mock implementation of interfaces.Summarizer
type MockSummarizer struct {
	mock.Mock
}

func (m *MockSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

func (m *MockSummarizer) Name() string {
	return "mock/summarizer"
}

// memStore is an in-memory document store holding pages and their block trees
type memStore struct {
	mu          sync.Mutex
	order       []string
	pages       map[string]*models.Page
	children    map[string][]*models.Block
	retrieveErr error
	updateErr   map[string]error
	onRetrieve  func(pageID string)
	updates     map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		pages:     make(map[string]*models.Page),
		children:  make(map[string][]*models.Block),
		updateErr: make(map[string]error),
		updates:   make(map[string]string),
	}
}

func (s *memStore) addPage(id, title, summary string, blocks ...*models.Block) {
	s.order = append(s.order, id)
	s.pages[id] = &models.Page{
		ID: id,
		Properties: map[string]models.Property{
			titleProp:   {Type: models.PropertyTypeTitle, Title: runs(title)},
			summaryProp: {Type: models.PropertyTypeRichText, RichText: runs(summary)},
		},
	}
	s.children[id] = blocks
}

func runs(text string) []models.RichText {
	if text == "" {
		return nil
	}
	return []models.RichText{{PlainText: text}}
}

func paragraph(id, text string) *models.Block {
	return &models.Block{
		ID:      id,
		Type:    "paragraph",
		Content: map[string]*models.BlockContent{"paragraph": {RichText: runs(text)}},
	}
}

func (s *memStore) snapshot(id string) *models.Page {
	page := *s.pages[id]
	props := make(map[string]models.Property, len(page.Properties))
	for k, v := range page.Properties {
		props[k] = v
	}
	page.Properties = props
	return &page
}

func (s *memStore) QueryDatabase(ctx context.Context, databaseID string, query interfaces.DatabaseQuery) (*models.PageList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []*models.Page
	for _, id := range s.order {
		if s.pages[id].RichTextValue(summaryProp) == "" {
			matches = append(matches, s.snapshot(id))
		}
	}

	start := 0
	if query.StartCursor != "" {
		start, _ = strconv.Atoi(query.StartCursor)
	}
	end := start + query.PageSize
	if end > len(matches) {
		end = len(matches)
	}
	list := &models.PageList{Results: matches[start:end]}
	if end < len(matches) {
		next := strconv.Itoa(end)
		list.HasMore = true
		list.NextCursor = &next
	}
	return list, nil
}

func (s *memStore) ListBlockChildren(ctx context.Context, blockID string, pageSize int, cursor string) (*models.BlockList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &models.BlockList{Results: s.children[blockID]}, nil
}

func (s *memStore) RetrievePage(ctx context.Context, pageID string) (*models.Page, error) {
	if s.onRetrieve != nil {
		s.onRetrieve(pageID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retrieveErr != nil {
		return nil, s.retrieveErr
	}
	return s.snapshot(pageID), nil
}

func (s *memStore) UpdateRichTextProperty(ctx context.Context, pageID string, property string, value []models.RichText) (*models.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.updateErr[pageID]; err != nil {
		return nil, err
	}
	text := ""
	for _, run := range value {
		text += run.Text.Content
	}
	s.updates[pageID] = text
	page := s.pages[pageID]
	page.Properties[property] = models.Property{Type: models.PropertyTypeRichText, RichText: runs(text)}
	return &models.Page{ID: pageID}, nil
}

// recordingObserver captures checkpoint order
type recordingObserver struct {
	events   []string
	finished *models.RunReport
}

func (o *recordingObserver) RunStarted(runID string)   { o.events = append(o.events, "start") }
func (o *recordingObserver) CandidatesFound(count int) { o.events = append(o.events, "found:"+strconv.Itoa(count)) }
func (o *recordingObserver) RecordStarted(index, total int, page *models.Page, title string) {
	o.events = append(o.events, "record:"+page.ID)
}
func (o *recordingObserver) RecordSkipped(outcome models.RecordOutcome) {
	o.events = append(o.events, "skipped:"+outcome.PageID+":"+string(outcome.SkipReason))
}
func (o *recordingObserver) RecordUpdated(outcome models.RecordOutcome) {
	o.events = append(o.events, "updated:"+outcome.PageID)
}
func (o *recordingObserver) RecordFailed(outcome models.RecordOutcome) {
	o.events = append(o.events, "failed:"+outcome.PageID)
}
func (o *recordingObserver) RunFinished(report *models.RunReport) {
	o.events = append(o.events, "finish")
	o.finished = report
}

func testConfig() Config {
	return Config{
		DatabaseID:      "db",
		TitleProperty:   titleProp,
		SummaryProperty: summaryProp,
		PageSize:        100,
	}
}

func newTestDriver(store *memStore, summarizer *MockSummarizer, observer interfaces.PipelineObserver, config Config) *Driver {
	logger := arbor.NewLogger()
	return NewDriver(store, summarizer, NewMultiObserver(NewLoggingObserver(logger), observer), config, logger)
}

func TestDriver_UpdatesEmptyRecords(t *testing.T) {
	store := newMemStore()
	store.addPage("p1", "Title One", "", paragraph("b1", "Body one"))
	store.addPage("p2", "", "", paragraph("b2", "Body two"))
	store.addPage("done", "Old", "existing summary")

	summarizer := &MockSummarizer{}
	summarizer.On("Summarize", mock.Anything, "【タイトル】\nTitle One\n\n【本文】\nBody one\n").Return("  summary one ", nil).Once()
	summarizer.On("Summarize", mock.Anything, "\n【本文】\nBody two\n").Return("summary two", nil).Once()

	observer := &recordingObserver{}
	report := newTestDriver(store, summarizer, observer, testConfig()).Run(context.Background())

	summarizer.AssertExpectations(t)
	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.False(t, report.Aborted)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "summary one", store.updates["p1"], "summary is trimmed before writing")
	assert.Equal(t, "summary two", store.updates["p2"])
	_, touched := store.updates["done"]
	assert.False(t, touched)

	assert.Equal(t, []string{
		"start", "found:2",
		"record:p1", "updated:p1",
		"record:p2", "updated:p2",
		"finish",
	}, observer.events)
	assert.Same(t, report, observer.finished)
}

func TestDriver_SecondRunIsNoop(t *testing.T) {
	store := newMemStore()
	store.addPage("p1", "Title", "", paragraph("b1", "Body"))

	summarizer := &MockSummarizer{}
	summarizer.On("Summarize", mock.Anything, mock.Anything).Return("summary", nil).Once()

	driver := newTestDriver(store, summarizer, nil, testConfig())
	first := driver.Run(context.Background())
	second := driver.Run(context.Background())

	assert.Equal(t, 1, first.Updated)
	assert.Equal(t, 0, second.Candidates)
	assert.Equal(t, 0, second.Processed())
	assert.NotEqual(t, first.RunID, second.RunID)
	summarizer.AssertNumberOfCalls(t, "Summarize", 1)
}

func TestDriver_SkipsRecordSummarizedSinceSelection(t *testing.T) {
	store := newMemStore()
	store.addPage("p1", "Title", "", paragraph("b1", "Body"))
	store.onRetrieve = func(pageID string) {
		store.mu.Lock()
		defer store.mu.Unlock()
		store.pages[pageID].Properties[summaryProp] = models.Property{RichText: runs("written elsewhere")}
	}

	summarizer := &MockSummarizer{}
	observer := &recordingObserver{}
	report := newTestDriver(store, summarizer, observer, testConfig()).Run(context.Background())

	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, models.SkipAlreadySummarized, report.Outcomes[0].SkipReason)
	assert.Contains(t, observer.events, "skipped:p1:already_summarized")
	summarizer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
	assert.Empty(t, store.updates)
}

func TestDriver_RecheckFailureUsesSnapshot(t *testing.T) {
	store := newMemStore()
	store.addPage("p1", "Title", "", paragraph("b1", "Body"))
	store.retrieveErr = errors.New("retrieve failed")

	summarizer := &MockSummarizer{}
	summarizer.On("Summarize", mock.Anything, mock.Anything).Return("summary", nil).Once()

	report := newTestDriver(store, summarizer, nil, testConfig()).Run(context.Background())
	assert.Equal(t, 1, report.Updated)
}

func TestDriver_RecheckFailureIsLoggedWithRunID(t *testing.T) {
	store := newMemStore()
	store.addPage("p1", "Title", "", paragraph("b1", "Body"))
	store.retrieveErr = errors.New("retrieve failed")

	summarizer := &MockSummarizer{}
	summarizer.On("Summarize", mock.Anything, mock.Anything).Return("summary", nil).Once()

	logger := arbor.NewLogger().WithMemoryWriter(arbormodels.WriterConfiguration{})
	driver := NewDriver(store, summarizer, NewLoggingObserver(logger), testConfig(), logger)

	report := driver.Run(context.Background())
	require.Equal(t, 1, report.Updated)

	assert.Eventually(t, func() bool {
		entries, err := logger.GetMemoryLogs(report.RunID, arbor.WarnLevel)
		if err != nil {
			return false
		}
		for _, entry := range entries {
			if strings.Contains(entry, "Re-check failed") {
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDriver_SkipsEmptyContentWithoutModelCall(t *testing.T) {
	store := newMemStore()
	store.addPage("blank", "   ", "", paragraph("b1", ""), &models.Block{ID: "d", Type: "divider"})

	summarizer := &MockSummarizer{}
	report := newTestDriver(store, summarizer, nil, testConfig()).Run(context.Background())

	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, models.SkipEmptyContent, report.Outcomes[0].SkipReason)
	summarizer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
}

func TestDriver_ModelFailureIsIsolated(t *testing.T) {
	store := newMemStore()
	store.addPage("p1", "First", "")
	store.addPage("p2", "Second", "")
	store.addPage("p3", "Third", "")

	summarizer := &MockSummarizer{}
	summarizer.On("Summarize", mock.Anything, "【タイトル】\nFirst\n").Return("", errors.New("model down")).Once()
	summarizer.On("Summarize", mock.Anything, "【タイトル】\nSecond\n").Return("   ", nil).Once()
	summarizer.On("Summarize", mock.Anything, "【タイトル】\nThird\n").Return("third summary", nil).Once()

	report := newTestDriver(store, summarizer, nil, testConfig()).Run(context.Background())

	assert.Equal(t, 3, report.Candidates)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, models.SkipEmptySummary, report.Outcomes[0].SkipReason)
	assert.Equal(t, "model down", report.Outcomes[0].Error)
	assert.Equal(t, models.SkipEmptySummary, report.Outcomes[1].SkipReason)
	assert.Equal(t, "third summary", store.updates["p3"])
}

func TestDriver_PersistFailureIsCountedAsFailed(t *testing.T) {
	store := newMemStore()
	store.addPage("p1", "First", "")
	store.addPage("p2", "Second", "")
	store.updateErr["p1"] = errors.New("conflict")

	summarizer := &MockSummarizer{}
	summarizer.On("Summarize", mock.Anything, mock.Anything).Return("summary", nil)

	observer := &recordingObserver{}
	report := newTestDriver(store, summarizer, observer, testConfig()).Run(context.Background())

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, models.OutcomeFailed, report.Outcomes[0].Status)
	assert.Equal(t, "conflict", report.Outcomes[0].Error)
	assert.Contains(t, observer.events, "failed:p1")
	assert.Contains(t, observer.events, "updated:p2")
}

func TestDriver_DryRunNeverWrites(t *testing.T) {
	store := newMemStore()
	store.addPage("p1", "Title", "")

	summarizer := &MockSummarizer{}
	summarizer.On("Summarize", mock.Anything, mock.Anything).Return("summary", nil)

	config := testConfig()
	config.DryRun = true
	report := newTestDriver(store, summarizer, nil, config).Run(context.Background())

	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, models.SkipDryRun, report.Outcomes[0].SkipReason)
	assert.Equal(t, "summary", report.Outcomes[0].Summary)
	assert.Empty(t, store.updates)
}

func TestDriver_MaxRecords(t *testing.T) {
	store := newMemStore()
	for i := 0; i < 5; i++ {
		store.addPage("p"+strconv.Itoa(i), "Title", "")
	}

	summarizer := &MockSummarizer{}
	summarizer.On("Summarize", mock.Anything, mock.Anything).Return("summary", nil)

	config := testConfig()
	config.MaxRecords = 2
	report := newTestDriver(store, summarizer, nil, config).Run(context.Background())

	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, 2, report.Updated)
	assert.Contains(t, store.updates, "p0")
	assert.Contains(t, store.updates, "p1")
	assert.NotContains(t, store.updates, "p2")
}

func TestDriver_CustomLabels(t *testing.T) {
	store := newMemStore()
	store.addPage("p1", "Title", "", paragraph("b1", "Body"))

	summarizer := &MockSummarizer{}
	summarizer.On("Summarize", mock.Anything, "[Title]\nTitle\n\n[Body]\nBody\n").Return("summary", nil).Once()

	config := testConfig()
	config.Labels = Labels{Title: "[Title]", Body: "[Body]"}
	newTestDriver(store, summarizer, nil, config).Run(context.Background())

	summarizer.AssertExpectations(t)
}

func TestDriver_CancelledContextAborts(t *testing.T) {
	store := newMemStore()
	store.addPage("p1", "First", "")
	store.addPage("p2", "Second", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	summarizer := &MockSummarizer{}
	summarizer.On("Summarize", mock.Anything, "【タイトル】\nFirst\n").
		Run(func(args mock.Arguments) { cancel() }).
		Return("first summary", nil).Once()

	observer := &recordingObserver{}
	report := newTestDriver(store, summarizer, observer, testConfig()).Run(ctx)

	assert.True(t, report.Aborted)
	assert.Contains(t, report.Error, ErrRunCancelled.Error())
	assert.Equal(t, 1, report.Updated, "a write that completed is still counted")
	assert.Equal(t, 1, report.Processed())
	assert.NotContains(t, store.updates, "p2")
	assert.Equal(t, "finish", observer.events[len(observer.events)-1])
}

func TestDriver_CancelledBeforeWriteIsNotCounted(t *testing.T) {
	store := newMemStore()
	store.addPage("p1", "First", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	summarizer := &MockSummarizer{}
	summarizer.On("Summarize", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { cancel() }).
		Return("", context.Canceled).Once()

	report := newTestDriver(store, summarizer, nil, testConfig()).Run(ctx)

	assert.True(t, report.Aborted)
	assert.Equal(t, 0, report.Processed(), "interrupted record is left for the next run")
}

func TestDriver_RecoversFromPanic(t *testing.T) {
	store := newMemStore()
	store.addPage("p1", "Title", "")

	summarizer := &MockSummarizer{}
	summarizer.On("Summarize", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		panic("unexpected response shape")
	}).Return("", nil)

	observer := &recordingObserver{}
	var report *models.RunReport
	require.NotPanics(t, func() {
		report = newTestDriver(store, summarizer, observer, testConfig()).Run(context.Background())
	})

	assert.True(t, report.Aborted)
	assert.Contains(t, report.Error, "unexpected response shape")
	assert.False(t, report.FinishedAt.IsZero())
	assert.Same(t, report, observer.finished)
}
