package filekit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porticus-lab/filekit/internal/docx"
)

// recorder collects snapshots delivered to a subscriber.
type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) add(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Status
	for _, s := range r.states {
		if len(out) == 0 || out[len(out)-1] != s.Status {
			out = append(out, s.Status)
		}
	}
	return out
}

func (r *recorder) all() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func newTestSession(t *testing.T, slug string, opts ...Option) *Session {
	t.Helper()
	kit := New(opts...)
	t.Cleanup(func() { kit.Close() })
	s, err := kit.NewSession(slug)
	require.NoError(t, err)
	return s
}

func offer(t *testing.T, s *Session, files ...FileCandidate) {
	t.Helper()
	_, err := s.Offer(files)
	require.NoError(t, err)
}

func TestSessionRunCompletes(t *testing.T) {
	s := newTestSession(t, "pdf-to-word")
	rec := &recorder{}
	defer s.Subscribe(rec.add)()

	offer(t, s, IntakeBytes("report.pdf", "application/pdf", markerPDF(3)))
	assert.Equal(t, StatusIdle, s.Snapshot().Status)
	assert.Len(t, s.Snapshot().Files, 1)

	out, err := s.Run(context.Background(), PDFToDocument{})
	require.NoError(t, err)
	require.NotNil(t, out.Artifact)
	assert.Zero(t, out.Ignored)
	assert.Empty(t, out.Notice)

	st := s.Snapshot()
	assert.Equal(t, StatusComplete, st.Status)
	assert.Equal(t, 100, st.Progress)
	assert.Nil(t, st.Err)
	assert.Same(t, out.Artifact, st.Artifact)

	assert.Equal(t, []Status{StatusIdle, StatusUploading, StatusProcessing, StatusComplete}, rec.statuses())
	for _, st := range rec.all() {
		assert.False(t, st.Err != nil && st.Artifact != nil, "error and artifact are exclusive")
		if st.Status != StatusComplete {
			assert.LessOrEqual(t, st.Progress, 95)
		}
	}

	a, err := out.Artifact.Artifact()
	require.NoError(t, err)
	paras, err := docx.Paragraphs(a.Parts[0].Data)
	require.NoError(t, err)
	assert.Equal(t, []string{"marker-1", "marker-2", "marker-3"}, paras)
}

func TestSessionFailureResetsProgress(t *testing.T) {
	s := newTestSession(t, "pdf-to-word")
	offer(t, s, IntakeBytes("bad.pdf", "application/pdf", []byte("garbage")))

	out, err := s.Run(context.Background(), PDFToDocument{})
	assert.Equal(t, KindTransformation, KindOf(err))
	assert.Nil(t, out.Artifact)

	st := s.Snapshot()
	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, 0, st.Progress)
	require.NotNil(t, st.Err)
	assert.Nil(t, st.Artifact)
}

func TestSessionProgressNeverPassesCeiling(t *testing.T) {
	r := &fakeRenderer{block: make(chan struct{})}
	s := newTestSession(t, "html-to-pdf",
		WithPageRenderer(r),
		WithProgress(Progress{Interval: time.Millisecond, Step: 40, Ceiling: 90}),
	)
	rec := &recorder{}
	defer s.Subscribe(rec.add)()
	offer(t, s, IntakeBytes("page.html", "text/html", []byte("<p>x</p>")))

	done := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background(), HTMLToPDF{})
		done <- err
	}()

	require.Eventually(t, func() bool { return s.Snapshot().Progress == 90 }, 2*time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 90, s.Snapshot().Progress)
	assert.Equal(t, StatusProcessing, s.Snapshot().Status)

	close(r.block)
	require.NoError(t, <-done)
	assert.Equal(t, 100, s.Snapshot().Progress)

	last := -1
	for _, st := range rec.all() {
		if st.Status == StatusProcessing {
			assert.GreaterOrEqual(t, st.Progress, last, "progress is monotonic")
			assert.LessOrEqual(t, st.Progress, 90)
			last = st.Progress
		}
	}
}

func TestSessionResetDiscardsStaleResult(t *testing.T) {
	r := &fakeRenderer{block: make(chan struct{}), started: make(chan struct{}, 1)}
	s := newTestSession(t, "html-to-pdf", WithPageRenderer(r))
	offer(t, s, IntakeBytes("page.html", "text/html", []byte("<p>x</p>")))

	done := make(chan error, 1)
	var out Outcome
	go func() {
		var err error
		out, err = s.Run(context.Background(), HTMLToPDF{})
		done <- err
	}()

	<-r.started
	s.Reset()
	err := <-done
	assert.ErrorIs(t, err, ErrStale)
	assert.Nil(t, out.Artifact)

	st := s.Snapshot()
	assert.Equal(t, StatusIdle, st.Status)
	assert.Equal(t, 0, st.Progress)
	assert.Empty(t, st.Files)
	assert.Nil(t, st.Err)
	assert.Nil(t, st.Artifact)
}

func TestSessionResetDropsLateSuccess(t *testing.T) {
	r := &fakeRenderer{block: make(chan struct{}), started: make(chan struct{}, 1), ignoreCancel: true}
	s := newTestSession(t, "html-to-pdf", WithPageRenderer(r))
	offer(t, s, IntakeBytes("page.html", "text/html", []byte("<p>x</p>")))

	done := make(chan error, 1)
	var out Outcome
	go func() {
		var err error
		out, err = s.Run(context.Background(), HTMLToPDF{})
		done <- err
	}()

	<-r.started
	s.Reset()
	// The renderer finishes with data after the reset.
	close(r.block)
	err := <-done
	assert.ErrorIs(t, err, ErrStale)
	assert.Nil(t, out.Artifact)

	st := s.Snapshot()
	assert.Equal(t, StatusIdle, st.Status)
	assert.Equal(t, 0, st.Progress)
	assert.Nil(t, st.Err)
	assert.Nil(t, st.Artifact)
}

func TestSessionReplacedRunIsStale(t *testing.T) {
	r := &fakeRenderer{block: make(chan struct{}), started: make(chan struct{}, 1)}
	s := newTestSession(t, "html-to-pdf", WithPageRenderer(r))
	offer(t, s, IntakeBytes("page.html", "text/html", []byte("<p>x</p>")))

	first := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background(), HTMLToPDF{})
		first <- err
	}()
	<-r.started

	second := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background(), HTMLToPDF{})
		second <- err
	}()
	assert.ErrorIs(t, <-first, ErrStale)

	<-r.started
	close(r.block)
	require.NoError(t, <-second)
	assert.Equal(t, StatusComplete, s.Snapshot().Status)
}

func TestSessionIgnoresExtraFiles(t *testing.T) {
	s := newTestSession(t, "character-and-word-counter")
	offer(t, s,
		IntakeBytes("a.txt", "text/plain", []byte("first file")),
		IntakeBytes("b.txt", "text/plain", []byte("second")),
		IntakeBytes("c.txt", "text/plain", []byte("third")),
	)
	out, err := s.Run(context.Background(), TextStats{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Ignored)
	assert.Equal(t, "only the first file was processed; 2 other file(s) ignored", out.Notice)
	assert.Equal(t, "a-stats.json", out.Artifact.Name())
}

func TestSessionMergeTakesAllFiles(t *testing.T) {
	s := newTestSession(t, "merge-pdf")
	rec := &recorder{}
	defer s.Subscribe(rec.add)()

	offer(t, s,
		IntakeBytes("a.pdf", "application/pdf", markerRangePDF(1, 2)),
		IntakeBytes("b.pdf", "application/pdf", markerRangePDF(3, 3)),
		IntakeBytes("c.pdf", "application/pdf", markerRangePDF(4, 5)),
	)
	out, err := s.Run(context.Background(), MergePDF{})
	require.NoError(t, err)
	assert.Zero(t, out.Ignored)
	assert.Empty(t, out.Notice)
	assert.Equal(t, "merged-document.pdf", out.Artifact.Name())
	assert.Equal(t, StatusComplete, s.Snapshot().Status)
	assert.Equal(t, []Status{StatusIdle, StatusUploading, StatusProcessing, StatusComplete}, rec.statuses())

	a, err := out.Artifact.Artifact()
	require.NoError(t, err)
	assert.Equal(t, "a.pdf, b.pdf, c.pdf", a.Source)
	assert.Equal(t, []string{"marker-1", "marker-2", "marker-3", "marker-4", "marker-5"}, pdfTexts(t, a.Parts[0].Data))
}

func TestSessionMergeReportsUnreadableFile(t *testing.T) {
	s := newTestSession(t, "merge-pdf")
	offer(t, s,
		IntakeBytes("good.pdf", "application/pdf", markerRangePDF(1, 1)),
		IntakeBytes("broken.pdf", "application/pdf", []byte("%PDF-1.4 truncated")),
	)
	_, err := s.Run(context.Background(), MergePDF{})
	assert.Equal(t, KindTransformation, KindOf(err))
	assert.Contains(t, err.Error(), "broken.pdf")
	assert.Equal(t, StatusError, s.Snapshot().Status)
}

func TestSessionOfferRejectsWithoutChangingState(t *testing.T) {
	s := newTestSession(t, "character-and-word-counter")
	offer(t, s, IntakeBytes("a.txt", "text/plain", []byte("keep me")))

	p, err := s.Offer([]FileCandidate{IntakeBytes("x.pdf", "application/pdf", []byte("%PDF"))})
	assert.ErrorIs(t, err, ErrNoneAccepted)
	assert.Len(t, p.Rejected, 1)
	assert.Len(t, s.Snapshot().Files, 1)

	_, err = s.Offer(nil)
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestSessionRunWithoutFiles(t *testing.T) {
	s := newTestSession(t, "pdf-to-word")
	_, err := s.Run(context.Background(), PDFToDocument{})
	assert.ErrorIs(t, err, ErrNoFiles)
	assert.Equal(t, StatusIdle, s.Snapshot().Status)
}

func TestSessionUnsupportedTool(t *testing.T) {
	s := newTestSession(t, "split-pdf")
	offer(t, s, IntakeBytes("a.pdf", "application/pdf", []byte("%PDF-1.4")))
	_, err := s.Run(context.Background(), Unsupported{Name: "Split PDF"})
	assert.Equal(t, KindNotImplemented, KindOf(err))
	assert.Equal(t, StatusError, s.Snapshot().Status)
}

func TestSessionRerunAfterComplete(t *testing.T) {
	s := newTestSession(t, "text-case-converter")
	offer(t, s, IntakeBytes("a.txt", "text/plain", []byte("hello")))

	first, err := s.Run(context.Background(), TextCase{Mode: "upper"})
	require.NoError(t, err)
	second, err := s.Run(context.Background(), TextCase{Mode: "lower"})
	require.NoError(t, err)

	assert.True(t, first.Artifact.Released(), "a new run releases the previous artifact")
	assert.False(t, second.Artifact.Released())
	assert.Equal(t, "a-lower.txt", second.Artifact.Name())
}

func TestSessionResetIsIdempotent(t *testing.T) {
	s := newTestSession(t, "text-case-converter")
	rec := &recorder{}
	defer s.Subscribe(rec.add)()

	s.Reset()
	assert.Empty(t, rec.all(), "resetting an idle session notifies nobody")

	offer(t, s, IntakeBytes("a.txt", "text/plain", []byte("hello")))
	out, err := s.Run(context.Background(), TextCase{Mode: "upper"})
	require.NoError(t, err)

	s.Reset()
	n := len(rec.all())
	s.Reset()
	assert.Len(t, rec.all(), n)
	assert.True(t, out.Artifact.Released())
	assert.Equal(t, State{Status: StatusIdle}, s.Snapshot())
}

func TestSessionUnsubscribe(t *testing.T) {
	s := newTestSession(t, "text-case-converter")
	rec := &recorder{}
	unsubscribe := s.Subscribe(rec.add)
	offer(t, s, IntakeBytes("a.txt", "text/plain", []byte("hello")))
	n := len(rec.all())
	require.Positive(t, n)

	unsubscribe()
	s.Reset()
	assert.Len(t, rec.all(), n)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusIdle.CanTransition(StatusUploading))
	assert.True(t, StatusProcessing.CanTransition(StatusIdle))
	assert.False(t, StatusComplete.CanTransition(StatusProcessing))
	assert.False(t, StatusIdle.CanTransition(StatusComplete))
	assert.True(t, StatusError.Terminal())
	assert.True(t, StatusUploading.Active())
	assert.False(t, StatusIdle.Active())
}
