package filekit

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Outcome describes a finished run.
type Outcome struct {
	// Artifact is the registered result of a successful run.
	Artifact *Handle
	// Ignored counts the accepted files beyond the first, which are not
	// processed. It is zero for transformations that take every file.
	Ignored int
	// Notice is a user-facing message when files were ignored.
	Notice string
}

// Session is the single owner of one tool's processing state. All state
// changes go through its methods; observers receive immutable snapshots.
//
// A Session is safe for concurrent use. Starting a run while another is in
// flight resets the first one, whose result is then discarded.
type Session struct {
	tool ToolDescriptor
	cfg  config
	disp *dispatcher
	life *Lifecycle
	log  *zap.Logger

	mu       sync.Mutex
	status   Status
	progress int
	files    []FileCandidate
	err      *Error
	gen      uint64
	cancel   context.CancelFunc
	ticker   *ticker
	subs     map[int]func(State)
	nextSub  int
}

func newSession(tool ToolDescriptor, cfg config, disp *dispatcher) *Session {
	log := cfg.log.With(zap.String("tool", tool.Slug()))
	return &Session{
		tool:   tool,
		cfg:    cfg,
		disp:   disp,
		life:   NewLifecycle(log, cfg.spoolDir),
		log:    log,
		status: StatusIdle,
		subs:   map[int]func(State){},
	}
}

// Tool returns the tool the session processes files for.
func (s *Session) Tool() ToolDescriptor { return s.tool }

// Offer validates files for the session's tool. Rejections are returned
// one verdict per file. If at least one file is accepted the session is
// reset and the accepted files replace the held ones; otherwise the
// session is left untouched.
func (s *Session) Offer(files []FileCandidate) (Partition, error) {
	p, err := Validate(s.tool, files, s.cfg.limits)
	for _, v := range p.Rejected {
		s.log.Info("file rejected",
			zap.String("file", v.File.Name),
			zap.String("reason", string(v.Reason)),
		)
	}
	if err != nil {
		return p, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.files = append([]FileCandidate(nil), p.Accepted...)
	s.notifyLocked()
	return p, nil
}

// Run processes the first held file with t. Files beyond the first are
// ignored and reported in the Outcome, unless t takes every file, in which
// case all held files are loaded and passed on in selection order.
//
// Failures are returned as *Error and leave the session in StatusError.
// If the session is reset or another run starts before t resolves, the
// result is discarded and ErrStale is returned.
func (s *Session) Run(ctx context.Context, t Transformation) (Outcome, error) {
	s.mu.Lock()
	if len(s.files) == 0 {
		s.mu.Unlock()
		return Outcome{}, ErrNoFiles
	}
	if s.status != StatusIdle {
		files := s.files
		s.resetLocked()
		s.files = files
	}
	s.gen++
	gen := s.gen
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	files := append([]FileCandidate(nil), s.files...)
	if !TakesAllFiles(t) {
		files = files[:1]
	}
	out := Outcome{Ignored: len(s.files) - len(files)}
	s.setStatusLocked(StatusUploading)
	s.mu.Unlock()
	defer cancel()

	if out.Ignored > 0 {
		out.Notice = fmt.Sprintf("only the first file was processed; %d other file(s) ignored", out.Ignored)
	}
	log := s.log.With(zap.Uint64("generation", gen), zap.String("file", files[0].Name), zap.Int("files", len(files)))

	in := make([]input, 0, len(files))
	for _, f := range files {
		data, err := f.load(runCtx)
		if err != nil {
			_, err = s.finish(gen, log, nil, transformationError(fmt.Sprintf("reading %s failed", f.Name), err))
			return out, err
		}
		in = append(in, input{file: f, data: data})
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		log.Debug("run superseded during upload")
		return out, ErrStale
	}
	s.setStatusLocked(StatusProcessing)
	s.ticker = startTicker(s, gen, s.cfg.progress.resolved())
	s.mu.Unlock()

	art, err := s.disp.dispatchAll(runCtx, t, in, func(done, total int) {
		s.report(gen, done, total)
	})
	out.Artifact, err = s.finish(gen, log, art, err)
	return out, err
}

// finish resolves run gen. A stale result is dropped without touching
// state.
func (s *Session) finish(gen uint64, log *zap.Logger, art *Artifact, err error) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		log.Debug("discarding stale result", zap.Bool("produced", art != nil))
		return nil, ErrStale
	}
	s.stopLocked()

	if err != nil {
		fe := classify(err)
		log.Warn("run failed", zap.String("kind", string(fe.Kind)), zap.Error(fe))
		s.err = fe
		s.progress = 0
		s.setStatusLocked(StatusError)
		return nil, fe
	}

	h := s.life.Register(art)
	s.progress = 100
	s.setStatusLocked(StatusComplete)
	log.Info("run complete", zap.String("artifact", art.Name()), zap.Int("parts", len(art.Parts)))
	return h, nil
}

// Reset cancels any run in flight, stops the ticker, releases the
// artifact and clears the held files. It is idempotent.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.status != StatusIdle || len(s.files) > 0 || s.err != nil || s.progress != 0
	s.resetLocked()
	if changed {
		s.notifyLocked()
	}
}

func (s *Session) resetLocked() {
	s.gen++
	s.stopLocked()
	s.life.Release()
	if s.status != StatusIdle {
		s.log.Debug("reset", zap.String("from", string(s.status)))
	}
	s.status = StatusIdle
	s.progress = 0
	s.files = nil
	s.err = nil
}

// stopLocked cancels the in-flight context and stops the ticker.
func (s *Session) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.ticker != nil {
		s.ticker.stop()
		s.ticker = nil
	}
}

func (s *Session) setStatusLocked(to Status) {
	if !s.status.CanTransition(to) {
		s.log.Warn("unexpected transition", zap.String("from", string(s.status)), zap.String("to", string(to)))
	}
	s.log.Debug("transition", zap.String("from", string(s.status)), zap.String("to", string(to)), zap.Uint64("generation", s.gen))
	s.status = to
	s.notifyLocked()
}

// tick applies one ticker step. It returns false once the ticker's run is
// no longer current.
func (s *Session) tick(gen uint64, p Progress) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.status != StatusProcessing {
		return false
	}
	if next := min(s.progress+p.Step, p.Ceiling); next > s.progress {
		s.progress = next
		s.notifyLocked()
	}
	return true
}

// report merges adapter progress. It never lowers progress and never
// passes the ceiling.
func (s *Session) report(gen uint64, done, total int) {
	if total <= 0 {
		return
	}
	p := s.cfg.progress.resolved()
	v := min(done*p.Ceiling/total, p.Ceiling)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.status != StatusProcessing || v <= s.progress {
		return
	}
	s.progress = v
	s.notifyLocked()
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() State {
	st := State{
		Status:   s.status,
		Progress: s.progress,
		Files:    append([]FileCandidate(nil), s.files...),
		Err:      s.err,
	}
	if s.status == StatusComplete {
		st.Artifact = s.life.Current()
	}
	return st
}

// Subscribe registers fn to receive a snapshot after every state change,
// in order. fn runs with the session locked and must not call back into
// the session. The returned function unsubscribes.
func (s *Session) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) notifyLocked() {
	if len(s.subs) == 0 {
		return
	}
	st := s.snapshotLocked()
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			fn(st)
		}
	}
}
