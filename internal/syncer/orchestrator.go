// Package syncer decides when local state is downloaded, merged and uploaded.
//
// The orchestrator is driven entirely by Observe: callers pass the current
// inputs after every change, and results are written back through Setters.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/julianstephens/hemma/internal/constants"
	"github.com/julianstephens/hemma/internal/logger"
	"github.com/julianstephens/hemma/internal/merge"
	"github.com/julianstephens/hemma/internal/models"
)

// ErrNoCredential is returned by a Remote that has no bearer token. The
// orchestrator treats it as a silent no-op.
var ErrNoCredential = errors.New("no credential")

// State is the orchestrator's current activity.
type State int

const (
	Idle State = iota
	Downloading
	Uploading
)

func (s State) String() string {
	switch s {
	case Downloading:
		return "downloading"
	case Uploading:
		return "uploading"
	default:
		return "idle"
	}
}

// Remote is the sync endpoint contract.
type Remote interface {
	Download(ctx context.Context) (models.SyncPayload, error)
	Upload(ctx context.Context, payload models.SyncPayload) (models.SyncPayload, error)
}

// Inputs is everything the orchestrator observes.
type Inputs struct {
	IsAuthenticated       bool
	TrackerState          models.TrackerState
	DayUpdatedAt          models.DayUpdatedAtMap
	CustomHabits          []models.HabitCategory
	CustomHabitsUpdatedAt string
	CurrentDay            int
}

// Setters merge remote results into the local models. Each one must read
// its local side and write the merge under the model's own lock, and return
// what it stored. Nil setters are skipped.
type Setters struct {
	ApplyEntries    func(remote []models.SyncEntry) (models.TrackerState, models.DayUpdatedAtMap)
	ApplyCategories func(remote []models.SyncCategory) ([]models.HabitCategory, string)
}

type Option func(*Orchestrator)

// WithDebounce sets the quiet period before an upload fires.
func WithDebounce(d time.Duration) Option {
	return func(o *Orchestrator) { o.debounce = d }
}

// WithAuthErrorHandler is called when the remote rejects the credential.
func WithAuthErrorHandler(fn func(error)) Option {
	return func(o *Orchestrator) { o.onAuthError = fn }
}

// WithErrorHandler is called for every failed download or upload other than
// a missing credential or cancellation. Local state is untouched either way.
func WithErrorHandler(fn func(op string, err error)) Option {
	return func(o *Orchestrator) { o.onError = fn }
}

type Orchestrator struct {
	remote      Remote
	setters     Setters
	debounce    time.Duration
	onAuthError func(error)
	onError     func(op string, err error)

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	idle   *sync.Cond // signalled whenever state returns to Idle
	state  State
	inputs Inputs
	closed bool

	// prevAuth detects the false->true edge of IsAuthenticated.
	prevAuth bool
	// latched is set when this session's download has been started and
	// cleared on sign-out.
	latched bool
	// downloaded is set once this session's download finished, success or not.
	downloaded bool
	// pendingDownload defers a rising edge that arrived while another
	// operation ran.
	pendingDownload bool
	// dirty records a change observed while an operation was in flight.
	dirty bool
	// seq counts observations.
	seq uint64

	timer       *time.Timer
	fingerprint uint64
}

func New(remote Remote, setters Setters, opts ...Option) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		remote:   remote,
		setters:  setters,
		debounce: constants.UploadDebounce,
		ctx:      ctx,
		cancel:   cancel,
	}
	o.idle = sync.NewCond(&o.mu)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Observe records the latest inputs and drives every transition: the
// session download on an authentication rising edge, the latch reset on
// sign-out, and the debounced upload on data changes. Changes seen while a
// download or upload is in flight are settled when it finishes.
func (o *Orchestrator) Observe(in Inputs) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}

	wasAuth := o.prevAuth
	o.prevAuth = in.IsAuthenticated
	o.inputs = in
	o.seq++

	fp := fingerprint(in)
	changed := fp != o.fingerprint
	o.fingerprint = fp

	switch {
	case in.IsAuthenticated && !wasAuth:
		if !o.latched {
			o.latched = true
			o.downloaded = false
			o.startDownloadLocked()
		}
	case !in.IsAuthenticated && wasAuth:
		o.latched = false
		o.downloaded = false
		o.pendingDownload = false
		o.dirty = false
		o.stopTimerLocked()
		logger.Debug("Signed out, sync paused")
	case in.IsAuthenticated && changed && o.state != Idle:
		o.dirty = true
	case in.IsAuthenticated && changed && o.downloaded:
		o.armLocked()
	}
}

// Flush lets an in-flight download finish, fires a pending upload
// immediately instead of waiting out the debounce, and waits for it.
func (o *Orchestrator) Flush(ctx context.Context) {
	o.waitCtx(ctx)

	o.mu.Lock()
	pending := o.timer != nil && o.timer.Stop()
	o.timer = nil
	o.mu.Unlock()

	if pending {
		o.fireUpload()
	}
	o.waitCtx(ctx)
}

// Wait blocks until no download or upload is in flight.
func (o *Orchestrator) Wait() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for o.state != Idle {
		o.idle.Wait()
	}
}

// Close stops the debounce timer, cancels in-flight requests and waits for them.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.stopTimerLocked()
	o.mu.Unlock()

	o.cancel()
	o.Wait()
}

func (o *Orchestrator) waitCtx(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		o.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (o *Orchestrator) startDownloadLocked() {
	if o.state != Idle {
		o.pendingDownload = true
		return
	}
	o.state = Downloading
	go o.download()
}

func (o *Orchestrator) download() {
	logger.Debug("Downloading remote state")
	remote, err := o.remote.Download(o.ctx)

	var server *models.SyncPayload
	if err != nil {
		o.reportError("download", err)
	} else {
		o.apply(remote)
		server = &remote
		logger.Info("Download merged", "entries", len(remote.Entries), "categories", len(remote.Categories))
	}

	o.mu.Lock()
	o.finishLocked(server)
	o.mu.Unlock()
}

func (o *Orchestrator) armLocked() {
	if o.closed {
		return
	}
	o.stopTimerLocked()
	o.timer = time.AfterFunc(o.debounce, o.fireUpload)
}

func (o *Orchestrator) stopTimerLocked() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}

// fireUpload runs one upload unless the session is not ready or another
// operation is in flight. A dropped firing is not lost: the running
// operation settles pending changes when it finishes.
func (o *Orchestrator) fireUpload() {
	o.mu.Lock()
	if o.closed || !o.prevAuth || !o.downloaded {
		o.mu.Unlock()
		return
	}
	if o.state != Idle {
		logger.Debug("Upload skipped, sync already in flight", "state", o.state)
		o.dirty = true
		o.mu.Unlock()
		return
	}
	o.state = Uploading
	o.dirty = false
	local := o.inputs
	o.mu.Unlock()

	payload := models.SyncPayload{
		Entries:    merge.ToEntries(local.TrackerState, local.DayUpdatedAt),
		Categories: merge.ToCategoryPayload(local.CustomHabits, local.CustomHabitsUpdatedAt),
	}.Normalize()

	var server *models.SyncPayload
	merged, err := o.remote.Upload(o.ctx, payload)
	if err != nil {
		o.reportError("upload", err)
	} else {
		o.apply(merged)
		server = &merged
		logger.Debug("Upload merged", "entries", len(merged.Entries), "categories", len(merged.Categories))
	}

	o.mu.Lock()
	o.finishLocked(server)
	o.mu.Unlock()
}

// finishLocked returns to Idle after a download or upload. server is the
// copy the remote now holds, nil when the operation failed. A deferred
// download runs first; otherwise an upload is armed when local state holds
// anything the server copy lacks, or after a failure when changes arrived
// in the meantime.
func (o *Orchestrator) finishLocked(server *models.SyncPayload) {
	wasDownload := o.state == Downloading
	o.state = Idle
	dirty := o.dirty
	o.dirty = false

	switch {
	case o.closed || !o.prevAuth:
	case o.pendingDownload:
		// signed out and back in while this one ran; the new session downloads again
		o.pendingDownload = false
		o.startDownloadLocked()
	default:
		if wasDownload {
			o.downloaded = true
		}
		if (server != nil && diverged(o.inputs, *server)) || (server == nil && dirty && o.downloaded) {
			o.armLocked()
		}
	}

	if o.state == Idle {
		o.idle.Broadcast()
	}
}

// apply hands a remote payload to the setters. When no observation arrives
// while they run, the stored results become the observed inputs.
func (o *Orchestrator) apply(p models.SyncPayload) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	seq := o.seq
	o.mu.Unlock()

	var (
		state    models.TrackerState
		stamps   models.DayUpdatedAtMap
		cats     []models.HabitCategory
		catStamp string
	)
	if o.setters.ApplyEntries != nil {
		state, stamps = o.setters.ApplyEntries(p.Entries)
	}
	if o.setters.ApplyCategories != nil && len(p.Categories) > 0 {
		cats, catStamp = o.setters.ApplyCategories(p.Categories)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seq != seq {
		return
	}
	if o.setters.ApplyEntries != nil {
		o.inputs.TrackerState = state
		o.inputs.DayUpdatedAt = stamps
	}
	if cats != nil {
		o.inputs.CustomHabits = cats
		o.inputs.CustomHabitsUpdatedAt = catStamp
	}
	o.fingerprint = fingerprint(o.inputs)
}

type unauthorized interface {
	Unauthorized() bool
}

func (o *Orchestrator) reportError(op string, err error) {
	switch {
	case errors.Is(err, ErrNoCredential):
		logger.Debug("Sync skipped, no credential", "op", op)
	case errors.Is(err, context.Canceled):
		logger.Debug("Sync cancelled", "op", op)
	default:
		logger.Warn("Sync failed, keeping local state", "op", op, "error", err)
		if o.onError != nil {
			o.onError(op, err)
		}
		var u unauthorized
		if errors.As(err, &u) && u.Unauthorized() && o.onAuthError != nil {
			o.onAuthError(err)
		}
	}
}

// fingerprint hashes the observed data so that re-observing identical
// inputs does not restart the debounce.
func fingerprint(in Inputs) uint64 {
	h, err := hashstructure.Hash(struct {
		TrackerState          models.TrackerState
		DayUpdatedAt          models.DayUpdatedAtMap
		CustomHabits          []models.HabitCategory
		CustomHabitsUpdatedAt string
		CurrentDay            int
	}{in.TrackerState, in.DayUpdatedAt, in.CustomHabits, in.CustomHabitsUpdatedAt, in.CurrentDay}, hashstructure.FormatV2, nil)
	if err != nil {
		// unhashable input: treat every observation as a change
		return uint64(time.Now().UnixNano())
	}
	return h
}

// diverged reports whether local content differs from the server copy.
// Both sides go through the wire shape so empty days and per-category
// stamps compare equal.
func diverged(local Inputs, server models.SyncPayload) bool {
	state, stamps := merge.FromEntries(merge.ToEntries(local.TrackerState, local.DayUpdatedAt))
	serverState, serverStamps := merge.FromEntries(server.Entries)

	cats := merge.FromCategoryPayload(merge.ToCategoryPayload(local.CustomHabits, local.CustomHabitsUpdatedAt))

	a, err := contentHash(state, stamps, cats)
	if err != nil {
		return true
	}
	b, err := contentHash(serverState, serverStamps, merge.FromCategoryPayload(server.Categories))
	if err != nil {
		return true
	}
	return a != b
}

func contentHash(state models.TrackerState, stamps models.DayUpdatedAtMap, cats []models.HabitCategory) (uint64, error) {
	return hashstructure.Hash(struct {
		State      models.TrackerState
		Stamps     models.DayUpdatedAtMap
		Categories []models.HabitCategory
	}{state, stamps, cats}, hashstructure.FormatV2, nil)
}
