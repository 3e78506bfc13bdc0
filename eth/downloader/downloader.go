// Package downloader implements the regular, tip-following block
// synchronization engine: a single message-driven actor that polls
// handshaked peers for new canonical headers, fetches their bodies,
// executes them against the ledger, persists the results, resolves
// short-range forks, and re-broadcasts what it accepts.
package downloader

import (
	"errors"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"

	"github.com/ethersync/ethersync/common"
	"github.com/ethersync/ethersync/core"
	"github.com/ethersync/ethersync/core/types"
	"github.com/ethersync/ethersync/event"
	"github.com/ethersync/ethersync/log"
)

var errRequestTimeout = errors.New("request timed out")

// Config collects every knob this engine's behavior is tuned by.
type Config struct {
	BlockHeadersPerRequest  int
	BlockBodiesPerRequest   int
	BlockResolveDepth       int
	SyncRequestTimeout      time.Duration
	CheckForNewBlockInterval time.Duration
}

// DefaultConfig holds reasonable chunk sizes and timeouts for a
// single-peer, tip-following sync loop.
var DefaultConfig = Config{
	BlockHeadersPerRequest:   192,
	BlockBodiesPerRequest:    128,
	BlockResolveDepth:        64,
	SyncRequestTimeout:       15 * time.Second,
	CheckForNewBlockInterval: 4 * time.Second,
}

// HeaderStart is either a block number or a block hash, matching the
// GetBlockHeaders start field's Either<BlockNumber, BlockHash> shape.
type HeaderStart struct {
	Number  uint64
	Hash    common.Hash
	UseHash bool
}

func StartAtNumber(n uint64) HeaderStart { return HeaderStart{Number: n} }
func StartAtHash(h common.Hash) HeaderStart {
	return HeaderStart{Hash: h, UseHash: true}
}

// Bodies is the in-order response to a requestBodies call.
type Bodies []*types.Body

// Topic is posted on the TypeMux whenever the executor pipeline lands at
// least one new block.
type BroadcastNewBlocks struct {
	Blocks []types.NewBlockPacket
}

// ResumeRegularSyncTick is the scheduler's self-tick event.
type ResumeRegularSyncTick struct{}

// MinedBlock is posted by the local miner; handling it is in the event
// vocabulary but its body is intentionally minimal pending further design.
type MinedBlock struct{ Block *types.Block }

// ReceivedMessage is any other peer message the engine does not act on
// beyond logging it.
type ReceivedMessage struct {
	PeerID string
	Msg    interface{}
}

// processBlockHeadersEvent is the internal continuation of an outstanding
// requestHeaders call. ok mirrors the request-driver result discipline:
// err != nil means timeout/transport failure, ok == false means the peer
// actively misbehaved, and a nil headers slice with ok == true models the
// "peer had nothing new" response.
type processBlockHeadersEvent struct {
	peerID  string
	headers types.Headers
	ok      bool
	err     error
}

type processBlockBodiesEvent struct {
	peerID string
	bodies Bodies
	ok     bool
	err    error
}

type nodeDataEvent struct {
	peerID      string
	hash        common.Hash
	blockNumber uint64
	data        []byte
	ok          bool
	err         error
}

// Engine is the single-owner sync actor: WorkingHeaders, isUnderReorg and
// the node-error peer set are mutated only from its own run loop.
type Engine struct {
	config Config

	ledger  core.Ledger
	storage core.Storage
	txPool  core.TxPool
	uncles  core.UnclePool
	mux     *event.TypeMux

	peers *peerSet

	workingHeaders   types.Headers
	isUnderReorg     bool
	forkLog          *forkResolveLog
	pendingDisplaced types.Transactions

	inbox        chan interface{}
	quit         chan struct{}
	resumeGen    int64
	resumeTimer  *time.Timer

	log log.Logger
}

// New constructs an Engine. It does not start the run loop; call Start.
func New(config Config, ledger core.Ledger, storage core.Storage, txPool core.TxPool, uncles core.UnclePool, mux *event.TypeMux) *Engine {
	return &Engine{
		config:  config,
		ledger:  ledger,
		storage: storage,
		txPool:  txPool,
		uncles:  uncles,
		mux:     mux,
		peers:   newPeerSet(),
		forkLog: newForkResolveLog(),
		inbox:   make(chan interface{}, 64),
		quit:    make(chan struct{}),
		log:     log.New("module", "downloader"),
	}
}

// RegisterPeer adds a newly handshaked peer to the selection pool.
func (e *Engine) RegisterPeer(id string, head common.Hash, td *big.Int,
	requestHeaders func(HeaderStart, int, int, bool) (types.Headers, bool, error),
	requestBodies func([]common.Hash) (Bodies, bool, error),
	requestNodeData func(common.Hash) ([]byte, bool, error)) error {

	p := newPeer(id, head, td)
	p.requestHeaders = requestHeaders
	p.requestBodies = requestBodies
	p.requestNodeData = requestNodeData
	return e.peers.Register(p)
}

// UnregisterPeer drops a disconnected peer from the pool.
func (e *Engine) UnregisterPeer(id string) error { return e.peers.Unregister(id) }

// Start runs the engine's message loop until Stop is called. It is meant
// to be run in its own goroutine; every other method on Engine that
// mutates engine state communicates with it only through the inbox.
func (e *Engine) Start() {
	e.resumeRegularSync()
	for {
		select {
		case ev := <-e.inbox:
			e.dispatch(ev)
		case <-e.quit:
			return
		}
	}
}

// Stop terminates the run loop.
func (e *Engine) Stop() { close(e.quit) }

// post enqueues an event on the engine's own inbox. Every asynchronous
// completion (request result, timer fire) is delivered this way rather
// than by calling back into engine state directly, so it is always
// serialized behind the single run loop.
func (e *Engine) post(ev interface{}) {
	select {
	case e.inbox <- ev:
	case <-e.quit:
	}
}

func (e *Engine) dispatch(ev interface{}) {
	switch v := ev.(type) {
	case ResumeRegularSyncTick:
		e.onResumeTick()
	case processBlockHeadersEvent:
		e.onHeaderResult(v)
	case processBlockBodiesEvent:
		e.onBodyResult(v)
	case nodeDataEvent:
		e.onNodeData(v)
	case MinedBlock:
		e.onMinedBlock(v)
	case ReceivedMessage:
		e.log.Debug("received message", "peer", v.PeerID, "msg", v.Msg)
	default:
		e.log.Warn("unhandled downloader event", "type", v)
	}
}

// ---- Scheduler ----------------------------------------------------------

// resumeRegularSync is the scheduler's immediate self-tick: clear the
// tentative chain and issue a fresh header request.
func (e *Engine) resumeRegularSync() {
	atomic.AddInt64(&e.resumeGen, 1)
	if e.resumeTimer != nil {
		e.resumeTimer.Stop()
	}
	e.workingHeaders = nil
	e.requestNextHeaders()
}

// scheduleResume arms a single-shot timer; a newer call cancels any
// earlier one via the resumeGen dedup key.
func (e *Engine) scheduleResume() {
	if e.resumeTimer != nil {
		e.resumeTimer.Stop()
	}
	gen := atomic.AddInt64(&e.resumeGen, 1)
	e.resumeTimer = time.AfterFunc(e.config.CheckForNewBlockInterval, func() {
		if atomic.LoadInt64(&e.resumeGen) == gen {
			e.post(ResumeRegularSyncTick{})
		}
	})
}

func (e *Engine) onResumeTick() { e.resumeRegularSync() }

// requestNextHeaders issues a fresh GetBlockHeaders call starting just
// above the local best block. It is reached only from resumeRegularSync,
// which has already cleared WorkingHeaders; the body-processor "advance"
// path, which leaves WorkingHeaders non-empty, uses requestBodiesFor.
func (e *Engine) requestNextHeaders() {
	p := e.peers.SelectPeer()
	if p == nil {
		e.scheduleResume()
		return
	}
	start := StartAtNumber(e.storage.BestBlockNumber() + 1)
	e.issueHeaderRequest(p, start, e.config.BlockHeadersPerRequest, 0, false)
}

func (e *Engine) issueHeaderRequest(p *peer, start HeaderStart, count, skip int, reverse bool) {
	go func() {
		type result struct {
			headers types.Headers
			ok      bool
			err     error
		}
		resCh := make(chan result, 1)
		go func() {
			headers, ok, err := p.requestHeaders(start, count, skip, reverse)
			resCh <- result{headers, ok, err}
		}()
		var res result
		select {
		case res = <-resCh:
		case <-time.After(e.config.SyncRequestTimeout):
			res = result{nil, false, errRequestTimeout}
		}
		e.post(processBlockHeadersEvent{peerID: p.id, headers: res.headers, ok: res.ok, err: res.err})
	}()
}

func (e *Engine) issueBodiesRequest(p *peer, hashes []common.Hash) {
	timeout := e.config.SyncRequestTimeout + time.Duration(len(hashes))*100*time.Millisecond
	go func() {
		type result struct {
			bodies Bodies
			ok     bool
			err    error
		}
		resCh := make(chan result, 1)
		go func() {
			bodies, ok, err := p.requestBodies(hashes)
			resCh <- result{bodies, ok, err}
		}()
		var res result
		select {
		case res = <-resCh:
		case <-time.After(timeout):
			res = result{nil, false, errRequestTimeout}
		}
		e.post(processBlockBodiesEvent{peerID: p.id, bodies: res.bodies, ok: res.ok, err: res.err})
	}()
}

func (e *Engine) issueNodeDataRequest(p *peer, hash common.Hash, blockNumber uint64) {
	go func() {
		type result struct {
			data []byte
			ok   bool
			err  error
		}
		resCh := make(chan result, 1)
		go func() {
			data, ok, err := p.requestNodeData(hash)
			resCh <- result{data, ok, err}
		}()
		var res result
		select {
		case res = <-resCh:
		case <-time.After(10 * time.Second):
			res = result{nil, false, errRequestTimeout}
		}
		e.post(nodeDataEvent{peerID: p.id, hash: hash, blockNumber: blockNumber, data: res.data, ok: res.ok, err: res.err})
	}()
}

func (e *Engine) blacklistAndResume(peerID, reason string, force bool) {
	e.peers.Blacklist(peerID, reason, force)
	e.resumeRegularSync()
}

// ---- Header Processor ----------------------------------------------------

func (e *Engine) onHeaderResult(v processBlockHeadersEvent) {
	if v.err != nil {
		e.blacklistAndResume(v.peerID, "header request failed: "+v.err.Error(), false)
		return
	}
	if !v.ok {
		e.blacklistAndResume(v.peerID, "malformed header response", false)
		return
	}
	headersInMeter.Mark(int64(len(v.headers)))
	e.peers.ResetBlacklistCount(v.peerID)
	e.processBlockHeaders(v.peerID, v.headers)
}

// processBlockHeaders implements the four transitions of the central
// state machine driven by a (peer, headers) event.
func (e *Engine) processBlockHeaders(peerID string, headers types.Headers) {
	switch {
	case len(e.workingHeaders) == 0 && len(headers) == 0:
		// Case 1: we are at the tip.
		e.scheduleResume()

	case len(e.workingHeaders) == 0 && len(headers) > 0:
		// Case 2: adopt as the new working chain.
		e.workingHeaders = headers
		e.doProcess(peerID, headers)

	case len(e.workingHeaders) > 0 && len(headers) > 0 &&
		headers[len(headers)-1].Hash() == e.workingHeaders[0].ParentHash:
		// Case 3: fork-resolve rejoin — prepend.
		merged := make(types.Headers, 0, len(headers)+len(e.workingHeaders))
		merged = append(merged, headers...)
		merged = append(merged, e.workingHeaders...)
		e.workingHeaders = merged
		e.doProcess(peerID, headers)

	default:
		// Case 4: peer did not serve the predecessor we asked for.
		e.blacklistAndResume(peerID, "headers did not extend the requested predecessor", false)
	}
}

// checkHeaders verifies the WorkingHeaders adjacency invariant.
func checkHeaders(headers types.Headers) bool {
	for i := 1; i < len(headers); i++ {
		if headers[i-1].Hash() != headers[i].ParentHash {
			return false
		}
		if headers[i-1].NumberU64()+1 != headers[i].NumberU64() {
			return false
		}
	}
	return true
}

// getPrevBlocks walks headers in order and returns the prefix for which a
// locally canonical block already exists at that number, stopping at the
// first absence.
func (e *Engine) getPrevBlocks(headers types.Headers) types.Blocks {
	var out types.Blocks
	for _, h := range headers {
		b, ok := e.storage.GetBlockByNumber(h.NumberU64())
		if !ok {
			break
		}
		out = append(out, b)
	}
	return out
}

// sumDifficulty and sumBlockDifficulty fold difficulty with uint256.Int,
// the same consensus-arithmetic type Header.DifficultyU256 exposes, and
// hand back a *big.Int only at the boundary for the Storage/Ledger
// interfaces that still speak math/big.
func sumDifficulty(headers types.Headers) *big.Int {
	sum := new(uint256.Int)
	for _, h := range headers {
		sum.Add(sum, h.DifficultyU256())
	}
	return sum.ToBig()
}

func sumBlockDifficulty(blocks types.Blocks) *big.Int {
	sum := new(uint256.Int)
	for _, b := range blocks {
		sum.Add(sum, b.Header().DifficultyU256())
	}
	return sum.ToBig()
}

// doProcess validates a header batch and decides whether it extends the
// canonical chain directly, wins or loses a short reorg, or diverges
// further and needs another backward step.
func (e *Engine) doProcess(peerID string, headers types.Headers) {
	if !checkHeaders(headers) {
		e.blacklistAndResume(peerID, "non-adjacent header batch", false)
		return
	}
	first := headers[0]
	parent, ok := e.storage.GetBlockHeaderByNumber(first.NumberU64() - 1)
	if !ok {
		e.blacklistAndResume(peerID, "no local parent for offered headers", false)
		return
	}

	if parent.Hash() == first.ParentHash {
		e.commonPrefix(peerID, headers)
		return
	}

	// Divergence.
	e.forkLog.record(peerID)
	if e.isUnderReorg {
		force := e.forkLog.Consecutive(peerID)
		e.blacklistAndResume(peerID, "fork did not rejoin within resolve depth", force)
		return
	}
	e.isUnderReorg = true
	e.issueHeaderRequest(e.peers.Peer(peerID), StartAtHash(first.ParentHash), e.config.BlockResolveDepth, 0, true)
}

func (e *Engine) commonPrefix(peerID string, headers types.Headers) {
	first := headers[0]
	oldBranch := e.getPrevBlocks(headers)
	oldTd := sumBlockDifficulty(oldBranch)
	newTd := sumDifficulty(headers)

	if newTd.Cmp(oldTd) > 0 {
		// Commit the reorg.
		if e.isUnderReorg {
			e.storage.ClearUnconfirmed()
		}
		e.isUnderReorg = false
		reorgCommitted.Inc(1)

		for _, b := range oldBranch {
			e.pendingDisplaced = append(e.pendingDisplaced, b.Transactions()...)
		}
		if len(oldBranch) > 0 {
			e.uncles.Add(types.Headers{oldBranch[0].Header()})
		}

		e.requestBodiesFor(peerID, headers)
		return
	}

	// Equal total difficulty rejects too; only a strictly heavier branch wins.
	reorgRejected.Inc(1)
	e.uncles.Add(types.Headers{first})
	e.isUnderReorg = false
	e.workingHeaders = nil
	e.scheduleResume()
}

func (e *Engine) requestBodiesFor(peerID string, headers types.Headers) {
	p := e.peers.Peer(peerID)
	if p == nil {
		e.resumeRegularSync()
		return
	}
	n := e.config.BlockBodiesPerRequest
	if n > len(headers) {
		n = len(headers)
	}
	hashes := make([]common.Hash, n)
	for i := 0; i < n; i++ {
		hashes[i] = headers[i].Hash()
	}
	e.issueBodiesRequest(p, hashes)
}

// ---- Body Processor & Executor Pipeline -----------------------------------

func (e *Engine) onBodyResult(v processBlockBodiesEvent) {
	if v.err != nil {
		e.blacklistAndResume(v.peerID, "body request failed: "+v.err.Error(), false)
		return
	}
	if !v.ok {
		e.blacklistAndResume(v.peerID, "malformed body response", false)
		return
	}
	bodiesInMeter.Mark(int64(len(v.bodies)))
	e.peers.ResetBlacklistCount(v.peerID)
	e.processBlockBodies(v.peerID, v.bodies)
}

func (e *Engine) processBlockBodies(peerID string, bodies Bodies) {
	if len(bodies) == 0 || len(e.workingHeaders) == 0 {
		e.blacklistAndResume(peerID, "empty body response for pending headers", false)
		return
	}

	n := len(bodies)
	if n > len(e.workingHeaders) {
		n = len(e.workingHeaders)
	}
	now := time.Now()
	candidates := make(types.Blocks, n)
	for i := 0; i < n; i++ {
		candidates[i] = withReceivedAt(types.NewBlock(e.workingHeaders[i], bodies[i]), now)
	}

	validBlocks, verr := e.ledger.ValidateBlocksBeforeExecution(candidates)
	if verr != nil && len(validBlocks) == 0 {
		e.blacklistAndResume(peerID, "block validation failed: "+verr.Error(), false)
		return
	}
	if len(validBlocks) == 0 {
		e.blacklistAndResume(peerID, "validator produced no usable blocks", false)
		return
	}

	parentTd, ok := e.storage.GetTotalDifficultyByHash(validBlocks[0].ParentHash())
	if !ok {
		e.log.Crit("missing parent total difficulty for validated block", "number", validBlocks[0].NumberU64())
		return
	}

	lastTd, successes, execErr := e.executeBlocks(validBlocks, parentTd)

	if len(successes) > 0 {
		e.reinjectDisplacedTxs(successes)
		e.broadcastNewBlocks(successes)
		e.ledger.SetCurrBlockHeaderForChecking(successes[len(successes)-1].Block.Header())
		e.workingHeaders = e.workingHeaders[len(successes):]
	}

	switch err := execErr.(type) {
	case nil:
		if len(e.workingHeaders) > 0 {
			e.requestBodiesFor(peerID, e.workingHeaders)
		} else {
			e.scheduleResume()
		}
	case *core.MissingStateNodeError:
		p := e.peers.NodeOkPeer()
		if p == nil {
			p = e.peers.Peer(peerID)
		}
		if p == nil {
			e.peers.AddNodeErrorPeer(peerID)
			e.resumeRegularSync()
			return
		}
		e.issueNodeDataRequest(p, err.Hash, err.BlockNumber)
	default:
		e.blacklistAndResume(peerID, "block execution failed", false)
	}
	_ = lastTd
}

// reinjectDisplacedTxs returns the committed reorg's displaced transactions
// to the pool, minus whatever the new branch already re-included, using
// TxDifference against the blocks the executor pipeline just landed.
func (e *Engine) reinjectDisplacedTxs(successes []types.NewBlockPacket) {
	if len(e.pendingDisplaced) == 0 {
		return
	}
	var newTxs types.Transactions
	for _, s := range successes {
		newTxs = append(newTxs, s.Block.Transactions()...)
	}
	if diff := types.TxDifference(e.pendingDisplaced, newTxs); len(diff) > 0 {
		e.txPool.Add(diff)
	}
	e.pendingDisplaced = nil
}

func withReceivedAt(b *types.Block, t time.Time) *types.Block {
	b.ReceivedAt = t
	return b
}

// executeBlocks is the Executor Pipeline: a sequential fold that stops at
// the first error, since persisted state from block i is a precondition
// for block i+1.
func (e *Engine) executeBlocks(blocks types.Blocks, parentTd *big.Int) (*big.Int, []types.NewBlockPacket, error) {
	td := uint256.MustFromBig(parentTd)
	var successes []types.NewBlockPacket

	for _, b := range blocks {
		var result *core.ExecutionResult
		var err error
		executeTimer.Time(func() {
			result, err = e.ledger.ExecuteBlock(b)
		})
		if err != nil {
			return td.ToBig(), successes, err
		}
		td = new(uint256.Int).Add(td, b.Header().DifficultyU256())
		if serr := e.storage.SaveNewBlock(result.World, b, result.Receipts, td.ToBig()); serr != nil {
			return td.ToBig(), successes, serr
		}
		importedCounter.Inc(1)
		e.txPool.Remove(b.Transactions())
		e.uncles.Remove(append(types.Headers{b.Header()}, b.Uncles()...))
		successes = append(successes, types.NewBlockPacket{Block: b, TotalDifficulty: td.ToBig()})
	}
	return td.ToBig(), successes, nil
}

func (e *Engine) broadcastNewBlocks(blocks []types.NewBlockPacket) {
	if e.mux == nil || len(blocks) == 0 {
		return
	}
	e.mux.Post(BroadcastNewBlocks{Blocks: blocks})
}

// ---- Missing state node recovery -------------------------------------------

func (e *Engine) onNodeData(v nodeDataEvent) {
	if v.err != nil || !v.ok || len(v.data) == 0 {
		e.peers.AddNodeErrorPeer(v.peerID)
		e.resumeRegularSync()
		return
	}
	e.storage.Put(v.hash, v.data)
	e.resumeRegularSync()
}

// ---- Mined blocks -----------------------------------------------------------

// onMinedBlock handles a locally mined block. One already at or below the
// known best number is treated as a no-op; anything else is logged only,
// since broadcasting and reorg handling for it are not yet implemented.
func (e *Engine) onMinedBlock(v MinedBlock) {
	if v.Block == nil {
		return
	}
	if v.Block.NumberU64() <= e.storage.BestBlockNumber() {
		return
	}
	e.log.Debug("mined block observed, deferring to regular sync", "number", v.Block.NumberU64())
}

// PostProcessBlockHeaders lets the peer layer feed a header response into
// the inbox directly, bypassing issueHeaderRequest's own goroutine+timeout
// pairing. The response is handled later by the run loop.
func (e *Engine) PostProcessBlockHeaders(peerID string, headers types.Headers, ok bool) {
	e.post(processBlockHeadersEvent{peerID: peerID, headers: headers, ok: ok})
}

// PostProcessBlockBodies is the body-response analog of
// PostProcessBlockHeaders.
func (e *Engine) PostProcessBlockBodies(peerID string, bodies Bodies, ok bool) {
	e.post(processBlockBodiesEvent{peerID: peerID, bodies: bodies, ok: ok})
}

// PostMinedBlock enqueues a MinedBlock event.
func (e *Engine) PostMinedBlock(b *types.Block) { e.post(MinedBlock{Block: b}) }

// PostReceivedMessage enqueues a generic, logged-only peer message.
func (e *Engine) PostReceivedMessage(peerID string, msg interface{}) {
	e.post(ReceivedMessage{PeerID: peerID, Msg: msg})
}
