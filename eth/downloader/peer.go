// Contains the active peer-set of the downloader, maintaining both
// reputation and blacklist state used to prioritize and filter block
// retrieval sources.

package downloader

import (
	"errors"
	"math/big"
	"math/rand"
	"sync"

	mapset "github.com/deckarep/golang-set"

	"github.com/ethersync/ethersync/common"
	"github.com/ethersync/ethersync/core/types"
	"github.com/ethersync/ethersync/log"
)

var (
	errAlreadyRegistered = errors.New("peer is already registered")
	errNotRegistered     = errors.New("peer is not registered")
)

// peer is the engine's view of a handshaked remote node: its advertised
// chain weight and reputation. The engine never talks to the network
// directly; requestHeaders/requestBodies/requestNodeData are supplied by
// the peer layer when the peer is registered.
type peer struct {
	id              string
	head            common.Hash
	totalDifficulty *big.Int
	forkAccepted    bool

	mu  sync.RWMutex
	rep int32 // reputation, increased on ResetBlacklistCount, halved on Demote

	requestHeaders  func(start HeaderStart, count int, skip int, reverse bool) (types.Headers, bool, error)
	requestBodies   func(hashes []common.Hash) (Bodies, bool, error)
	requestNodeData func(hash common.Hash) ([]byte, bool, error)
}

func newPeer(id string, head common.Hash, td *big.Int) *peer {
	return &peer{id: id, head: head, totalDifficulty: td, forkAccepted: true}
}

// Promote increases the peer's reputation, called via ResetBlacklistCount
// on every response the engine judges well-formed.
func (p *peer) Promote() {
	p.mu.Lock()
	p.rep++
	p.mu.Unlock()
}

// Demote halves the peer's reputation, leaving it at zero rather than
// going negative.
func (p *peer) Demote() {
	p.mu.Lock()
	p.rep /= 2
	p.mu.Unlock()
}

func (p *peer) reputation() int32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rep
}

// peerSet tracks every handshaked peer plus the engine-owned blacklist and
// per-peer node-fetch failure set described by the PeerInfo/NodeErrorPeers
// data model.
type peerSet struct {
	mu        sync.RWMutex
	peers     map[string]*peer
	blacklist mapset.Set // peer ids excluded from selection entirely
	nodeErr   mapset.Set // peer ids excluded only from NodeOkPeer selection
}

func newPeerSet() *peerSet {
	return &peerSet{
		peers:     make(map[string]*peer),
		blacklist: mapset.NewSet(),
		nodeErr:   mapset.NewSet(),
	}
}

func (ps *peerSet) Register(p *peer) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if _, ok := ps.peers[p.id]; ok {
		return errAlreadyRegistered
	}
	ps.peers[p.id] = p
	return nil
}

func (ps *peerSet) Unregister(id string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if _, ok := ps.peers[id]; !ok {
		return errNotRegistered
	}
	delete(ps.peers, id)
	return nil
}

func (ps *peerSet) Peer(id string) *peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.peers[id]
}

func (ps *peerSet) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.peers)
}

// Blacklist excludes a peer from future selection. force is recorded for
// logging only; the peer layer decides how long the exclusion lasts, so
// from the engine's point of view both are permanent for this process
// lifetime.
func (ps *peerSet) Blacklist(id string, reason string, force bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.blacklist.Add(id)
	if p, ok := ps.peers[id]; ok {
		p.Demote()
	}
	log.Warn("blacklisting peer", "id", id, "reason", reason, "force", force)
	blacklistMeter.Mark(1)
}

// ResetBlacklistCount credits good behavior: it does not remove an existing
// blacklist entry (blacklisting is sticky for the process lifetime here),
// it only restores reputation via Promote.
func (ps *peerSet) ResetBlacklistCount(id string) {
	ps.mu.RLock()
	p, ok := ps.peers[id]
	ps.mu.RUnlock()
	if ok {
		p.Promote()
	}
}

// AddNodeErrorPeer records that id failed to serve a requested state trie
// node, excluding it from future NodeOkPeer selections until restart.
func (ps *peerSet) AddNodeErrorPeer(id string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.nodeErr.Add(id)
}

// usablePeers returns handshaked peers that have accepted the local fork
// rule and are not blacklisted.
func (ps *peerSet) usablePeers() []*peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	out := make([]*peer, 0, len(ps.peers))
	for id, p := range ps.peers {
		if !p.forkAccepted || ps.blacklist.Contains(id) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SelectPeer implements the Peer Selector: filter to usable peers, sort
// descending by total difficulty, take the top three, pick one uniformly
// at random. Biasing to the top preserves tip-freshness; randomizing among
// the top three avoids hot-spotting a single peer and tolerates one slow
// peer at the tip.
func (ps *peerSet) SelectPeer() *peer {
	return selectFromTopK(ps.usablePeers())
}

// NodeOkPeer applies the same top-three-random procedure restricted to
// peers that have not previously failed a node-data request, used only
// when refetching a missing state trie node.
func (ps *peerSet) NodeOkPeer() *peer {
	ps.mu.RLock()
	blacklist := ps.nodeErr
	ps.mu.RUnlock()

	usable := ps.usablePeers()
	filtered := make([]*peer, 0, len(usable))
	for _, p := range usable {
		if !blacklist.Contains(p.id) {
			filtered = append(filtered, p)
		}
	}
	return selectFromTopK(filtered)
}

func selectFromTopK(peers []*peer) *peer {
	if len(peers) == 0 {
		return nil
	}
	sorted := make([]*peer, len(peers))
	copy(sorted, peers)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].totalDifficulty.Cmp(sorted[i].totalDifficulty) > 0 {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	k := len(sorted)
	if k > 3 {
		k = 3
	}
	return sorted[rand.Intn(k)]
}
