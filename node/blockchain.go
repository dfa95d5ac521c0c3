package node

import (
	"context"
	"encoding/json"

	"github.com/duniter/dunicore/docs"
	"github.com/duniter/dunicore/forktree"
	"github.com/duniter/dunicore/ids"
	"github.com/duniter/dunicore/log"
	"github.com/duniter/dunicore/router"
	"github.com/duniter/dunicore/wot"
)

// BlockchainConf is the strongly-typed shape of the blockchain module's
// sidecar entry. The module does not decode it: Start ignores globalConf,
// and the fork window and max_cert come from NewBlockchainModule's
// arguments.
type BlockchainConf struct {
	ForkWindow int `json:"fork_window"`
	MaxCert    int `json:"max_cert"`
}

// NewBlockPayload is the Event payload carried on EventNewBlockFromNetwork:
// a block arriving (main or fork) that the blockchain module should apply
// to its fork tree, plus the WoT documents it carries. The documents are
// only applied to the WoT graph when the block lands on the main branch;
// a forked block's identity/certification/membership/revocation effects
// stay speculative until its branch wins.
type NewBlockPayload struct {
	Blockstamp ids.Blockstamp
	Parent     *ids.NodeID
	OnMain     bool

	Identities     []docs.Identity
	Certifications []docs.Certification
	Memberships    []docs.Membership
	Revocations    []docs.Revocation
}

// BlockchainModule is the always-loaded module that drives the fork tree
// and WoT graph. It is registered with roles
// {BlockchainDatas, BlockValidation} and subscribes to
// {NewBlockFromNetwork, SyncEvent}.
type BlockchainModule struct {
	logger log.Logger
	recv   chan router.Message
	send   chan<- router.Message

	Tree *forktree.Tree
	WoT  *wot.Graph

	// identities maps a known issuer's public key to its densely allocated
	// WoT node, assigned the first time that issuer is seen (as an
	// identity, a certification endpoint, a membership or a revocation).
	identities map[ids.PubKey]ids.NodeID
	// certs records the active outgoing certifications issued by each
	// node, so a later revocation can remove exactly the edges it granted.
	certs map[ids.PubKey]map[ids.PubKey]struct{}
}

// NewBlockchainModule constructs the module with the given fork window and
// WoT max_cert. It owns its receive channel from construction so Start can
// be called any time after Registration has been handed to the router.
func NewBlockchainModule(logger log.Logger, forkWindow int, maxCert uint32) *BlockchainModule {
	ch := make(chan router.Message, 64)
	return &BlockchainModule{
		logger:     logger,
		recv:       ch,
		send:       ch,
		Tree:       forktree.New(forkWindow),
		WoT:        wot.New(maxCert),
		identities: make(map[ids.PubKey]ids.NodeID),
		certs:      make(map[ids.PubKey]map[ids.PubKey]struct{}),
	}
}

// nodeFor returns the WoT node for a known issuer, allocating one on first
// sight.
func (m *BlockchainModule) nodeFor(pub ids.PubKey) ids.NodeID {
	if id, ok := m.identities[pub]; ok {
		return id
	}
	id := m.WoT.AddNode()
	m.identities[pub] = id
	return id
}

func (m *BlockchainModule) Registration() router.Registration {
	return router.Registration{
		StaticName: "blockchain",
		Sender:     m.send,
		Roles: map[router.Role]struct{}{
			router.RoleBlockchainDatas: {},
			router.RoleBlockValidation: {},
		},
		Events: map[router.EventType]struct{}{
			router.EventNewBlockFromNetwork: {},
			router.EventSyncEvent:           {},
		},
	}
}

// Start runs the blockchain module's main loop: apply inbound blocks to
// the fork tree until ctx is cancelled or router.Stop arrives.
func (m *BlockchainModule) Start(ctx context.Context, globalConf json.RawMessage, sender router.Sender) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-m.recv:
			if _, ok := msg.(router.Stop); ok {
				return nil
			}
			m.handle(msg)
		}
	}
}

// Sync runs the same loop; the blockchain module's behavior does not
// differ between `start` and `sync` (a sync run always loads the
// blockchain module alongside the network modules driving it).
func (m *BlockchainModule) Sync(ctx context.Context, globalConf json.RawMessage, sender router.Sender) error {
	return m.Start(ctx, globalConf, sender)
}

func (m *BlockchainModule) handle(msg router.Message) {
	ev, ok := msg.(router.Event)
	if !ok || ev.Type != router.EventNewBlockFromNetwork {
		return
	}
	payload, ok := ev.Payload.(NewBlockPayload)
	if !ok {
		m.logger.Warn("blockchain: unexpected NewBlockFromNetwork payload", "type", ev.Payload)
		return
	}
	if _, err := m.Tree.Insert(payload.Blockstamp, payload.Parent, payload.OnMain); err != nil {
		m.logger.Warn("blockchain: failed to insert block", "blockstamp", payload.Blockstamp, "err", err)
		return
	}
	if payload.OnMain {
		m.applyWoT(payload)
	}
}

// applyWoT drives the WoT graph from the documents a main-branch block
// carries: identities allocate a node, certifications link two nodes,
// memberships enable a node, and revocations disable a node and remove
// every outgoing certification it had issued.
func (m *BlockchainModule) applyWoT(payload NewBlockPayload) {
	for _, id := range payload.Identities {
		m.nodeFor(id.IssuerKey)
	}

	for _, cert := range payload.Certifications {
		from, to := m.nodeFor(cert.From), m.nodeFor(cert.To)
		if _, err := m.WoT.AddLink(from, to); err != nil {
			m.logger.Warn("blockchain: certification rejected", "from", cert.From, "to", cert.To, "err", err)
			continue
		}
		if m.certs[cert.From] == nil {
			m.certs[cert.From] = make(map[ids.PubKey]struct{})
		}
		m.certs[cert.From][cert.To] = struct{}{}
	}

	for _, mem := range payload.Memberships {
		m.WoT.SetEnabled(m.nodeFor(mem.IssuerKey), true)
	}

	for _, rev := range payload.Revocations {
		node := m.nodeFor(rev.IssuerKey)
		for to := range m.certs[rev.IssuerKey] {
			if _, err := m.WoT.RemLink(node, m.nodeFor(to)); err != nil {
				m.logger.Warn("blockchain: revocation edge removal failed", "issuer", rev.IssuerKey, "to", to, "err", err)
			}
		}
		delete(m.certs, rev.IssuerKey)
		m.WoT.SetEnabled(node, false)
	}
}
