package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/citivoice/complaint-server/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerService keeps a Merkle tree over the complaint history so that
// any later edit to a stored row changes the root
type LedgerService struct {
	mu      sync.RWMutex
	leaves  []string
	layers  [][]string
	root    string
	builtAt time.Time
	logger  *zap.SugaredLogger
}

// NewLedgerService creates an empty ledger
func NewLedgerService(logger *zap.SugaredLogger) *LedgerService {
	return &LedgerService{logger: logger}
}

// LeafHash digests the fields of a history row that must not change
func LeafHash(h *models.HistoryEntry) string {
	parts := []string{
		h.ID.String(),
		h.ComplaintID.String(),
		string(h.Action),
		optionalID(h.FromUserID),
		optionalID(h.ToUserID),
		optionalID(h.FromAgencyID),
		optionalID(h.ToAgencyID),
		h.Metadata,
		h.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func optionalID(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

// Build rebuilds the tree from rows in chronological order
func (l *LedgerService) Build(entries []models.HistoryEntry) {
	leaves := make([]string, len(entries))
	for i := range entries {
		leaves[i] = LeafHash(&entries[i])
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.leaves = leaves
	l.buildTree()
	l.builtAt = time.Now()

	l.logger.Infow("Ledger tree rebuilt",
		"leaves", len(l.leaves),
		"root", l.root,
	)
}

// Status returns the current root and leaf count
func (l *LedgerService) Status() models.LedgerStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return models.LedgerStatus{Root: l.root, LeafCount: len(l.leaves), BuiltAt: l.builtAt}
}

// Proof returns the inclusion proof for the leaf at index
func (l *LedgerService) Proof(index int) (*models.LedgerProof, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index < 0 || index >= len(l.leaves) {
		return nil, apperr.NotFound("Proof not available for index %d", index)
	}

	proof := &models.LedgerProof{
		LeafHash: l.leaves[index],
		Root:     l.root,
		Index:    index,
		Proof:    make([]models.ProofStep, 0),
	}

	current := index
	for i := 0; i < len(l.layers)-1; i++ {
		layer := l.layers[i]
		isRight := current%2 == 1
		sibling := current + 1
		if isRight {
			sibling = current - 1
		}
		// An odd last node is paired with itself
		if sibling >= len(layer) {
			sibling = current
		}

		position := "right"
		if isRight {
			position = "left"
		}
		proof.Proof = append(proof.Proof, models.ProofStep{Hash: layer[sibling], Position: position})
		current /= 2
	}
	return proof, nil
}

// Verify folds the proof over the leaf hash and compares with root
func Verify(req *models.VerifyProofRequest) bool {
	current := req.LeafHash
	for _, step := range req.Proof {
		switch step.Position {
		case "left":
			current = hashPair(step.Hash, current)
		case "right":
			current = hashPair(current, step.Hash)
		default:
			return false
		}
	}
	return current == req.Root
}

// buildTree constructs the layers from leaves (caller holds the write lock)
func (l *LedgerService) buildTree() {
	if len(l.leaves) == 0 {
		l.root = ""
		l.layers = nil
		return
	}

	layer := make([]string, len(l.leaves))
	copy(layer, l.leaves)
	l.layers = [][]string{layer}

	for len(layer) > 1 {
		next := make([]string, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			left := layer[i]
			right := left
			if i+1 < len(layer) {
				right = layer[i+1]
			}
			next = append(next, hashPair(left, right))
		}
		l.layers = append(l.layers, next)
		layer = next
	}

	l.root = layer[0]
}

func hashPair(left, right string) string {
	sum := sha256.Sum256([]byte(left + right))
	return hex.EncodeToString(sum[:])
}

// LedgerWorker periodically rebuilds the ledger from the history table
type LedgerWorker struct {
	ledger *LedgerService
	store  repository.Store
	logger *zap.SugaredLogger
}

// NewLedgerWorker creates a new background ledger worker
func NewLedgerWorker(ledger *LedgerService, store repository.Store, logger *zap.SugaredLogger) *LedgerWorker {
	return &LedgerWorker{ledger: ledger, store: store, logger: logger}
}

// Start rebuilds once, then on every tick until ctx is cancelled
func (w *LedgerWorker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := w.Rebuild(ctx); err != nil {
		w.logger.Errorw("Ledger rebuild failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Ledger worker stopped")
			return
		case <-ticker.C:
			if err := w.Rebuild(ctx); err != nil {
				w.logger.Errorw("Ledger rebuild failed", "error", err)
			}
		}
	}
}

// Rebuild loads every history row oldest first and rebuilds the tree
func (w *LedgerWorker) Rebuild(ctx context.Context) error {
	entries, err := w.store.ListHistory(ctx, repository.HistoryFilter{Chronological: true})
	if err != nil {
		return err
	}
	w.ledger.Build(entries)
	return nil
}
