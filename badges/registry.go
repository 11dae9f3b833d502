package badges

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ruteri/badge-oracle/interfaces"
	"github.com/ruteri/badge-oracle/metrics"
	"github.com/ruteri/badge-oracle/store"
)

// BadgeInfo describes a badge. NumCode and NumIssued only grow.
type BadgeInfo struct {
	ID        uint32               `json:"id"`
	Admin     interfaces.AccountID `json:"admin"`
	Name      string               `json:"name"`
	NumCode   uint32               `json:"num_code"`
	NumIssued uint32               `json:"num_issued"`
}

var totalKey = []byte("badges/total")

func infoKey(id uint32) []byte {
	return fmt.Appendf(nil, "badges/info/%d", id)
}

func issuerPrefix(id uint32) []byte {
	return fmt.Appendf(nil, "badges/issuer/%d/", id)
}

func issuerKey(id uint32, account interfaces.AccountID) []byte {
	return append(issuerPrefix(id), account.String()...)
}

func codeKey(id uint32, slot uint32) []byte {
	return fmt.Appendf(nil, "badges/code/%d/%d", id, slot)
}

func assignKey(id uint32, account interfaces.AccountID) []byte {
	return fmt.Appendf(nil, "badges/assign/%d/%s", id, account.String())
}

// Registry is the badge registry. Callers are passed explicitly; the
// transport is responsible for authenticating them.
type Registry struct {
	mu    sync.Mutex
	store *store.Store
	log   *slog.Logger
}

func NewRegistry(st *store.Store, log *slog.Logger) *Registry {
	return &Registry{store: st, log: log}
}

func getInfo(txn *store.Txn, id uint32) (BadgeInfo, error) {
	raw, err := txn.Get(infoKey(id))
	if errors.Is(err, store.ErrNotFound) {
		return BadgeInfo{}, ErrBadgeNotFound
	}
	if err != nil {
		return BadgeInfo{}, err
	}

	var info BadgeInfo
	if err := rlp.DecodeBytes(raw, &info); err != nil {
		return BadgeInfo{}, fmt.Errorf("corrupted badge %d: %w", id, err)
	}
	return info, nil
}

func putInfo(txn *store.Txn, info BadgeInfo) error {
	raw, err := rlp.EncodeToBytes(info)
	if err != nil {
		return err
	}
	return txn.Put(infoKey(info.ID), raw)
}

func ensureBadgeAdmin(txn *store.Txn, caller interfaces.AccountID, id uint32) (BadgeInfo, error) {
	info, err := getInfo(txn, id)
	if err != nil {
		return BadgeInfo{}, err
	}
	if info.Admin != caller {
		return BadgeInfo{}, ErrBadOrigin
	}
	return info, nil
}

// NewBadge creates a badge administered by caller and returns its id.
func (r *Registry) NewBadge(caller interfaces.AccountID, name string) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var id uint32
	err := r.store.Update(func(txn *store.Txn) error {
		var err error
		id, err = txn.GetUint32(totalKey)
		if err != nil {
			return err
		}
		if err := putInfo(txn, BadgeInfo{ID: id, Admin: caller, Name: name}); err != nil {
			return err
		}
		return txn.PutUint32(totalKey, id+1)
	})
	if err != nil {
		return 0, err
	}

	metrics.BadgesCreated.Inc()
	r.log.Info("badge created", "id", id, "name", name, "admin", caller.String())
	return id, nil
}

// AddIssuer grants issuer the right to issue badge id. Admin only.
func (r *Registry) AddIssuer(caller interfaces.AccountID, id uint32, issuer interfaces.AccountID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.store.Update(func(txn *store.Txn) error {
		if _, err := ensureBadgeAdmin(txn, caller, id); err != nil {
			return err
		}
		return txn.Put(issuerKey(id, issuer), nil)
	})
	if err != nil {
		return err
	}

	r.log.Info("issuer added", "id", id, "issuer", issuer.String())
	return nil
}

// RemoveIssuer revokes issuer's right to issue badge id. Admin only.
func (r *Registry) RemoveIssuer(caller interfaces.AccountID, id uint32, issuer interfaces.AccountID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.store.Update(func(txn *store.Txn) error {
		if _, err := ensureBadgeAdmin(txn, caller, id); err != nil {
			return err
		}
		return txn.Delete(issuerKey(id, issuer))
	})
	if err != nil {
		return err
	}

	r.log.Info("issuer removed", "id", id, "issuer", issuer.String())
	return nil
}

// Issuers lists the accounts granted issuance of badge id, in key order.
func (r *Registry) Issuers(id uint32) ([]interfaces.AccountID, error) {
	var issuers []interfaces.AccountID
	err := r.store.View(func(txn *store.Txn) error {
		if _, err := getInfo(txn, id); err != nil {
			return err
		}
		prefix := issuerPrefix(id)
		keys, err := txn.Keys(prefix)
		if err != nil {
			return err
		}
		issuers = make([]interfaces.AccountID, 0, len(keys))
		for _, key := range keys {
			account, err := interfaces.NewAccountIDFromHex(string(key[len(prefix):]))
			if err != nil {
				return fmt.Errorf("corrupted issuer key %s: %w", string(key), err)
			}
			issuers = append(issuers, account)
		}
		return nil
	})
	return issuers, err
}

// AddCode appends codes to the inventory of badge id in order. Admin only.
func (r *Registry) AddCode(caller interfaces.AccountID, id uint32, codes []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.store.Update(func(txn *store.Txn) error {
		info, err := ensureBadgeAdmin(txn, caller, id)
		if err != nil {
			return err
		}
		if uint64(info.NumCode)+uint64(len(codes)) > uint64(^uint32(0)) {
			return fmt.Errorf("%w: too many codes", interfaces.ErrInvalidParameter)
		}
		for i, code := range codes {
			if err := txn.Put(codeKey(id, info.NumCode+uint32(i)), []byte(code)); err != nil {
				return err
			}
		}
		info.NumCode += uint32(len(codes))
		return putInfo(txn, info)
	})
	if err != nil {
		return err
	}

	metrics.CodesAdded.Add(float64(len(codes)))
	r.log.Info("codes added", "id", id, "count", len(codes))
	return nil
}

// Issue binds dest to the next unissued code of badge id. The caller must be
// the badge admin or one of its issuers.
func (r *Registry) Issue(caller interfaces.AccountID, id uint32, dest interfaces.AccountID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var slot uint32
	err := r.store.Update(func(txn *store.Txn) error {
		info, err := getInfo(txn, id)
		if err != nil {
			return err
		}
		if info.Admin != caller {
			isIssuer, err := txn.Has(issuerKey(id, caller))
			if err != nil {
				return err
			}
			if !isIssuer {
				return ErrNotAnIssuer
			}
		}
		if info.NumIssued >= info.NumCode {
			return ErrRunOutOfCode
		}
		assigned, err := txn.Has(assignKey(id, dest))
		if err != nil {
			return err
		}
		if assigned {
			return ErrDuplicated
		}

		slot = info.NumIssued
		if err := txn.PutUint32(assignKey(id, dest), slot); err != nil {
			return err
		}
		info.NumIssued++
		return putInfo(txn, info)
	})
	metrics.IssueResults.WithLabelValues(metrics.Result(interfaces.CodeOf(err), err)).Inc()
	if err != nil {
		r.log.Debug("issue rejected", "id", id, "dest", dest.String(), "err", err)
		return err
	}

	r.log.Info("badge issued", "id", id, "dest", dest.String(), "slot", slot)
	return nil
}

// Get returns the code assigned to caller for badge id.
func (r *Registry) Get(caller interfaces.AccountID, id uint32) (string, error) {
	var code string
	err := r.store.View(func(txn *store.Txn) error {
		has, err := txn.Has(assignKey(id, caller))
		if err != nil {
			return err
		}
		if !has {
			return ErrNotFound
		}
		slot, err := txn.GetUint32(assignKey(id, caller))
		if err != nil {
			return err
		}
		raw, err := txn.Get(codeKey(id, slot))
		if errors.Is(err, store.ErrNotFound) {
			panic(fmt.Sprintf("badge %d: assignment of %s points to missing code slot %d", id, caller.String(), slot))
		}
		if err != nil {
			return err
		}
		code = string(raw)
		return nil
	})
	return code, err
}

// TotalBadges returns the number of badges created so far.
func (r *Registry) TotalBadges() (uint32, error) {
	var total uint32
	err := r.store.View(func(txn *store.Txn) error {
		var err error
		total, err = txn.GetUint32(totalKey)
		return err
	})
	return total, err
}

func (r *Registry) BadgeInfo(id uint32) (BadgeInfo, error) {
	var info BadgeInfo
	err := r.store.View(func(txn *store.Txn) error {
		var err error
		info, err = getInfo(txn, id)
		return err
	})
	return info, err
}

// IsBadgeIssuer reports whether account was granted issuance of badge id.
// The admin is not implicitly listed.
func (r *Registry) IsBadgeIssuer(id uint32, account interfaces.AccountID) (bool, error) {
	var isIssuer bool
	err := r.store.View(func(txn *store.Txn) error {
		var err error
		isIssuer, err = txn.Has(issuerKey(id, account))
		return err
	})
	return isIssuer, err
}

// Issuer returns an Issuable that issues as caller.
func (r *Registry) Issuer(caller interfaces.AccountID) interfaces.Issuable {
	return &localIssuer{registry: r, caller: caller}
}

type localIssuer struct {
	registry *Registry
	caller   interfaces.AccountID
}

func (i *localIssuer) Issue(_ context.Context, badgeID uint32, dest interfaces.AccountID) error {
	return i.registry.Issue(i.caller, badgeID, dest)
}

// FormatID formats a badge id for URLs.
func FormatID(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseID parses a decimal badge id.
func ParseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid badge id %q", interfaces.ErrInvalidParameter, s)
	}
	return uint32(id), nil
}
