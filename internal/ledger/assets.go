package ledger

import (
	"context"

	"mizan/internal/core"
	"mizan/internal/store"
)

type NewAsset struct {
	Name  string
	Type  core.AssetType
	Value core.Money
	Note  string
}

// AddAsset records a net-worth item. Assets never touch the balance.
func (s *Session) AddAsset(ctx context.Context, in NewAsset) (core.Asset, error) {
	s.mu.Lock()
	defer s.unlock(ctx)

	a := core.Asset{
		ID:        s.newID(),
		UserID:    s.uid,
		Name:      in.Name,
		Type:      in.Type,
		Value:     in.Value,
		Note:      in.Note,
		CreatedAt: store.NormalizeTime(s.now()),
	}
	if err := a.Validate(); err != nil {
		return core.Asset{}, err
	}
	if err := s.store.CreateAsset(ctx, a); err != nil {
		return core.Asset{}, classify("add asset", err)
	}
	s.assets = append(s.assets, a)
	s.publish(ctx, EventAssetCreated, a.ID, a.Value.Cents)
	return a, nil
}

// UpdateAsset replaces the asset's value.
func (s *Session) UpdateAsset(ctx context.Context, id string, value core.Money) (core.Asset, error) {
	if value.Cents < 0 {
		return core.Asset{}, core.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.unlock(ctx)

	if err := s.store.UpdateAssetValue(ctx, s.uid, id, value); err != nil {
		return core.Asset{}, classify("update asset", err)
	}
	var updated core.Asset
	for i := range s.assets {
		if s.assets[i].ID == id {
			s.assets[i].Value = value
			updated = s.assets[i]
		}
	}
	if updated.ID == "" {
		// Created elsewhere since the snapshot was loaded.
		a, err := s.store.GetAsset(ctx, s.uid, id)
		if err != nil {
			return core.Asset{}, classify("update asset", err)
		}
		s.assets = append(s.assets, a)
		updated = a
	}
	s.publish(ctx, EventAssetUpdated, id, value.Cents)
	return updated, nil
}

func (s *Session) DeleteAsset(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.unlock(ctx)

	if err := s.store.DeleteAsset(ctx, s.uid, id); err != nil {
		return classify("delete asset", err)
	}
	for i, a := range s.assets {
		if a.ID == id {
			s.assets = append(s.assets[:i], s.assets[i+1:]...)
			break
		}
	}
	s.publish(ctx, EventAssetDeleted, id, 0)
	return nil
}
