package inmemorycustody

import (
	"context"
	"fmt"
	"sync"
)

// poolAccount is the custody book's reserved account holding pooled funds.
const poolAccount = "_pool"

// service is an in-memory account-balance book implementing the asset
// transfer boundary. Pull moves funds from an account into the pool, Push
// pays them out. Used in dev mode and tests; a production deployment plugs a
// real settlement backend into the same port.
type service struct {
	lock     sync.Mutex
	balances map[string]map[string]uint64 // assetId -> account -> balance
}

func NewAssetTransferor() *service {
	return &service{balances: make(map[string]map[string]uint64)}
}

// Credit funds an account, making the amount available to Pull.
func (s *service) Credit(assetId, account string, amount uint64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.credit(assetId, account, amount)
}

// BalanceOf reports the account's balance for the given asset.
func (s *service) BalanceOf(assetId, account string) uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.balances[assetId][account]
}

// PoolBalance reports the pooled funds held for the given asset.
func (s *service) PoolBalance(assetId string) uint64 {
	return s.BalanceOf(assetId, poolAccount)
}

func (s *service) Pull(
	_ context.Context, assetId, from string, amount uint64,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.debit(assetId, from, amount); err != nil {
		return err
	}
	s.credit(assetId, poolAccount, amount)
	return nil
}

func (s *service) Push(
	_ context.Context, assetId, to string, amount uint64,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.debit(assetId, poolAccount, amount); err != nil {
		return err
	}
	s.credit(assetId, to, amount)
	return nil
}

func (s *service) credit(assetId, account string, amount uint64) {
	accounts, ok := s.balances[assetId]
	if !ok {
		accounts = make(map[string]uint64)
		s.balances[assetId] = accounts
	}
	accounts[account] += amount
}

func (s *service) debit(assetId, account string, amount uint64) error {
	accounts := s.balances[assetId]
	if accounts[account] < amount {
		return fmt.Errorf(
			"insufficient %s balance for %s: have %d, need %d",
			assetId, account, accounts[account], amount,
		)
	}
	accounts[account] -= amount
	return nil
}
