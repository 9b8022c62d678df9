package storage

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/exp/slices"
)

// Coins returns the user's coin balance, 0 if no wallet exists yet.
func (s *Storage) Coins(userID int64) (int64, error) {
	var coins int64
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktWallet)
		if b == nil {
			return nil
		}
		coins = getCoins(b, coinsKey(userID))
		return nil
	})
	return coins, err
}

// AddCoins credits (or debits) the wallet and returns the new balance.
// The balance can not go below zero.
func (s *Storage) AddCoins(userID int64, delta int64) (int64, error) {
	var coins int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktWallet)
		if err != nil {
			return err
		}
		id := coinsKey(userID)
		coins = getCoins(b, id) + delta
		if coins < 0 {
			return ErrInsufficientCoins
		}
		return putCoins(b, id, coins)
	})
	return coins, err
}

// UnlockStory spends coins to permanently unlock a paid story. The
// story is resolved from the user's authored list first, falling back
// to the external record if one is supplied. The balance deduction,
// the unlock-set insert and the IsUnlocked mirror on an owned story all
// happen in one transaction: either every effect lands or none does.
func (s *Storage) UnlockStory(userID int64, storyID string, external *Story) (UnlockResult, error) {
	var res UnlockResult
	err := s.db.Update(func(tx *bolt.Tx) error {
		wb, err := tx.CreateBucketIfNotExists(bktWallet)
		if err != nil {
			return err
		}
		walletID := coinsKey(userID)
		res.Balance = getCoins(wb, walletID)

		sb, err := tx.CreateBucketIfNotExists(bktUserStories)
		if err != nil {
			return err
		}
		indexID := storiesKey(userID)
		idx := getIndex(sb, indexID)
		owned := slices.IndexFunc(idx.Stories, func(st Story) bool { return st.ID == storyID })

		target := external
		if owned != -1 {
			target = &idx.Stories[owned]
		}
		if target == nil || !target.IsPaid || target.Price <= 0 {
			return nil
		}
		res.Price = target.Price
		if res.Balance < target.Price {
			return nil
		}

		ub, err := tx.CreateBucketIfNotExists(bktUnlocks)
		if err != nil {
			return err
		}
		if err = ub.Put(userStoryKey(userID, storyID), []byte{1}); err != nil {
			return err
		}
		if owned != -1 {
			idx.Stories[owned].IsUnlocked = true
			if err = putIndex(sb, indexID, idx); err != nil {
				return err
			}
		}
		res.Balance -= target.Price
		res.Unlocked = true
		return putCoins(wb, walletID, res.Balance)
	})
	return res, err
}

// IsUnlocked reports whether the user may read the story: it is in the
// unlock set, or the authored record is free or already flagged
// unlocked. Stories unknown to the ledger are not unlocked; free
// external stories are the caller's concern.
func (s *Storage) IsUnlocked(userID int64, storyID string) (bool, error) {
	var unlocked bool
	err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bktUnlocks); b != nil {
			if b.Get(userStoryKey(userID, storyID)) != nil {
				unlocked = true
				return nil
			}
		}
		b := tx.Bucket(bktUserStories)
		if b == nil {
			return nil
		}
		idx := getIndex(b, storiesKey(userID))
		i := slices.IndexFunc(idx.Stories, func(st Story) bool { return st.ID == storyID })
		if i == -1 {
			return nil
		}
		unlocked = !idx.Stories[i].IsPaid || idx.Stories[i].IsUnlocked
		return nil
	})
	return unlocked, err
}

var coinsPrefix = []byte("coins-")

func coinsKey(userID int64) []byte {
	return []byte(fmt.Sprintf("%s%d", coinsPrefix, userID))
}

func getCoins(b *bolt.Bucket, id []byte) int64 {
	v := b.Get(id)
	if v == nil {
		return 0
	}
	return bytesToInt64(v)
}

func putCoins(b *bolt.Bucket, id []byte, coins int64) error {
	return b.Put(id, int64ToBytes(coins))
}
