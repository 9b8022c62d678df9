package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// AddNotification prepends an unread notification to the user's feed
// and returns the stored record.
func (s *Storage) AddNotification(userID int64, nn NewNotification) (Notification, error) {
	notification := Notification{
		ID:         uuid.NewString(),
		Type:       nn.Type,
		Title:      nn.Title,
		Message:    nn.Message,
		CreatedAt:  time.Now(),
		Avatar:     nn.Avatar,
		Username:   nn.Username,
		StoryTitle: nn.StoryTitle,
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktNotifications)
		if err != nil {
			return err
		}
		id := notificationsKey(userID)
		feed := getNotifications(b, id)
		feed = append([]Notification{notification}, feed...)
		return putNotifications(b, id, feed)
	})
	return notification, err
}

// Notifications returns the user's feed, newest first.
func (s *Storage) Notifications(userID int64) ([]Notification, error) {
	var feed []Notification
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktNotifications)
		if b == nil {
			return nil
		}
		feed = getNotifications(b, notificationsKey(userID))
		return nil
	})
	return feed, err
}

// MarkNotificationRead flags one notification as read, ErrNotFound for
// unknown ids.
func (s *Storage) MarkNotificationRead(userID int64, notificationID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktNotifications)
		if err != nil {
			return err
		}
		id := notificationsKey(userID)
		feed := getNotifications(b, id)
		for i := range feed {
			if feed[i].ID == notificationID {
				feed[i].Read = true
				return putNotifications(b, id, feed)
			}
		}
		return ErrNotFound
	})
}

func (s *Storage) MarkAllNotificationsRead(userID int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktNotifications)
		if err != nil {
			return err
		}
		id := notificationsKey(userID)
		feed := getNotifications(b, id)
		for i := range feed {
			feed[i].Read = true
		}
		return putNotifications(b, id, feed)
	})
}

func (s *Storage) UnreadNotificationCount(userID int64) (int, error) {
	feed, err := s.Notifications(userID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range feed {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

var notificationsPrefix = []byte("notifs-")

func notificationsKey(userID int64) []byte {
	return []byte(fmt.Sprintf("%s%d", notificationsPrefix, userID))
}

func getNotifications(b *bolt.Bucket, id []byte) []Notification {
	v := b.Get(id)
	if v == nil {
		return nil
	}
	var feed []Notification
	if err := json.Unmarshal(v, &feed); err != nil {
		log.Printf("corrupt notification feed %q, starting empty: %v", id, err)
		return nil
	}
	return feed
}

func putNotifications(b *bolt.Bucket, id []byte, feed []Notification) error {
	encoded, err := json.Marshal(feed)
	if err != nil {
		return err
	}
	return b.Put(id, encoded)
}
