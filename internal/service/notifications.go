package service

import (
	"log"
	"strconv"

	"github.com/valyala/fasttemplate"

	"github.com/pechorka/storyvault/internal/storage"
)

var (
	likeMsg        = fasttemplate.New(`"{{story}}" received a new like`, "{{", "}}")
	followMsg      = fasttemplate.New("You are now following {{author}}", "{{", "}}")
	storyUpdateMsg = fasttemplate.New(`Chapter {{chapter}} of "{{story}}" is now available`, "{{", "}}")
	bonusMsg       = fasttemplate.New("Welcome aboard! {{amount}} coins were added to your wallet", "{{", "}}")
)

func (s *Service) Notifications(userID int64) ([]storage.Notification, error) {
	return s.store.Notifications(userID)
}

func (s *Service) MarkNotificationRead(userID int64, notificationID string) error {
	return s.store.MarkNotificationRead(userID, notificationID)
}

func (s *Service) MarkAllNotificationsRead(userID int64) error {
	return s.store.MarkAllNotificationsRead(userID)
}

func (s *Service) UnreadNotificationCount(userID int64) (int, error) {
	return s.store.UnreadNotificationCount(userID)
}

// The notify helpers are fire-and-forget: a failed notification never
// fails the operation that triggered it.

func (s *Service) notifyLike(userID int64, story storage.Story) {
	s.addNotification(userID, storage.NewNotification{
		Type:       storage.NotificationLike,
		Title:      "Your story is getting noticed",
		Message:    likeMsg.ExecuteString(map[string]interface{}{"story": story.Title}),
		StoryTitle: story.Title,
	})
}

func (s *Service) notifyFollow(userID int64, author storage.Author) {
	s.addNotification(userID, storage.NewNotification{
		Type:     storage.NotificationFollow,
		Title:    "Following " + author.Name,
		Message:  followMsg.ExecuteString(map[string]interface{}{"author": author.Name}),
		Avatar:   author.Avatar,
		Username: author.Name,
	})
}

func (s *Service) notifyStoryUpdate(userID int64, story storage.Story, chapter int64) {
	s.addNotification(userID, storage.NewNotification{
		Type:  storage.NotificationStoryUpdate,
		Title: "Story update",
		Message: storyUpdateMsg.ExecuteString(map[string]interface{}{
			"story":   story.Title,
			"chapter": strconv.FormatInt(chapter, 10),
		}),
		StoryTitle: story.Title,
	})
}

func (s *Service) notifyWelcomeBonus(userID int64, amount int64) {
	s.addNotification(userID, storage.NewNotification{
		Type:    storage.NotificationAchievement,
		Title:   "Welcome bonus",
		Message: bonusMsg.ExecuteString(map[string]interface{}{"amount": strconv.FormatInt(amount, 10)}),
	})
}

func (s *Service) addNotification(userID int64, nn storage.NewNotification) {
	if _, err := s.store.AddNotification(userID, nn); err != nil {
		log.Printf("failed to add %s notification: %v", nn.Type, err)
	}
}
