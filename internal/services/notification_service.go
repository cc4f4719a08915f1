package services

import (
	"fmt"

	"github.com/containrrr/shoutrrr"

	"github.com/legaltrack-ph/legaltrack/backend/internal/logger"
	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
	"github.com/legaltrack-ph/legaltrack/backend/internal/util"
)

// NotificationService pushes pipeline events to the configured shoutrrr
// URLs. With no URLs configured every send is a no-op, so callers never
// need to guard.
type NotificationService struct {
	urls []string
}

func NewNotificationService(urls []string) *NotificationService {
	return &NotificationService{urls: urls}
}

func (s *NotificationService) send(message string) {
	if s == nil || len(s.urls) == 0 {
		return
	}
	for _, url := range s.urls {
		go func(url string) {
			if err := shoutrrr.Send(url, message); err != nil {
				logger.Log().WithError(err).Warn("Notification send failed")
			}
		}(url)
	}
}

// CaseReturned announces a case sent back to its LGU for correction.
func (s *NotificationService) CaseReturned(c *models.Case, reason string) {
	s.send(fmt.Sprintf("Case %s returned for correction: %s",
		util.SanitizeForLog(c.Key()), util.SanitizeForLog(reason)))
}

// CaseReleased announces a completed case ready for pickup.
func (s *NotificationService) CaseReleased(c *models.Case) {
	s.send(fmt.Sprintf("Case %s has been released", util.SanitizeForLog(c.Key())))
}
