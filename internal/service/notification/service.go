package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/khadra/initiative-api/internal/email"
	"github.com/khadra/initiative-api/internal/model"
	"github.com/khadra/initiative-api/internal/repository"
	"github.com/khadra/initiative-api/pkg/event"
	"github.com/khadra/initiative-api/pkg/logger"
	"github.com/khadra/initiative-api/pkg/messaging"
	"github.com/khadra/initiative-api/pkg/metrics"
)

const (
	brokerChannel = "notifications"

	managerCacheKey = "manager_ids"
	managerCacheTTL = 5 * time.Minute
)

// Service turns lifecycle events into notification records. It implements
// event.Emitter: recipient resolution happens here so the lifecycle service
// never needs to know who is listening. The record write is the part that
// matters; broker publish and email fan-out are best-effort.
type Service struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	initiativeRepo   repository.InitiativeRepository
	broker           messaging.Broker
	emailSvc         email.Service
	managerCache     *cache.Cache
	logger           *logger.Logger
	metrics          *metrics.Metrics
}

func NewService(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	initiativeRepo repository.InitiativeRepository,
	broker messaging.Broker,
	emailSvc email.Service,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		initiativeRepo:   initiativeRepo,
		broker:           broker,
		emailSvc:         emailSvc,
		managerCache:     cache.New(managerCacheTTL, 10*time.Minute),
		logger:           logger,
		metrics:          metrics,
	}
}

var _ event.Emitter = (*Service)(nil)

// Emit resolves recipients for the event, writes the notification, then
// publishes to the broker. An empty recipient set is valid and still
// produces a record.
func (s *Service) Emit(ctx context.Context, typ event.Type, initiative *model.Initiative, reason string) error {
	recipients, err := s.resolveRecipients(ctx, typ, initiative)
	if err != nil {
		return fmt.Errorf("failed to resolve recipients: %w", err)
	}

	message := messages[typ]
	if reason != "" {
		if detail, ok := reasonMessages[reason]; ok {
			message = message + " " + detail
		}
	}

	notification := &model.Notification{
		Type:         model.NotificationType(typ),
		Message:      message,
		InitiativeID: &initiative.ID,
		Recipients:   recipients,
	}
	if reason != "" {
		notification.Reason = &reason
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	s.metrics.NotificationsCreated.WithLabelValues(string(typ)).Inc()

	evt := event.Event{
		Type:         typ,
		InitiativeID: initiative.ID,
		Recipients:   recipients,
		Reason:       reason,
		CreatedAt:    notification.CreatedAt,
	}
	if err := s.broker.Publish(ctx, brokerChannel, evt); err != nil {
		s.metrics.BrokerPublishErrors.Inc()
		s.logger.Error(err, "failed to publish notification event",
			"type", string(typ),
			"initiative_id", initiative.ID.String())
	}

	go s.sendEmails(context.Background(), notification)

	return nil
}

func (s *Service) resolveRecipients(ctx context.Context, typ event.Type, initiative *model.Initiative) ([]uuid.UUID, error) {
	switch typ {
	case event.TypeInitiativeCreated:
		managers, err := s.managerIDs(ctx)
		if err != nil {
			return nil, err
		}
		recipients := make([]uuid.UUID, 0, len(managers))
		for _, id := range managers {
			if id != initiative.CreatedBy {
				recipients = append(recipients, id)
			}
		}
		return recipients, nil

	case event.TypeInitiativeApproved, event.TypeInitiativeReviewFailed:
		return []uuid.UUID{initiative.CreatedBy}, nil

	case event.TypeInitiativeStarted, event.TypeInitiativeCompleted, event.TypeInitiativeCancelled:
		volunteers, err := s.initiativeRepo.ListVolunteerIDs(ctx, initiative.ID)
		if err != nil {
			return nil, err
		}
		recipients := []uuid.UUID{initiative.CreatedBy}
		for _, id := range volunteers {
			if id != initiative.CreatedBy {
				recipients = append(recipients, id)
			}
		}
		return recipients, nil
	}

	return nil, nil
}

func (s *Service) managerIDs(ctx context.Context) ([]uuid.UUID, error) {
	if cached, ok := s.managerCache.Get(managerCacheKey); ok {
		return cached.([]uuid.UUID), nil
	}

	ids, err := s.userRepo.ListManagerIDs(ctx)
	if err != nil {
		return nil, err
	}

	s.managerCache.Set(managerCacheKey, ids, cache.DefaultExpiration)
	return ids, nil
}

func (s *Service) sendEmails(ctx context.Context, notification *model.Notification) {
	for _, userID := range notification.Recipients {
		user, err := s.userRepo.Get(ctx, userID)
		if err != nil {
			s.logger.Error(err, "failed to load notification recipient", "user_id", userID.String())
			continue
		}
		if user.Email == "" {
			continue
		}
		if err := s.emailSvc.SendCustom(ctx, user.Email, "Khadra update", notification.Message); err != nil {
			s.logger.Error(err, "failed to email notification", "user_id", userID.String())
		}
	}
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, p model.Pagination) ([]*model.UserNotification, error) {
	notifications, err := s.notificationRepo.ListForUser(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *Service) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	return s.notificationRepo.MarkRead(ctx, notificationID, userID)
}
