package notifications

import (
	"context"
	"time"

	"github.com/avelasquez/taskflow-backend/internal/changes"
	"github.com/avelasquez/taskflow-backend/internal/feed"
	"github.com/avelasquez/taskflow-backend/internal/mentions"
	"github.com/avelasquez/taskflow-backend/pkg/config"
	"github.com/avelasquez/taskflow-backend/pkg/db/models"
	pkgerrors "github.com/avelasquez/taskflow-backend/pkg/errors"
	"github.com/avelasquez/taskflow-backend/pkg/logger"
	"github.com/avelasquez/taskflow-backend/pkg/realtime"
	"gorm.io/gorm"
)

const defaultRecentLimit = 50

// Service is the notification core: event intake, grouped reads and the
// seen sweep.
type Service interface {
	Notify(ctx context.Context, event Event) error
	GroupedForUser(ctx context.Context, userID int64) ([]DisplayGroup, error)
	MarkAllSeen(ctx context.Context, userID int64) (int64, error)
	MarkGroupSeen(ctx context.Context, userID, postID int64)
}

// PostReader is the post access the parsers need.
type PostReader interface {
	FindByID(ctx context.Context, id int64) (*models.Post, error)
	WatcherIDs(ctx context.Context, postID int64) ([]int64, error)
}

// ContentStore applies rich-text rewrites inside the caller's transaction.
type ContentStore interface {
	UpdateCommentContent(ctx context.Context, tx *gorm.DB, id int64, html string) error
	UpdatePostDesc(ctx context.Context, tx *gorm.DB, id int64, html string) error
}

// Broadcaster is the fire-and-forget realtime side channel.
type Broadcaster interface {
	PostChanged(ctx context.Context, event realtime.PostEvent)
}

// TxRunner runs fn inside a transaction; satisfied by db.Client.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wire the notification core.
type ServiceParams struct {
	Repo       Repository
	FeedRepo   feed.Repository
	Posts      PostReader
	Extractor  *mentions.Extractor
	Classifier *changes.Classifier
	Cache      *Cache
	Content    ContentStore
	Broadcast  Broadcaster
	Tx         TxRunner
	Logger     *logger.Logger
	Config     config.NotificationsConfig
}

type service struct {
	repo        Repository
	feedRepo    feed.Repository
	posts       PostReader
	extractor   *mentions.Extractor
	classifier  *changes.Classifier
	cache       *Cache
	content     ContentStore
	broadcast   Broadcaster
	tx          TxRunner
	logg        *logger.Logger
	window      time.Duration
	recentLimit int
	now         func() time.Time
}

// NewService validates and wires notification dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if params.FeedRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "feed repository required")
	}
	if params.Posts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "post reader required")
	}
	if params.Extractor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mention extractor required")
	}
	if params.Classifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "change classifier required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}

	window := params.Config.GroupWindow
	if window <= 0 {
		window = DefaultGroupWindow
	}
	recentLimit := params.Config.RecentLimit
	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	cache := params.Cache
	if cache == nil {
		cache = NewCache(params.Config.MaxGroups)
	}

	return &service{
		repo:        params.Repo,
		feedRepo:    params.FeedRepo,
		posts:       params.Posts,
		extractor:   params.Extractor,
		classifier:  params.Classifier,
		cache:       cache,
		content:     params.Content,
		broadcast:   params.Broadcast,
		tx:          params.Tx,
		logg:        params.Logger,
		window:      window,
		recentLimit: recentLimit,
		now:         time.Now,
	}, nil
}

// Notify dispatches on the event's concrete type, persists what the parser
// produced and feeds the cache and broadcast side channels. An event kind
// outside the sealed set is a caller bug and fails loudly.
func (s *service) Notify(ctx context.Context, event Event) error {
	var out parseOutput
	var err error

	switch e := event.(type) {
	case CommentCreated:
		out, err = s.parseComment(ctx, e)
	case PostChanged:
		out, err = s.parsePost(ctx, e)
	case IssueLinked:
		out, err = s.parseLink(ctx, e)
	case QueueUpdated:
		out, err = s.parseQueue(ctx, e)
	case BoardConfigChanged:
		return nil
	default:
		return pkgerrors.Newf(pkgerrors.CodeContract, "unsupported notification source %T", event)
	}
	if err != nil {
		return err
	}
	if out.empty() {
		return nil
	}

	if err := s.persist(ctx, &out); err != nil {
		return err
	}
	s.fanOut(ctx, out)
	return nil
}

// persist writes notification rows, feed rows and mention-flag rewrites in
// one transaction, so a rollback leaves no partial state behind.
func (s *service) persist(ctx context.Context, out *parseOutput) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if len(out.Notifications) > 0 {
			if err := s.repo.WithTx(tx).CreateBatch(ctx, out.Notifications); err != nil {
				return err
			}
		}
		if len(out.FeedRows) > 0 {
			if err := s.feedRepo.WithTx(tx).CreateBatch(ctx, out.FeedRows); err != nil {
				return err
			}
		}
		if s.content != nil && out.CommentUpdate != nil {
			if err := s.content.UpdateCommentContent(ctx, tx, out.CommentUpdate.ID, out.CommentUpdate.HTML); err != nil {
				return err
			}
		}
		if s.content != nil && out.PostUpdate != nil {
			if err := s.content.UpdatePostDesc(ctx, tx, out.PostUpdate.ID, out.PostUpdate.HTML); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist notifications")
	}
	return nil
}

// fanOut updates the cache and fires the broadcast. Both are best-effort;
// the durable rows are already committed.
func (s *service) fanOut(ctx context.Context, out parseOutput) {
	for _, row := range out.Notifications {
		s.cache.Push(row.UserID, row.PostID, row)
	}
	if out.Broadcast != nil && s.broadcast != nil {
		s.broadcast.PostChanged(ctx, *out.Broadcast)
	}
}

// GroupedForUser serves the bell from the cache, priming it from the most
// recent durable rows on a cold read.
func (s *service) GroupedForUser(ctx context.Context, userID int64) ([]DisplayGroup, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	groups := s.cache.Read(userID)
	if len(groups) > 0 {
		return groups, nil
	}

	rows, err := s.repo.RecentForUser(ctx, userID, s.recentLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent notifications")
	}
	if len(rows) == 0 {
		return []DisplayGroup{}, nil
	}

	s.cache.Prime(userID, rows, s.window)
	return s.cache.Read(userID), nil
}

// MarkAllSeen sweeps the user's unseen rows and invalidates their cache;
// the next read re-primes with the seen state.
func (s *service) MarkAllSeen(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	count, err := s.repo.MarkAllSeen(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications seen")
	}
	s.cache.ClearUser(userID)
	return count, nil
}

// MarkGroupSeen records the seen marker on a single cached group.
func (s *service) MarkGroupSeen(ctx context.Context, userID, postID int64) {
	s.cache.MarkSeen(userID, postID)
}
