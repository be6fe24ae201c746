package service

import (
	"context"
	"errors"
	"time"

	"spinloot_backend/internal/leaderboard"
	"spinloot_backend/internal/model"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrTaskNotFound = errors.New("task not found")

	ErrTaskOnlyOnce          = errors.New("this task can only be completed once")
	ErrMaxCompletionsReached = errors.New("maximum completions reached for this task")
	ErrDailyLimitReached     = errors.New("daily limit reached for this task")
	ErrSpinsExhausted        = errors.New("you have already spun 3 times today, come back tomorrow")

	ErrReferralCodeRequired = errors.New("referral code is required")
	ErrInvalidReferralCode  = errors.New("invalid referral code")
)

type Service struct {
	*UserService
	*TaskService
	*SpinnerService
	*ReferralService
}

func NewService(us *UserService, ts *TaskService, ss *SpinnerService, rs *ReferralService) *Service {
	return &Service{
		UserService:     us,
		TaskService:     ts,
		SpinnerService:  ss,
		ReferralService: rs,
	}
}

type UserServiceI interface {
	ConnectWallet(ctx context.Context, req ConnectWalletInput) (*model.User, string, bool, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*model.User, error)
	GetPointsHistory(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.PointsEntry, Pagination, error)
	GetCompletedTasks(ctx context.Context, userID uuid.UUID) ([]*model.TaskCompletion, error)
	GetLeaderboard(ctx context.Context) ([]LeaderboardRow, error)
}

type TaskServiceI interface {
	GetActiveTasks(ctx context.Context) ([]*model.Task, error)
	GetTaskByID(ctx context.Context, taskID string) (*model.Task, error)
	CompleteTask(ctx context.Context, userID uuid.UUID, taskID string) (*model.TaskCompletionResult, error)
	GetTaskProgress(ctx context.Context, userID uuid.UUID) ([]*model.TaskProgress, *model.User, error)
	GetTaskStats(ctx context.Context, userID uuid.UUID) (*model.TaskStats, error)
}

type SpinnerServiceI interface {
	Spin(ctx context.Context, userID uuid.UUID) (*model.SpinResult, error)
	GetStatus(ctx context.Context, userID uuid.UUID) (*model.SpinnerStatus, error)
	GetHistory(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.PointsEntry, Pagination, error)
}

type ReferralServiceI interface {
	Apply(ctx context.Context, newUser *model.User, referralCode string, meta model.ReferralMetadata) error
	GetInfo(ctx context.Context, userID uuid.UUID) (*ReferralInfo, error)
	GetList(ctx context.Context, userID uuid.UUID, status model.ReferralStatus, page, limit int) ([]*model.ReferralListEntry, Pagination, error)
	GetStats(ctx context.Context, userID uuid.UUID) (*model.ReferralStats, error)
	Validate(ctx context.Context, referralCode string) (*model.User, error)
	GetTopReferrers(ctx context.Context, page, limit int) ([]*model.ReferralLeader, Pagination, error)
	GetRewards(ctx context.Context, userID uuid.UUID) (*ReferralRewards, error)
	GetReferredUsers(ctx context.Context, userID uuid.UUID) ([]model.ReferralGrant, int, int, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	SaveUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByWalletAddress(ctx context.Context, walletAddress string) (*model.User, error)
	GetUserByReferralCode(ctx context.Context, referralCode string) (*model.User, error)
	GetTopUsers(ctx context.Context, limit int) ([]*model.User, error)
	GetReferralLeaderboard(ctx context.Context, limit, offset int) ([]*model.ReferralLeader, error)
	CountReferrers(ctx context.Context) (int, error)
}

type TaskRepository interface {
	GetActiveTasks(ctx context.Context) ([]*model.Task, error)
	GetTaskByID(ctx context.Context, taskID string) (*model.Task, error)
}

type ReferralRepository interface {
	CreateReferral(ctx context.Context, ref *model.Referral) error
	UpdateReferralStatus(ctx context.Context, id uuid.UUID, status model.ReferralStatus, at time.Time) error
	GetReferralsByUser(ctx context.Context, referrerID uuid.UUID, status model.ReferralStatus) ([]*model.ReferralListEntry, error)
	GetReferralStatusCounts(ctx context.Context, referrerID uuid.UUID) (map[model.ReferralStatus]int, error)
	CountReferralsSince(ctx context.Context, referrerID uuid.UUID, since time.Time) (int, error)
}

// TokenIssuer produces the opaque signed token returned on wallet
// connection.
type TokenIssuer interface {
	Issue(userID uuid.UUID, walletAddress string, role model.Role) (string, error)
}

// Scoreboard is the best-effort leaderboard mirror; a nil Scoreboard
// disables mirroring and leaderboard reads go straight to the database.
type Scoreboard interface {
	SetScore(ctx context.Context, walletAddress string, totalPoints int)
	Top(ctx context.Context, limit int) ([]leaderboard.Entry, error)
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page        int
	Limit       int
	Total       int
	TotalPages  int
	HasNextPage bool
	HasPrevPage bool
}

// paginate clamps [start, end) to total and fills the page descriptor.
func paginate(total, page, limit int) (int, int, Pagination) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	start := (page - 1) * limit
	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	totalPages := (total + limit - 1) / limit
	return start, end, Pagination{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: page*limit < total,
		HasPrevPage: page > 1,
	}
}
