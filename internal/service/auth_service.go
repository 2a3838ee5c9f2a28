package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	mqcontracts "habitd/contracts/mq"
	"habitd/internal/apperr"
	"habitd/internal/model"
	"habitd/internal/util"
	"habitd/pkg/outbox"
)

// TxBeginner is satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// AuthUserStore is satisfied by *repository.UserRepository.
type AuthUserStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, u *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id int) (*model.User, error)
	Activate(ctx context.Context, id int) error
}

type AuthService struct {
	db        TxBeginner
	users     AuthUserStore
	outbox    outbox.EventInserter
	jwtSecret string
	baseURL   string
	logger    *zap.Logger
}

func NewAuthService(
	db TxBeginner,
	users AuthUserStore,
	outboxRepo outbox.EventInserter,
	jwtSecret string,
	baseURL string,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		db:        db,
		users:     users,
		outbox:    outboxRepo,
		jwtSecret: jwtSecret,
		baseURL:   baseURL,
		logger:    logger,
	}
}

// Register creates an inactive user and queues the verification email in
// the same transaction, then issues a token pair. The email goes through
// the outbox so the HTTP response never waits on mail delivery.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*model.User, util.TokenPair, error) {
	if len(password) < 8 {
		return nil, util.TokenPair{}, apperr.Validation("password must be at least 8 characters")
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, util.TokenPair{}, err
	}

	u := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     false,
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, util.TokenPair{}, err
	}
	defer tx.Rollback(ctx)

	if err := s.users.CreateTx(ctx, tx, u); err != nil {
		return nil, util.TokenPair{}, err
	}

	verifyToken, err := util.GenerateVerificationToken(u.ID, s.jwtSecret)
	if err != nil {
		return nil, util.TokenPair{}, err
	}

	payload := mqcontracts.VerifyEmailPayload{
		UserID:    u.ID,
		Email:     u.Email,
		Username:  u.Username,
		VerifyURL: fmt.Sprintf("%s/auth/verify/%d/%s", s.baseURL, u.ID, verifyToken),
	}
	userID64 := int64(u.ID)
	if err := outbox.InsertEventInTx(ctx, tx, s.outbox, "user", &userID64, mqcontracts.RoutingKeyVerifyEmail, payload); err != nil {
		return nil, util.TokenPair{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, util.TokenPair{}, err
	}

	pair, err := util.GenerateTokenPair(u.ID, s.jwtSecret)
	if err != nil {
		return nil, util.TokenPair{}, err
	}

	s.logger.Info("User registered",
		zap.Int("user_id", u.ID),
		zap.String("username", u.Username),
	)
	return u, pair, nil
}

// Login checks credentials and returns a token pair. Inactive accounts
// are rejected the same way as bad credentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (util.TokenPair, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return util.TokenPair{}, apperr.Unauthorized("invalid username or password")
	}

	if !util.CheckPassword(password, u.PasswordHash) {
		return util.TokenPair{}, apperr.Unauthorized("invalid username or password")
	}

	if !u.IsActive {
		return util.TokenPair{}, apperr.Unauthorized("account is not activated")
	}

	return util.GenerateTokenPair(u.ID, s.jwtSecret)
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (util.TokenPair, error) {
	userID, err := util.ParseToken(refreshToken, s.jwtSecret, util.TokenTypeRefresh)
	if err != nil {
		return util.TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil || !u.IsActive {
		return util.TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}

	return util.GenerateTokenPair(u.ID, s.jwtSecret)
}

// Verify activates the account named in a verification link. Every
// failure mode collapses into one opaque error so the response does not
// reveal which part of the link was wrong.
func (s *AuthService) Verify(ctx context.Context, userID int, token string) error {
	tokenUserID, err := util.ParseToken(token, s.jwtSecret, util.TokenTypeVerify)
	if err != nil || tokenUserID != userID {
		return apperr.Validation("invalid verification link")
	}

	if err := s.users.Activate(ctx, userID); err != nil {
		return apperr.Validation("invalid verification link")
	}

	s.logger.Info("User activated", zap.Int("user_id", userID))
	return nil
}
