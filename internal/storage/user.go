package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-set/v3"
	"gorm.io/gorm"

	"authd/internal/gormw"
	"authd/internal/models"
)

// ErrOrderNotAllowed is returned by List for order fields outside the
// allowed set.
var ErrOrderNotAllowed = errors.New("order field not allowed")

var allowedOrderFields = set.From([]string{"id", "username", "created_at"})

// ListQuery selects and orders a page of users. Optional filters are
// pointers: nil means absent, a pointer to the zero value is still a
// filter. Offset 0 is a real offset, not "no offset".
type ListQuery struct {
	Limit   int // 10 when <= 0
	Offset  int
	Role    *string
	OrderBy string // comma separated, "-" prefix for descending
}

func (q *ListQuery) orderClause() (string, error) {
	if q.OrderBy == "" {
		return "", nil
	}

	var clauses []string
	for _, field := range strings.Split(q.OrderBy, ",") {
		field = strings.TrimSpace(field)
		desc := strings.HasPrefix(field, "-")
		if desc {
			field = field[1:]
		}

		if !allowedOrderFields.Contains(field) {
			return "", fmt.Errorf("%w: %q", ErrOrderNotAllowed, field)
		}

		if desc {
			field += " DESC"
		}
		clauses = append(clauses, field)
	}

	return strings.Join(clauses, ", "), nil
}

type UserStore struct {
	db *gormw.DB
}

func NewUserStore(db *gormw.DB) *UserStore {
	return &UserStore{db: db}
}

// FindByUsername returns (nil, nil) when no such user exists.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := s.db.WithContext(ctx).Where("username = ?", username).First(user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID returns (nil, nil) when no such user exists.
func (s *UserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	user := &models.User{}
	err := s.db.WithContext(ctx).Where("id = ?", id).First(user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *UserStore) Save(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *UserStore) List(ctx context.Context, q ListQuery) ([]models.User, error) {
	order, err := q.orderClause()
	if err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	tx := s.db.WithContext(ctx).Model(&models.User{})
	if q.Role != nil {
		tx = tx.Where("role = ?", *q.Role)
	}
	if order != "" {
		tx = tx.Order(order)
	}

	var users []models.User
	if err := tx.Offset(q.Offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
