package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/anonto42/follow-graph/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRow is the relational shape of a user; the follower sets live in models.Follow rows,
// whose composite key rejects duplicate follows
type userRow struct {
	ID             string  `gorm:"primaryKey"`
	Username       string  `gorm:"not null"`
	LastFollowDate *string `gorm:"type:date"`
	FollowCount    int64   `gorm:"not null;default:0"`
}

func (userRow) TableName() string { return "users" }

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// AutoMigrate creates the users and follows tables
func (r *PostgresUserRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&userRow{}, &models.Follow{})
}

// EnsureUser inserts the user row unless it already exists
func (r *PostgresUserRepository) EnsureUser(ctx context.Context, id string) error {
	row := userRow{ID: id, Username: models.UsernameFor(id)}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("ensure user %s: %w", id, err)
	}
	return nil
}

// GetUserByID retrieves a user and its edges from PostgreSQL
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	db := r.db.WithContext(ctx)

	var row userRow
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var edges []models.Follow
	if err := db.Where("follower_id = ? OR followee_id = ?", id, id).Order("created_at").Find(&edges).Error; err != nil {
		return nil, err
	}
	users := assemble([]userRow{row}, edges)
	return &users[0], nil
}

// GetUsersByIDs retrieves the users whose IDs are in ids
func (r *PostgresUserRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	db := r.db.WithContext(ctx)

	var rows []userRow
	if err := db.Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	var edges []models.Follow
	if err := db.Where("follower_id IN ? OR followee_id IN ?", ids, ids).Order("created_at").Find(&edges).Error; err != nil {
		return nil, err
	}
	return assemble(rows, edges), nil
}

// GetUsers retrieves all users from PostgreSQL
func (r *PostgresUserRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	db := r.db.WithContext(ctx)

	var rows []userRow
	if err := db.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	var edges []models.Follow
	if err := db.Order("created_at").Find(&edges).Error; err != nil {
		return nil, err
	}
	return assemble(rows, edges), nil
}

// AddFollow inserts the edge and updates the followee counter in one transaction
func (r *PostgresUserRepository) AddFollow(ctx context.Context, followerID, followeeID, day string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&userRow{}).Where("id IN ?", []string{followerID, followeeID}).Count(&n).Error; err != nil {
			return err
		}
		if n < distinct(followerID, followeeID) {
			return ErrUserNotFound
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID})
		if res.Error != nil {
			return fmt.Errorf("insert follow: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyFollowing
		}

		// SET expressions read the pre-update row, so the date test sees the old date
		return tx.Model(&userRow{}).Where("id = ?", followeeID).Updates(map[string]interface{}{
			"follow_count":     gorm.Expr("CASE WHEN last_follow_date = ? THEN follow_count + 1 ELSE 1 END", day),
			"last_follow_date": day,
		}).Error
	})
}

// RemoveFollow deletes the edge and decrements the followee counter in one transaction
func (r *PostgresUserRepository) RemoveFollow(ctx context.Context, followerID, followeeID string, floorAtZero bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).Delete(&models.Follow{}).Error
		if err != nil {
			return fmt.Errorf("delete follow: %w", err)
		}

		expr := gorm.Expr("follow_count - 1")
		if floorAtZero {
			expr = gorm.Expr("GREATEST(follow_count - 1, 0)")
		}
		res := tx.Model(&userRow{}).Where("id = ?", followeeID).Update("follow_count", expr)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// Ping verifies the underlying connection
func (r *PostgresUserRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// assemble joins user rows with the edges touching them
func assemble(rows []userRow, edges []models.Follow) []models.User {
	index := make(map[string]int, len(rows))
	users := make([]models.User, len(rows))
	for i, row := range rows {
		users[i] = models.User{
			ID:             row.ID,
			Username:       row.Username,
			Followers:      []string{},
			Following:      []string{},
			LastFollowDate: normalizeDate(row.LastFollowDate),
			FollowCount:    row.FollowCount,
		}
		index[row.ID] = i
	}
	for _, e := range edges {
		if i, ok := index[e.FolloweeID]; ok {
			users[i].Followers = append(users[i].Followers, e.FollowerID)
		}
		if i, ok := index[e.FollowerID]; ok {
			users[i].Following = append(users[i].Following, e.FolloweeID)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// normalizeDate trims the timestamp some drivers return for DATE columns
func normalizeDate(d *string) *string {
	if d == nil || len(*d) <= len(models.DateLayout) {
		return d
	}
	s := (*d)[:len(models.DateLayout)]
	return &s
}

func distinct(a, b string) int64 {
	if a == b {
		return 1
	}
	return 2
}
