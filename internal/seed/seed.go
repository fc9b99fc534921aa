// Package seed provides database seeding utilities for development and demos:
// a fake community (members, posts, likes, comments) and the workout catalog.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"fitstream/internal/models"
	"fitstream/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options configures the seeder.
type Options struct {
	NumUsers int
	NumPosts int
	// MaxLikesPerPost and MaxCommentsPerPost bound the random engagement.
	MaxLikesPerPost    int
	MaxCommentsPerPost int
	// MaxDays spreads post dates over the last MaxDays days.
	MaxDays int
	// RandSeed makes runs reproducible; zero picks a random seed.
	RandSeed int64
	// FastHash uses the minimum bcrypt cost for the demo password.
	FastHash bool
}

// Result summarises one seeding run.
type Result struct {
	Users    []*models.User
	Posts    []*models.Post
	Likes    int
	Comments int
}

// Seeder writes demo data.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 20
	}
	if opts.NumPosts < 0 {
		opts.NumPosts = 0
	}
	if opts.MaxLikesPerPost <= 0 {
		opts.MaxLikesPerPost = opts.NumUsers
	}
	if opts.MaxCommentsPerPost <= 0 {
		opts.MaxCommentsPerPost = 4
	}

	factory, err := NewFactory(opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, opts: opts, factory: factory}, nil
}

// ClearAll deletes members and everything they created, children first. Videos are kept.
func (s *Seeder) ClearAll(ctx context.Context) error {
	observability.Logger.InfoContext(ctx, "clearing existing data")
	tables := []any{
		&models.Comment{}, &models.Reaction{}, &models.Post{},
		&models.Favorite{}, &models.UserProgress{}, &models.Profile{}, &models.User{},
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t).Error; err != nil {
				return fmt.Errorf("clear %T: %w", t, err)
			}
		}
		return nil
	})
}

// SeedCommunity creates members with profiles, their posts and random likes and comments.
func (s *Seeder) SeedCommunity(ctx context.Context) (*Result, error) {
	res := &Result{}
	db := s.db.WithContext(ctx)

	for i := 0; i < s.opts.NumUsers; i++ {
		user := s.factory.BuildUser()
		if err := db.Create(user).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		profile := user.Profile()
		if err := db.Create(&profile).Error; err != nil {
			return nil, fmt.Errorf("create profile: %w", err)
		}
		res.Users = append(res.Users, user)
	}
	observability.Logger.InfoContext(ctx, "users created", slog.Int("count", len(res.Users)))

	if len(res.Users) == 0 || s.opts.NumPosts == 0 {
		return res, nil
	}

	for i := 0; i < s.opts.NumPosts; i++ {
		author := res.Users[s.factory.intn(len(res.Users))]
		res.Posts = append(res.Posts, s.factory.BuildPost(author, s.factory.Kind()))
	}
	if err := db.CreateInBatches(res.Posts, 100).Error; err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	observability.Logger.InfoContext(ctx, "posts created", slog.Int("count", len(res.Posts)))

	for _, post := range res.Posts {
		likes, err := s.seedLikes(db, post, res.Users)
		if err != nil {
			return nil, err
		}
		res.Likes += likes

		comments, err := s.seedComments(db, post, res.Users)
		if err != nil {
			return nil, err
		}
		res.Comments += comments
	}
	observability.Logger.InfoContext(ctx, "engagement created",
		slog.Int("likes", res.Likes),
		slog.Int("comments", res.Comments),
	)

	return res, nil
}

// seedLikes adds likes from distinct members, so the count equals the inserted rows.
func (s *Seeder) seedLikes(db *gorm.DB, post *models.Post, users []*models.User) (int, error) {
	n := s.factory.intn(min(s.opts.MaxLikesPerPost, len(users)) + 1)
	if n == 0 {
		return 0, nil
	}
	order := make([]int, len(users))
	for i := range order {
		order[i] = i
	}
	s.factory.faker.ShuffleInts(order)

	likes := make([]models.Reaction, 0, n)
	for _, idx := range order[:n] {
		likes = append(likes, models.Reaction{PostID: post.ID, UserID: users[idx].ID})
	}
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&likes).Error
	if err != nil {
		return 0, fmt.Errorf("create likes: %w", err)
	}
	return n, nil
}

func (s *Seeder) seedComments(db *gorm.DB, post *models.Post, users []*models.User) (int, error) {
	n := s.factory.intn(s.opts.MaxCommentsPerPost + 1)
	if n == 0 {
		return 0, nil
	}
	comments := make([]*models.Comment, 0, n)
	for i := 0; i < n; i++ {
		author := users[s.factory.intn(len(users))]
		comments = append(comments, s.factory.BuildComment(post, author))
	}
	if err := db.Create(&comments).Error; err != nil {
		return 0, fmt.Errorf("create comments: %w", err)
	}
	return n, nil
}
