// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"prismic/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

var imageModels = []string{
	"stabilityai/stable-diffusion-xl-base-1.0",
	"stabilityai/stable-diffusion-2-1",
	"runwayml/stable-diffusion-v1-5",
}

var promptSubjects = []string{
	"a neon-lit city street after rain",
	"a fox made of autumn leaves",
	"an astronaut tending a rooftop garden",
	"a lighthouse inside a glass bottle",
	"a whale drifting over a wheat field",
	"a clockwork hummingbird",
	"a cathedral grown from coral",
	"a train crossing a sea of clouds",
}

var promptStyles = []string{
	"oil painting", "watercolor", "isometric pixel art", "studio photography",
	"ukiyo-e print", "low-poly render", "charcoal sketch", "art nouveau poster",
}

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)
	gofakeit.Seed(time.Now().UnixNano())

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	users, err := createUsers(db, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("%d test users created", len(users))

	posts, err := createPosts(db, users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("%d posts created", len(posts))

	collections, err := createCollections(db, users, posts)
	if err != nil {
		return fmt.Errorf("failed to create collections: %w", err)
	}
	log.Printf("%d collections created", len(collections))

	summaries, err := createSummaryPosts(db, 15)
	if err != nil {
		return fmt.Errorf("failed to create summary posts: %w", err)
	}
	log.Printf("%d shared summaries created", len(summaries))

	log.Println("Database seeding completed successfully!")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE collections, posts, summary_posts, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

func createUsers(db *gorm.DB, n int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, models.User{
			Username:     fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
			Email:        gofakeit.Email(),
			Password:     string(hash),
			AuthProvider: models.AuthProviderLocal,
			Bio:          gofakeit.Sentence(10),
			Avatar:       fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		})
	}
	if err := db.Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func createPosts(db *gorm.DB, users []models.User, n int) ([]models.Post, error) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	posts := make([]models.Post, 0, n)

	for i := 0; i < n; i++ {
		subject := promptSubjects[r.Intn(len(promptSubjects))]
		style := promptStyles[r.Intn(len(promptStyles))]

		post := models.Post{
			Name:     gofakeit.BookTitle(),
			Prompt:   fmt.Sprintf("%s, %s, highly detailed", subject, style),
			Model:    imageModels[r.Intn(len(imageModels))],
			PhotoURL: fmt.Sprintf("https://picsum.photos/seed/%s/768/768", gofakeit.UUID()),
			Likes:    r.Intn(500),
			Colors:   randomPalette(r),
		}

		// Most posts are attributed; a few stay anonymous.
		if r.Intn(10) != 0 {
			uid := users[r.Intn(len(users))].ID
			post.UserID = &uid
		}

		// Roughly a quarter of later posts remix an earlier one.
		if len(posts) > 5 && r.Intn(4) == 0 {
			pid := posts[r.Intn(len(posts))].ID
			post.ParentID = &pid
			post.Prompt = "remix: " + post.Prompt
		}

		daysBack := r.Intn(90)
		post.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(r.Intn(24))*time.Hour)

		if err := db.Create(&post).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func randomPalette(r *rand.Rand) []string {
	n := 3 + r.Intn(3)
	colors := make([]string, 0, n)
	for i := 0; i < n; i++ {
		colors = append(colors, fmt.Sprintf("#%02x%02x%02x", r.Intn(256), r.Intn(256), r.Intn(256)))
	}
	return colors
}

func createCollections(db *gorm.DB, users []models.User, posts []models.Post) ([]models.Collection, error) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	collections := make([]models.Collection, 0)

	for _, user := range users {
		// Not every user curates.
		if r.Intn(3) == 0 {
			continue
		}

		memberCount := 1 + r.Intn(8)
		seen := map[uint]struct{}{}
		ids := make([]uint, 0, memberCount)
		for len(ids) < memberCount && len(seen) < len(posts) {
			p := posts[r.Intn(len(posts))]
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			ids = append(ids, p.ID)
		}

		collection := models.Collection{
			Name:      gofakeit.HipsterWord() + " board",
			UserID:    user.ID,
			PostIDs:   ids,
			IsPrivate: r.Intn(2) == 0,
		}
		if len(ids) > 0 {
			for _, p := range posts {
				if p.ID == ids[0] {
					collection.CoverPhoto = p.PhotoURL
					break
				}
			}
		}
		if err := db.Create(&collection).Error; err != nil {
			return nil, err
		}
		collections = append(collections, collection)
	}
	return collections, nil
}

func createSummaryPosts(db *gorm.DB, n int) ([]models.SummaryPost, error) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	summaries := make([]models.SummaryPost, 0, n)
	for i := 0; i < n; i++ {
		s := models.SummaryPost{
			Content:      gofakeit.Paragraph(1, 3, 12, " "),
			Name:         "Anonymous",
			SourceURL:    gofakeit.URL(),
			OriginalText: gofakeit.Paragraph(3, 5, 15, " "),
		}
		if r.Intn(2) == 0 {
			s.Name = gofakeit.FirstName()
		}
		summaries = append(summaries, s)
	}
	if err := db.Create(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}
