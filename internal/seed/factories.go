package seed

import (
	"fmt"
	"strings"
	"time"

	"fitstream/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "Fitstream!2024"

var (
	units = []string{
		"Simplifit — Zona Norte", "Simplifit — Zona Sul", "Simplifit — Centro",
		"Simplifit — Barra", "Simplifit — Tijuca",
	}

	captionsByKind = map[models.PostKind][]string{
		models.KindCheckin: {
			"Check-in feito! Treino de %s hoje 💪",
			"Mais um dia de %s, bora!",
			"Presente! Hoje foi dia de %s.",
		},
		models.KindResult: {
			"Bati meu recorde no %s!",
			"3 meses de %s e olha a diferença.",
			"Finalmente completei o desafio de %s.",
		},
		models.KindNutrition: {
			"Marmita pós-%s pronta.",
			"Refeição do dia depois do %s.",
		},
		models.KindAnnouncement: {
			"Aulão de %s no sábado, chamem os amigos!",
			"Nova turma de %s começando na segunda.",
		},
		models.KindMoment: {
			"Galera do %s reunida hoje.",
			"Momento pós-%s com a turma.",
		},
	}

	workouts = []string{"perna", "costas", "HIIT", "funcional", "corrida", "yoga", "bike", "peito"}
)

// Factory builds demo entities. It owns a seeded faker so runs with the same
// seed produce the same community.
type Factory struct {
	faker        *gofakeit.Faker
	now          time.Time
	maxDays      int
	passwordHash string
}

// NewFactory creates a Factory. A zero seed picks a random one.
func NewFactory(opts Options) (*Factory, error) {
	cost := bcrypt.DefaultCost
	if opts.FastHash {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	maxDays := opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	return &Factory{
		faker:        gofakeit.New(opts.RandSeed),
		now:          time.Now(),
		maxDays:      maxDays,
		passwordHash: string(hash),
	}, nil
}

// BuildUser returns an unsaved account with realistic metadata.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	first, last := f.faker.FirstName(), f.faker.LastName()
	user := &models.User{
		Email:        strings.ToLower(fmt.Sprintf("%s.%s.%d@example.com", first, last, f.faker.Number(100, 999))),
		PasswordHash: f.passwordHash,
		Name:         first + " " + last,
		Phone:        fmt.Sprintf("(%02d) 9%04d-%04d", f.faker.Number(11, 99), f.faker.Number(0, 9999), f.faker.Number(0, 9999)),
		AvatarURL:    "https://i.pravatar.cc/150?u=" + f.faker.UUID(),
		Unit:         units[f.faker.Number(0, len(units)-1)],
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// BuildPost returns an unsaved post of kind by author, dated within the last maxDays.
func (f *Factory) BuildPost(author *models.User, kind models.PostKind) *models.Post {
	templates := captionsByKind[kind]
	caption := fmt.Sprintf(templates[f.faker.Number(0, len(templates)-1)],
		workouts[f.faker.Number(0, len(workouts)-1)])

	post := &models.Post{
		AuthorID:     author.ID,
		Kind:         kind,
		Caption:      caption,
		PrimaryMedia: fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID()),
		CreatedAt:    f.pastTime(),
	}

	switch kind {
	case models.KindResult:
		// Before and after.
		post.SecondaryMedia = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
	case models.KindNutrition:
		post.SetNutrition(&models.NutritionFacts{
			Protein: fmt.Sprintf("%dg", f.faker.Number(15, 60)),
			Carbs:   fmt.Sprintf("%dg", f.faker.Number(20, 90)),
			Kcal:    fmt.Sprintf("%d", f.faker.Number(250, 900)),
		})
	case models.KindMoment:
		if f.faker.Bool() {
			post.IsVideo = true
			post.PrimaryMedia = "https://cdn.example.com/moments/" + f.faker.UUID() + ".mp4"
		}
	}
	return post
}

// BuildComment returns an unsaved comment on post.
func (f *Factory) BuildComment(post *models.Post, author *models.User) *models.Comment {
	return &models.Comment{
		PostID:    post.ID,
		AuthorID:  author.ID,
		Content:   f.faker.Sentence(f.faker.Number(3, 12)),
		CreatedAt: post.CreatedAt.Add(time.Duration(f.faker.Number(1, 600)) * time.Minute),
	}
}

// Kind picks a post kind, weighted toward check-ins.
func (f *Factory) Kind() models.PostKind {
	switch n := f.faker.Number(1, 100); {
	case n <= 40:
		return models.KindCheckin
	case n <= 60:
		return models.KindResult
	case n <= 80:
		return models.KindNutrition
	case n <= 90:
		return models.KindMoment
	default:
		return models.KindAnnouncement
	}
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.maxDays*24*60)) * time.Minute
	return f.now.Add(-back)
}

// intn returns a number in [0, n).
func (f *Factory) intn(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.Number(0, n-1)
}
