package tasks

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand/v2"
	"strings"

	groupstore "github.com/dalemusser/directory/internal/app/store/groups"
	peoplestore "github.com/dalemusser/directory/internal/app/store/people"
	"github.com/dalemusser/directory/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed words.txt
var wordList string

// Generator fills a database with test groups and people. Everything it
// writes is flagged test_data so it can be told apart and removed.
type Generator struct {
	Groups   int
	People   int
	Rand     *rand.Rand
	Words    []string
	HashCost int
	Log      *zap.Logger
}

// GenerateResult counts what Run wrote. RunID tags the log lines.
type GenerateResult struct {
	RunID     string
	Groups    int
	Published int
	People    int
	Logins    int
}

// NewGenerator returns the default 20 groups and 400 people.
func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{
		Groups:   20,
		People:   400,
		Rand:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		Words:    strings.Fields(wordList),
		HashCost: bcrypt.DefaultCost,
		Log:      logger,
	}
}

func generateTask() Task {
	return Task{
		Name:  "generate-users-and-groups",
		Short: "Insert 20 random groups and 400 random people for testing",
		Run: func(ctx context.Context, env Env, _ []string) error {
			res, err := NewGenerator(env.Log).Run(ctx, env.DB)
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "run %s: %d groups (%d published), %d people (%d can log in)\n",
				res.RunID, res.Groups, res.Published, res.People, res.Logins)
			return nil
		},
	}
}

func (g *Generator) words(min, max int) []string {
	n := min
	if max > min {
		n += g.Rand.IntN(max - min + 1)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = g.Words[g.Rand.IntN(len(g.Words))]
	}
	return out
}

func (g *Generator) body() string {
	return "<p>" + strings.Join(g.words(50, 200), " ") + "</p>"
}

// Run inserts the groups, then the people. Membership is skewed the way
// real directories look: a fifth of people have no group, many belong to
// some of the first three groups, and about half also pick up a few of the
// rest.
func (g *Generator) Run(ctx context.Context, db *mongo.Database) (GenerateResult, error) {
	res := GenerateResult{RunID: uuid.NewString()}
	log := g.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("run_id", res.RunID))
	if len(g.Words) == 0 {
		return res, fmt.Errorf("generate: empty word list")
	}

	title := cases.Title(language.English)
	people := peoplestore.New(db)
	groups := groupstore.New(db, people, false)

	ids := make([]primitive.ObjectID, 0, g.Groups)
	for i := 0; i < g.Groups; i++ {
		grp := models.Group{Permissions: []string{}}
		grp.Title = title.String(strings.Join(g.words(1, 2), " "))
		grp.Published = g.Rand.Float64() > 0.8
		grp.Body = g.body()
		grp.TestData = true
		if err := groups.Save(ctx, &grp); err != nil {
			return res, fmt.Errorf("generate group %d: %w", i, err)
		}
		ids = append(ids, grp.ID)
		res.Groups++
		if grp.Published {
			res.Published++
		}
	}
	log.Info("generated groups", zap.Int("count", res.Groups), zap.Int("published", res.Published))

	for i := 0; i < g.People; i++ {
		first := title.String(g.Words[g.Rand.IntN(len(g.Words))])
		last := title.String(g.Words[g.Rand.IntN(len(g.Words))])
		p := models.Person{FirstName: first, LastName: last, GroupIDs: g.pickGroups(ids)}
		p.Title = first + " " + last
		p.Body = g.body()
		p.TestData = true
		p.Published = g.Rand.Float64() > 0.25

		login := g.Rand.Float64() > 0.5
		if err := people.Save(ctx, &p); err != nil {
			return res, fmt.Errorf("generate person %d: %w", i, err)
		}
		if login {
			// The username is the slug, which is only final after the insert.
			hash, err := bcrypt.GenerateFromPassword([]byte(strings.Join(g.words(5, 5), " ")), g.HashCost)
			if err != nil {
				return res, fmt.Errorf("hash password: %w", err)
			}
			p.Login = true
			p.Username = p.Slug
			p.PasswordHash = string(hash)
			if err := people.Save(ctx, &p); err != nil {
				return res, fmt.Errorf("generate login %d: %w", i, err)
			}
			res.Logins++
		}
		res.People++
	}
	log.Info("generated people", zap.Int("count", res.People), zap.Int("logins", res.Logins))
	return res, nil
}

func (g *Generator) pickGroups(ids []primitive.ObjectID) []primitive.ObjectID {
	out := []primitive.ObjectID{}
	if g.Rand.Float64() < 0.2 {
		return out
	}
	for j := 0; j < 3 && j < len(ids); j++ {
		if g.Rand.Float64() < 0.5 {
			out = append(out, ids[j])
		}
	}
	if g.Rand.Float64() > 0.5 {
		for j := 3; j < len(ids); j++ {
			if g.Rand.Float64() < 1.0/float64(len(ids)) {
				out = append(out, ids[j])
			}
		}
	}
	return out
}
