package discovery

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/oggyb/h1bee-match/internal/app"
	"github.com/oggyb/h1bee-match/internal/db"
	svcErr "github.com/oggyb/h1bee-match/internal/errors"
	"github.com/oggyb/h1bee-match/internal/observability"
	"github.com/oggyb/h1bee-match/internal/repository"
)

// DefaultCandidateCap bounds how many profiles one discover call reads.
const DefaultCandidateCap = 50

// UserStore is the profile read side discovery needs.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*db.User, error)
	ListCandidates(ctx context.Context, f repository.CandidateFilter) ([]db.User, error)
}

// Candidate is a scored discovery card.
type Candidate struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Age             int      `json:"age"`
	Nationality     string   `json:"nationality"`
	Location        string   `json:"location"`
	Photos          []string `json:"photos"`
	Bio             string   `json:"bio"`
	CulturalJourney string   `json:"culturalJourney"`
	Interests       []string `json:"interests"`
	Languages       []string `json:"languages"`
	Compatibility   int      `json:"compatibility"`
	Vibe            string   `json:"vibe"`
	IsOnline        bool     `json:"isOnline"`
}

type Dependencies struct {
	Users        UserStore
	Shuffler     Shuffler
	Now          func() time.Time
	CandidateCap int
	Logger       *slog.Logger
}

// Service resolves the discovery deck of a user.
type Service struct {
	users    UserStore
	shuffler Shuffler
	now      func() time.Time
	cap      int
	logger   *slog.Logger
}

func New(deps Dependencies) *Service {
	s := &Service{
		users:    deps.Users,
		shuffler: deps.Shuffler,
		now:      deps.Now,
		cap:      deps.CandidateCap,
		logger:   deps.Logger,
	}
	if s.shuffler == nil {
		s.shuffler = NewRandShuffler(0)
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.cap <= 0 {
		s.cap = DefaultCandidateCap
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// NewDiscoveryService wires the service from AppContext.
func NewDiscoveryService(appCtx *app.AppContext) *Service {
	store := repository.NewStore(appCtx.DB)
	return New(Dependencies{
		Users:        store.Users,
		Shuffler:     NewRandShuffler(appCtx.Config.Discovery.Seed),
		Now:          appCtx.Now,
		CandidateCap: appCtx.Config.Discovery.CandidateCap,
		Logger:       appCtx.Logger,
	})
}

// Discover returns the shuffled, scored candidates for requesterID.
//
// Behavior:
//   - NotFound when the requester does not exist.
//   - Drops self, everyone already swiped on and incomplete profiles.
//   - Applies the mutual gender/orientation table, then the requester's
//     inclusive age window, over at most CandidateCap stored rows.
//   - An empty deck is a valid result.
func (s *Service) Discover(ctx context.Context, requesterID string) ([]Candidate, error) {
	ctx, span := observability.Tracer("discovery").Start(ctx, "discovery.Discover")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", requesterID))

	requester, err := s.users.FindByID(ctx, requesterID)
	if err != nil {
		if svcErr.Is(err, svcErr.KindNotFound) {
			return nil, svcErr.NotFound("User not found")
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, svcErr.Map(err)
	}

	rows, err := s.users.ListCandidates(ctx, repository.CandidateFilter{
		RequesterID: requesterID,
		Rules:       Rules(requester.Gender, requester.Orientation),
		Limit:       s.cap,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, svcErr.Map(err)
	}

	now := s.now()
	out := make([]Candidate, 0, len(rows))
	for i := range rows {
		c := &rows[i]
		if c.ID == requesterID || !c.ProfileCompleted {
			continue
		}
		if !Compatible(requester, c) {
			continue
		}
		age := Age(c.Birthday, now)
		if !InAgeWindow(age, requester.MinAge, requester.MaxAge) {
			continue
		}
		out = append(out, toCandidate(requester, c, age))
	}

	s.shuffler.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	observability.ObserveDiscoveryCandidates(len(out))
	span.SetAttributes(attribute.Int("discovery.fetched", len(rows)), attribute.Int("discovery.returned", len(out)))
	s.logger.Debug("discover", "user_id", requesterID, "fetched", len(rows), "returned", len(out))

	return out, nil
}

func toCandidate(requester, c *db.User, age int) Candidate {
	nationality := c.Nationality
	if nationality == "" {
		nationality = defaultNationality
	}
	return Candidate{
		ID:              c.ID,
		Name:            c.FullName(),
		Age:             age,
		Nationality:     nationality,
		Location:        c.Location,
		Photos:          nonNil(c.Photos),
		Bio:             c.Bio,
		CulturalJourney: c.CulturalJourney,
		Interests:       nonNil(c.Interests),
		Languages:       nonNil(c.Languages),
		Compatibility:   Score(requester, c),
		Vibe:            Vibe(age),
		IsOnline:        c.IsOnline,
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
